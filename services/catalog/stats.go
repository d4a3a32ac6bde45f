package catalog

import (
	"context"
	"time"

	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"github.com/jinzhu/now"
)

type DashboardStats struct {
	TotalCourses          int64              `json:"total_courses"`
	PublishedCourses      int64              `json:"published_courses"`
	TotalLearners         int64              `json:"total_learners"`
	TotalEnrollments      int64              `json:"total_enrollments"`
	CompletedEnrollments  int64              `json:"completed_enrollments"`
	EnrollmentsThisWeek   int64              `json:"enrollments_this_week"`
	CertificatesThisMonth int64              `json:"certificates_this_month"`
	CertificatesTotal     int64              `json:"certificates_total"`
	RecentEnrollments     []RecentEnrollment `json:"recent_enrollments"`
}

type RecentEnrollment struct {
	UserName   string    `json:"user_name"`
	CourseName string    `json:"course_name"`
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// DashboardStats aggregates catalog and learner activity. Weeks start on Monday.
func (s *Service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)

	cal := &now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}
	t := cal.With(s.now().UTC())
	weekStart := t.BeginningOfWeek()
	monthStart := t.BeginningOfMonth()

	stats := &DashboardStats{RecentEnrollments: []RecentEnrollment{}}
	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalCourses, &courseModels.Course{}, "is_deleted = ?", []interface{}{false}},
		{&stats.PublishedCourses, &courseModels.Course{}, "is_deleted = ? AND is_published = ?", []interface{}{false, true}},
		{&stats.TotalLearners, &models.User{}, "is_deleted = ? AND role = ?", []interface{}{false, models.RoleUser}},
		{&stats.TotalEnrollments, &courseModels.Enrollment{}, "1 = 1", nil},
		{&stats.CompletedEnrollments, &courseModels.Enrollment{}, "completed = ?", []interface{}{true}},
		{&stats.EnrollmentsThisWeek, &courseModels.Enrollment{}, "created_at >= ?", []interface{}{weekStart}},
		{&stats.CertificatesThisMonth, &courseModels.Certificate{}, "issue_date >= ?", []interface{}{monthStart}},
		{&stats.CertificatesTotal, &courseModels.Certificate{}, "1 = 1", nil},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.query, c.args...).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var recent []courseModels.Enrollment
	if err := db.Preload("Course").Order("created_at desc").Order("id desc").Limit(5).Find(&recent).Error; err != nil {
		return nil, err
	}
	for _, e := range recent {
		var user models.User
		db.Select("name").Where("id = ?", e.UserID).Take(&user)
		row := RecentEnrollment{UserName: user.Name, Progress: e.Progress, EnrolledAt: e.CreatedAt}
		if e.Course != nil {
			row.CourseName = e.Course.Title
		}
		stats.RecentEnrollments = append(stats.RecentEnrollments, row)
	}
	return stats, nil
}

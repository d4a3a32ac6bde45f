// Package learning owns the enrollment → lesson completion → certificate
// state machine. Handlers and schedulers call into Service; nothing else
// writes enrollments, lesson progress or certificates.
package learning

import (
	"context"
	"time"

	"ruralearn/logger"
	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives best-effort notifications after a state change commits.
// Errors are logged by the service and never fail the operation.
type Notifier interface {
	EnrollmentCreated(ctx context.Context, user models.User, course courseModels.Course) error
	CertificateIssued(ctx context.Context, user models.User, course courseModels.Course, cert courseModels.Certificate) error
}

// ListingInvalidator drops cached course listings, whose student counts go
// stale when an enrollment is added or removed.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

type Service struct {
	db       *gorm.DB
	log      *logger.Logger
	notifier Notifier
	listings ListingInvalidator
	now      func() time.Time
}

// New builds a Service. notifier may be nil.
func New(db *gorm.DB, baseLog *logger.Logger, notifier Notifier) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Service{
		db:       db,
		log:      baseLog.With("service", "learning"),
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetListingInvalidator registers the cache to clear after enrollment changes.
func (s *Service) SetListingInvalidator(l ListingInvalidator) {
	s.listings = l
}

func (s *Service) invalidateListings(ctx context.Context) {
	if s.listings != nil {
		s.listings.InvalidateListings(ctx)
	}
}

// courseLessonIDs returns the ids of the live lessons of courseID.
func courseLessonIDs(tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").
		Pluck("id", &ids).Error
	return ids, err
}

// completedLessonCount counts the learner's completed rows restricted to lessonIDs.
// LessonProgress is not scoped by course, so the intersection is required.
func completedLessonCount(tx *gorm.DB, userID uint, lessonIDs []uint) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := tx.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Count(&n).Error
	return int(n), err
}

// progressPercent rounds completed/total*100 half up. A course without lessons
// is at 0. Anything short of every lesson is capped at 99 so that Completed
// can only be set by the lesson-level check.
func progressPercent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	p := (completed*200 + total) / (2 * total)
	if p > 99 {
		p = 99
	}
	return p
}

// lockEnrollment reads the enrollment row and holds it for the rest of tx.
// SQLite serialises writers already and has no FOR UPDATE.
func lockEnrollment(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var enrollment courseModels.Enrollment
	if err := q.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *Service) loadUser(ctx context.Context, userID uint) (models.User, bool) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		s.log.Warn("notification skipped, user lookup failed", "user_id", userID, "error", err)
		return user, false
	}
	return user, true
}

func (s *Service) notifyEnrollment(ctx context.Context, userID uint, course courseModels.Course) {
	if s.notifier == nil {
		return
	}
	user, ok := s.loadUser(ctx, userID)
	if !ok {
		return
	}
	if err := s.notifier.EnrollmentCreated(ctx, user, course); err != nil {
		s.log.Warn("enrollment notification failed", "user_id", userID, "course_id", course.ID, "error", err)
	}
}

func (s *Service) notifyCertificate(ctx context.Context, userID uint, cert courseModels.Certificate) {
	if s.notifier == nil {
		return
	}
	user, ok := s.loadUser(ctx, userID)
	if !ok {
		return
	}
	var course courseModels.Course
	if err := s.db.WithContext(ctx).First(&course, cert.CourseID).Error; err != nil {
		s.log.Warn("notification skipped, course lookup failed", "course_id", cert.CourseID, "error", err)
		return
	}
	if err := s.notifier.CertificateIssued(ctx, user, course, cert); err != nil {
		s.log.Warn("certificate notification failed", "user_id", userID, "course_id", cert.CourseID, "error", err)
	}
}

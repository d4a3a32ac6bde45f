// Package catalog serves the course catalog and the admin authoring and
// dashboard operations on it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ruralearn/logger"
	courseModels "ruralearn/models/course"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrDuplicateOrder    = errors.New("a lesson with this order index already exists in the course")
	ErrCourseHasNoLesson = errors.New("a course needs at least one lesson before it can be published")
)

const listCachePrefix = "catalog:"

// Cache is the subset of utils/cache.RedisCache the catalog uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Service struct {
	db    *gorm.DB
	log   *logger.Logger
	cache Cache
	ttl   time.Duration
	now   func() time.Time

	reconciler ProgressReconciler
}

// New builds the catalog service. cache may be nil.
func New(db *gorm.DB, baseLog *logger.Logger, cache Cache, ttl time.Duration) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Service{
		db:    db,
		log:   baseLog.With("service", "catalog"),
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

type ListFilter struct {
	Category string
	Level    string
	Search   string
	Page     int
	Limit    int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	f.Category = strings.TrimSpace(f.Category)
	f.Level = strings.TrimSpace(f.Level)
	f.Search = strings.TrimSpace(f.Search)
}

func (f ListFilter) cacheKey() string {
	return fmt.Sprintf("%slist:c=%s:l=%s:q=%s:p=%d:n=%d",
		listCachePrefix, strings.ToLower(f.Category), strings.ToLower(f.Level), strings.ToLower(f.Search), f.Page, f.Limit)
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type CoursePage struct {
	Courses    []courseModels.Course `json:"courses"`
	Pagination Pagination            `json:"pagination"`
}

// ListCourses returns published courses matching filter, newest first.
func (s *Service) ListCourses(ctx context.Context, filter ListFilter) (*CoursePage, error) {
	filter.normalize()
	key := filter.cacheKey()

	if s.cache != nil {
		var cached CoursePage
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	q := s.db.WithContext(ctx).Model(&courseModels.Course{}).
		Where("is_deleted = ? AND is_published = ?", false, true)
	if filter.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Level != "" {
		q = q.Where("LOWER(level) = ?", strings.ToLower(filter.Level))
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	page := &CoursePage{Courses: []courseModels.Course{}, Pagination: Pagination{Page: filter.Page, Limit: filter.Limit}}
	if err := q.Count(&page.Pagination.Total).Error; err != nil {
		return nil, err
	}
	if err := q.Order("created_at desc").Order("id desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&page.Courses).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, page, s.ttl); err != nil {
			s.log.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}
	return page, nil
}

type CourseInput struct {
	Title        string
	Description  string
	Category     string
	Level        string
	Duration     string
	ThumbnailURL string
}

// CreateCourse adds an unpublished course.
func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (*courseModels.Course, error) {
	course := courseModels.Course{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		Level:        in.Level,
		Duration:     in.Duration,
		ThumbnailURL: in.ThumbnailURL,
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, err
	}
	s.log.Info("course created", "course_id", course.ID, "title", course.Title)
	return &course, nil
}

type LessonInput struct {
	Title      string
	Content    string
	Duration   int
	OrderIndex int // 0 appends after the last lesson
	VideoURL   string
}

// AddLesson appends a lesson to the course and keeps lesson_count in step.
func (s *Service) AddLesson(ctx context.Context, courseID uint, in LessonInput) (*courseModels.Lesson, error) {
	lesson := courseModels.Lesson{
		CourseID:   courseID,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Duration:   in.Duration,
		OrderIndex: in.OrderIndex,
		VideoURL:   in.VideoURL,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := tx.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}

		if lesson.OrderIndex <= 0 {
			var maxOrder int
			if err := tx.Unscoped().Model(&courseModels.Lesson{}).
				Where("course_id = ?", courseID).
				Select("COALESCE(MAX(order_index), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			lesson.OrderIndex = maxOrder + 1
		} else {
			var taken int64
			if err := tx.Unscoped().Model(&courseModels.Lesson{}).
				Where("course_id = ? AND order_index = ?", courseID, lesson.OrderIndex).
				Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return ErrDuplicateOrder
			}
		}

		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}
		return tx.Model(&courseModels.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("lesson_count", gorm.Expr("lesson_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("lesson added", "course_id", courseID, "lesson_id", lesson.ID, "order_index", lesson.OrderIndex)
	return &lesson, nil
}

// SetPublished publishes or unpublishes a course. Publishing an empty course
// is refused.
func (s *Service) SetPublished(ctx context.Context, courseID uint, published bool) (*courseModels.Course, error) {
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if published {
		var lessons int64
		if err := db.Model(&courseModels.Lesson{}).
			Where("course_id = ? AND is_deleted = ?", courseID, false).
			Count(&lessons).Error; err != nil {
			return nil, err
		}
		if lessons == 0 {
			return nil, ErrCourseHasNoLesson
		}
	}

	if err := db.Model(&course).Update("is_published", published).Error; err != nil {
		return nil, err
	}
	course.IsPublished = published

	s.invalidate(ctx)
	return &course, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, listCachePrefix); err != nil {
		s.log.Warn("catalog cache invalidation failed", "error", err)
	}
}

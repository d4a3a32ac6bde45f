package catalog

import (
	"context"
	"errors"
	"strings"

	courseModels "ruralearn/models/course"

	"gorm.io/gorm"
)

var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrInvalidLessonOrder = errors.New("the lesson order must list every lesson of the course exactly once")
)

// ProgressReconciler recomputes stored learner progress for a course after
// its lesson set shrinks.
type ProgressReconciler interface {
	ReconcileCourse(ctx context.Context, courseID uint) (int, error)
}

// SetProgressReconciler registers the service to call after a lesson is removed.
func (s *Service) SetProgressReconciler(r ProgressReconciler) {
	s.reconciler = r
}

// InvalidateListings drops every cached course listing.
func (s *Service) InvalidateListings(ctx context.Context) {
	s.invalidate(ctx)
}

// CourseUpdate carries the course fields to change. nil leaves a field as is.
type CourseUpdate struct {
	Title        *string
	Description  *string
	Category     *string
	Level        *string
	Duration     *string
	ThumbnailURL *string
}

func (u CourseUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Title != nil {
		cols["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	if u.Level != nil {
		cols["level"] = *u.Level
	}
	if u.Duration != nil {
		cols["duration"] = *u.Duration
	}
	if u.ThumbnailURL != nil {
		cols["thumbnail_url"] = *u.ThumbnailURL
	}
	return cols
}

// UpdateCourse changes the given fields of a live course.
func (s *Service) UpdateCourse(ctx context.Context, courseID uint, in CourseUpdate) (*courseModels.Course, error) {
	db := s.db.WithContext(ctx)

	course, err := liveCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	cols := in.columns()
	if len(cols) == 0 {
		return course, nil
	}
	if err := db.Model(course).Updates(cols).Error; err != nil {
		return nil, err
	}
	if err := db.First(course, courseID).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("course updated", "course_id", courseID)
	return course, nil
}

// DeleteCourse soft-deletes the course and its lessons and takes it out of the
// catalog. Enrollments and certificates are kept.
func (s *Service) DeleteCourse(ctx context.Context, courseID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := liveCourse(tx, courseID); err != nil {
			return err
		}

		var lessonIDs []uint
		if err := tx.Model(&courseModels.Lesson{}).
			Where("course_id = ? AND is_deleted = ?", courseID, false).
			Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		for _, id := range lessonIDs {
			if err := retireLesson(tx, id); err != nil {
				return err
			}
		}

		return tx.Model(&courseModels.Course{}).
			Where("id = ?", courseID).
			Updates(map[string]interface{}{
				"is_deleted":   true,
				"is_published": false,
				"lesson_count": 0,
			}).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("course deleted", "course_id", courseID)
	return nil
}

// LessonUpdate carries the lesson fields to change. Order is changed through
// ReorderLessons.
type LessonUpdate struct {
	Title    *string
	Content  *string
	Duration *int
	VideoURL *string
}

func (u LessonUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Title != nil {
		cols["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Content != nil {
		cols["content"] = *u.Content
	}
	if u.Duration != nil {
		cols["duration"] = *u.Duration
	}
	if u.VideoURL != nil {
		cols["video_url"] = *u.VideoURL
	}
	return cols
}

// UpdateLesson changes the given fields of a live lesson of courseID.
func (s *Service) UpdateLesson(ctx context.Context, courseID, lessonID uint, in LessonUpdate) (*courseModels.Lesson, error) {
	db := s.db.WithContext(ctx)

	if _, err := liveCourse(db, courseID); err != nil {
		return nil, err
	}
	lesson, err := liveLesson(db, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	cols := in.columns()
	if len(cols) == 0 {
		return lesson, nil
	}
	if err := db.Model(lesson).Updates(cols).Error; err != nil {
		return nil, err
	}
	if err := db.First(lesson, lessonID).Error; err != nil {
		return nil, err
	}

	s.log.Info("lesson updated", "course_id", courseID, "lesson_id", lessonID)
	return lesson, nil
}

// DeleteLesson soft-deletes a lesson and then has learner progress for the
// course recomputed against the remaining lessons. A reconcile failure is
// logged; the nightly sweep repairs it.
func (s *Service) DeleteLesson(ctx context.Context, courseID, lessonID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := liveCourse(tx, courseID); err != nil {
			return err
		}
		if _, err := liveLesson(tx, courseID, lessonID); err != nil {
			return err
		}
		if err := retireLesson(tx, lessonID); err != nil {
			return err
		}
		return tx.Model(&courseModels.Course{}).
			Where("id = ? AND lesson_count > ?", courseID, 0).
			UpdateColumn("lesson_count", gorm.Expr("lesson_count - ?", 1)).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("lesson deleted", "course_id", courseID, "lesson_id", lessonID)

	if s.reconciler != nil {
		changed, err := s.reconciler.ReconcileCourse(ctx, courseID)
		if err != nil {
			s.log.Warn("progress reconcile after lesson delete failed", "course_id", courseID, "error", err)
		} else if changed > 0 {
			s.log.Info("learner progress updated after lesson delete", "course_id", courseID, "enrollments", changed)
		}
	}
	return nil
}

// ReorderLessons renumbers the live lessons of courseID 1..n in the order of
// lessonIDs, which must name each of them exactly once.
func (s *Service) ReorderLessons(ctx context.Context, courseID uint, lessonIDs []uint) ([]courseModels.Lesson, error) {
	var lessons []courseModels.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := liveCourse(tx, courseID); err != nil {
			return err
		}

		var current []uint
		if err := tx.Model(&courseModels.Lesson{}).
			Where("course_id = ? AND is_deleted = ?", courseID, false).
			Pluck("id", &current).Error; err != nil {
			return err
		}
		if !sameLessonSet(current, lessonIDs) {
			return ErrInvalidLessonOrder
		}

		// Park every lesson on a free negative slot first so the renumbering
		// never trips idx_lesson_course_order.
		for _, id := range current {
			if err := setOrderIndex(tx, id, parkedOrder(id)); err != nil {
				return err
			}
		}
		for i, id := range lessonIDs {
			if err := setOrderIndex(tx, id, i+1); err != nil {
				return err
			}
		}

		return tx.Where("course_id = ? AND is_deleted = ?", courseID, false).
			Order("order_index asc").
			Find(&lessons).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lessons reordered", "course_id", courseID, "lessons", len(lessons))
	return lessons, nil
}

func liveCourse(tx *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := tx.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func liveLesson(tx *gorm.DB, courseID, lessonID uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if err := tx.Where("id = ? AND course_id = ? AND is_deleted = ?", lessonID, courseID, false).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// retireLesson flags the lesson deleted and moves it off the positive order
// range so its old slot can be reused by AddLesson or ReorderLessons.
func retireLesson(tx *gorm.DB, lessonID uint) error {
	return tx.Model(&courseModels.Lesson{}).
		Where("id = ?", lessonID).
		Updates(map[string]interface{}{
			"is_deleted":  true,
			"order_index": parkedOrder(lessonID),
		}).Error
}

func setOrderIndex(tx *gorm.DB, lessonID uint, order int) error {
	return tx.Model(&courseModels.Lesson{}).
		Where("id = ?", lessonID).
		UpdateColumn("order_index", order).Error
}

// parkedOrder is unique per lesson and never collides with a live 1..n index.
func parkedOrder(lessonID uint) int {
	return -int(lessonID)
}

func sameLessonSet(current, requested []uint) bool {
	if len(current) != len(requested) {
		return false
	}
	want := make(map[uint]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	for _, id := range requested {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return true
}

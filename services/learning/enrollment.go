package learning

import (
	"context"
	"errors"

	courseModels "ruralearn/models/course"

	"gorm.io/gorm"
)

// Enroll creates the learner's enrollment in courseID. When one already exists
// it is returned unchanged with alreadyEnrolled set.
func (s *Service) Enroll(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, bool, error) {
	if userID == 0 {
		return nil, false, ErrNotSignedIn
	}
	db := s.db.WithContext(ctx)

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCourseNotFound
		}
		return nil, false, stepErr(OpEnroll, "load course", err)
	}

	existing, err := findEnrollment(db, userID, courseID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, stepErr(OpEnroll, "find enrollment", err)
	}

	enrollment := courseModels.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Progress:     0,
		Completed:    false,
		LastAccessed: s.now(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		return tx.Model(&courseModels.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("student_count", gorm.Expr("student_count + ?", 1)).Error
	})
	if err != nil {
		// A concurrent request may have won the unique (user_id, course_id) insert.
		if winner, rerr := findEnrollment(db, userID, courseID); rerr == nil {
			return winner, true, nil
		}
		return nil, false, stepErr(OpEnroll, "create enrollment", err)
	}

	s.log.Info("learner enrolled", "user_id", userID, "course_id", courseID, "enrollment_id", enrollment.ID)
	s.invalidateListings(ctx)
	s.notifyEnrollment(ctx, userID, course)
	return &enrollment, false, nil
}

// Unenroll deletes the enrollment and then, best effort, the learner's lesson
// progress for the course. Certificates are kept.
func (s *Service) Unenroll(ctx context.Context, userID, courseID uint) error {
	if userID == 0 {
		return ErrNotSignedIn
	}
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		enrollment, err := findEnrollment(tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return stepErr(OpUnenroll, "find enrollment", err)
		}
		if err := tx.Delete(enrollment).Error; err != nil {
			return stepErr(OpUnenroll, "delete enrollment", err)
		}
		if err := tx.Model(&courseModels.Course{}).
			Where("id = ? AND student_count > ?", courseID, 0).
			UpdateColumn("student_count", gorm.Expr("student_count - ?", 1)).Error; err != nil {
			return stepErr(OpUnenroll, "update student count", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("learner unenrolled", "user_id", userID, "course_id", courseID)
	s.invalidateListings(ctx)

	lessonIDs, err := courseLessonIDs(db, courseID)
	if err != nil {
		s.log.Warn("lesson progress cleanup skipped", "user_id", userID, "course_id", courseID, "error", err)
		return nil
	}
	if len(lessonIDs) == 0 {
		return nil
	}
	if err := db.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Delete(&courseModels.LessonProgress{}).Error; err != nil {
		s.log.Warn("lesson progress cleanup failed", "user_id", userID, "course_id", courseID, "error", err)
	}
	return nil
}

// GetEnrollment returns the learner's enrollment in courseID.
func (s *Service) GetEnrollment(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}
	enrollment, err := findEnrollment(s.db.WithContext(ctx), userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEnrollmentNotFound
	}
	return enrollment, err
}

// ListEnrollments returns the learner's enrollments with their course, newest first.
func (s *Service) ListEnrollments(ctx context.Context, userID uint) ([]courseModels.Enrollment, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}
	var enrollments []courseModels.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&enrollments).Error
	return enrollments, err
}

func findEnrollment(tx *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Take(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

package learning

import (
	"context"
	"errors"
	"time"

	courseModels "ruralearn/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressResult carries the committed state of an enrollment after a write.
type ProgressResult struct {
	Enrollment       *courseModels.Enrollment  `json:"enrollment"`
	Progress         int                       `json:"progress"`
	Completed        bool                      `json:"completed"`
	CompletedLessons int                       `json:"completed_lessons"`
	TotalLessons     int                       `json:"total_lessons"`
	Certificate      *courseModels.Certificate `json:"certificate,omitempty"`
	CertificateNew   bool                      `json:"certificate_new"`
}

// LessonStatus is a lesson with the learner's completion flag.
type LessonStatus struct {
	courseModels.Lesson
	Completed bool `json:"completed"`
}

// CourseView is the course detail as one learner sees it.
type CourseView struct {
	Course           courseModels.Course       `json:"course"`
	Lessons          []LessonStatus            `json:"lessons"`
	Enrollment       *courseModels.Enrollment  `json:"enrollment"`
	Certificate      *courseModels.Certificate `json:"certificate"`
	CompletedLessons int                       `json:"completed_lessons"`
	TotalLessons     int                       `json:"total_lessons"`
}

// SetLessonCompletion records the lesson's completion flag and recomputes the
// enrollment. The upsert, the recount and the enrollment update share one
// transaction holding the enrollment row. Reaching 100% issues the
// certificate; if that fails the committed result is returned with the error.
func (s *Service) SetLessonCompletion(ctx context.Context, userID, courseID, lessonID uint, completed bool) (*ProgressResult, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}

	var result *ProgressResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson courseModels.Lesson
		if err := tx.Where("id = ? AND course_id = ? AND is_deleted = ?", lessonID, courseID, false).Take(&lesson).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLessonNotInCourse
			}
			return stepErr(OpUpdateProgress, "load lesson", err)
		}

		enrollment, err := lockEnrollment(tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return stepErr(OpUpdateProgress, "lock enrollment", err)
		}

		now := s.now()
		row := courseModels.LessonProgress{
			UserID:       userID,
			LessonID:     lessonID,
			Completed:    completed,
			LastAccessed: now,
		}
		if err := upsertLessonProgress(tx, []courseModels.LessonProgress{row}); err != nil {
			return stepErr(OpUpdateProgress, "upsert lesson progress", err)
		}

		result, err = recompute(tx, enrollment, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("lesson completion recorded",
		"user_id", userID, "course_id", courseID, "lesson_id", lessonID,
		"completed", completed, "progress", result.Progress)

	return s.finish(ctx, result)
}

// CourseProgress returns the course, its lessons in order and, for an
// enrolled learner, the completion flags, enrollment and certificate.
// userID 0 yields the anonymous view.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID uint) (*CourseView, error) {
	db := s.db.WithContext(ctx)

	view := &CourseView{Lessons: []LessonStatus{}}
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&view.Course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	var lessons []courseModels.Lesson
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index asc").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	view.TotalLessons = len(lessons)

	done := map[uint]bool{}
	if userID != 0 {
		enrollment, err := findEnrollment(db, userID, courseID)
		switch {
		case err == nil:
			view.Enrollment = enrollment
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}

		if view.Enrollment != nil && len(lessons) > 0 {
			ids := make([]uint, len(lessons))
			for i, l := range lessons {
				ids[i] = l.ID
			}
			var completedIDs []uint
			if err := db.Model(&courseModels.LessonProgress{}).
				Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, ids).
				Pluck("lesson_id", &completedIDs).Error; err != nil {
				return nil, err
			}
			for _, id := range completedIDs {
				done[id] = true
			}
		}

		cert, err := findCertificate(db, userID, courseID)
		switch {
		case err == nil:
			view.Certificate = cert
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	for _, l := range lessons {
		view.Lessons = append(view.Lessons, LessonStatus{Lesson: l, Completed: done[l.ID]})
		if done[l.ID] {
			view.CompletedLessons++
		}
	}
	return view, nil
}

// Reconcile recomputes the enrollment from the lesson rows without touching them.
func (s *Service) Reconcile(ctx context.Context, userID, courseID uint) (*ProgressResult, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}

	var result *ProgressResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := lockEnrollment(tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return stepErr(OpUpdateProgress, "lock enrollment", err)
		}
		result, err = recompute(tx, enrollment, enrollment.LastAccessed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, result)
}

// ReconcileAll walks every enrollment and repairs stored progress that no
// longer matches the lesson rows. It returns how many enrollments changed.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	return s.reconcileEnrollments(ctx, 0)
}

// ReconcileCourse recomputes every enrollment of one course. The catalog
// calls it after a lesson is removed so that learners who had finished every
// remaining lesson reach 100 and get their certificate.
func (s *Service) ReconcileCourse(ctx context.Context, courseID uint) (int, error) {
	if courseID == 0 {
		return 0, nil
	}
	return s.reconcileEnrollments(ctx, courseID)
}

// reconcileEnrollments walks enrollments by id, restricted to courseID when it
// is non-zero, and returns how many changed.
func (s *Service) reconcileEnrollments(ctx context.Context, courseID uint) (int, error) {
	const batchSize = 200

	repaired := 0
	var lastID uint
	for {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}

		q := s.db.WithContext(ctx).Where("id > ?", lastID)
		if courseID != 0 {
			q = q.Where("course_id = ?", courseID)
		}
		var batch []courseModels.Enrollment
		if err := q.
			Order("id asc").
			Limit(batchSize).
			Find(&batch).Error; err != nil {
			return repaired, err
		}
		if len(batch) == 0 {
			return repaired, nil
		}

		for _, e := range batch {
			lastID = e.ID
			result, err := s.Reconcile(ctx, e.UserID, e.CourseID)
			if err != nil {
				if errors.Is(err, ErrNotEnrolled) {
					continue
				}
				s.log.Warn("reconcile failed", "enrollment_id", e.ID, "error", err)
				if result == nil {
					continue
				}
			}
			if result.Progress != e.Progress || result.Completed != e.Completed {
				repaired++
				s.log.Info("enrollment progress repaired",
					"enrollment_id", e.ID, "from", e.Progress, "to", result.Progress)
			}
		}
	}
}

// ForceCompleteAll marks every lesson of the course complete for the learner.
// It is a support tool and is only reachable through the guarded admin route.
func (s *Service) ForceCompleteAll(ctx context.Context, userID, courseID uint) (*ProgressResult, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}

	var result *ProgressResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := lockEnrollment(tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return stepErr(OpUpdateProgress, "lock enrollment", err)
		}

		lessonIDs, err := courseLessonIDs(tx, courseID)
		if err != nil {
			return stepErr(OpUpdateProgress, "list course lessons", err)
		}
		if len(lessonIDs) == 0 {
			return ErrNoLessons
		}

		now := s.now()
		rows := make([]courseModels.LessonProgress, len(lessonIDs))
		for i, id := range lessonIDs {
			rows[i] = courseModels.LessonProgress{UserID: userID, LessonID: id, Completed: true, LastAccessed: now}
		}
		if err := upsertLessonProgress(tx, rows); err != nil {
			return stepErr(OpUpdateProgress, "upsert lesson progress", err)
		}

		result, err = recompute(tx, enrollment, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn("all lessons force-completed", "user_id", userID, "course_id", courseID)
	return s.finish(ctx, result)
}

// finish issues the certificate once the committed progress reaches 100.
func (s *Service) finish(ctx context.Context, result *ProgressResult) (*ProgressResult, error) {
	if result.Progress != 100 {
		return result, nil
	}

	userID, courseID := result.Enrollment.UserID, result.Enrollment.CourseID
	if cert, err := findCertificate(s.db.WithContext(ctx), userID, courseID); err == nil {
		result.Certificate = cert
		return result, nil
	}

	cert, created, err := s.Issue(ctx, userID, courseID)
	if err != nil {
		s.log.Error("automatic certificate issue failed", "user_id", userID, "course_id", courseID, "error", err)
		return result, err
	}
	result.Certificate = cert
	result.CertificateNew = created
	return result, nil
}

func upsertLessonProgress(tx *gorm.DB, rows []courseModels.LessonProgress) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "last_accessed", "updated_at"}),
	}).Create(&rows).Error
}

// recompute counts completed lessons and writes progress, completed and
// last_accessed onto the already locked enrollment.
func recompute(tx *gorm.DB, enrollment *courseModels.Enrollment, accessed time.Time) (*ProgressResult, error) {
	lessonIDs, err := courseLessonIDs(tx, enrollment.CourseID)
	if err != nil {
		return nil, stepErr(OpUpdateProgress, "list course lessons", err)
	}
	done, err := completedLessonCount(tx, enrollment.UserID, lessonIDs)
	if err != nil {
		return nil, stepErr(OpUpdateProgress, "count completed lessons", err)
	}

	progress := progressPercent(done, len(lessonIDs))
	completed := progress == 100

	if err := tx.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"progress":      progress,
			"completed":     completed,
			"last_accessed": accessed,
		}).Error; err != nil {
		return nil, stepErr(OpUpdateProgress, "update enrollment", err)
	}
	enrollment.Progress = progress
	enrollment.Completed = completed
	enrollment.LastAccessed = accessed

	return &ProgressResult{
		Enrollment:       enrollment,
		Progress:         progress,
		Completed:        completed,
		CompletedLessons: done,
		TotalLessons:     len(lessonIDs),
	}, nil
}

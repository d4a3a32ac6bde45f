package learning

import (
	"context"
	"errors"
	"strings"
	"time"

	"ruralearn/models"
	courseModels "ruralearn/models/course"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Verification is the public view of a certificate looked up by number.
type Verification struct {
	CertificateNumber string    `json:"certificate_number"`
	HolderName        string    `json:"holder_name"`
	CourseID          uint      `json:"course_id"`
	CourseTitle       string    `json:"course_title"`
	IssueDate         time.Time `json:"issue_date"`
}

// Issue verifies every lesson of the course is complete and returns the
// learner's certificate, creating it on first success. The enrollment is
// forced to 100% in the same transaction.
func (s *Service) Issue(ctx context.Context, userID, courseID uint) (*courseModels.Certificate, bool, error) {
	if userID == 0 {
		return nil, false, ErrNotSignedIn
	}

	var (
		cert    *courseModels.Certificate
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEnrollment(tx, userID, courseID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return stepErr(OpIssueCertificate, "lock enrollment", err)
		}

		lessonIDs, err := courseLessonIDs(tx, courseID)
		if err != nil {
			return stepErr(OpIssueCertificate, "list course lessons", err)
		}
		if len(lessonIDs) == 0 {
			return ErrNoLessons
		}

		done, err := completedLessonCount(tx, userID, lessonIDs)
		if err != nil {
			return stepErr(OpIssueCertificate, "count completed lessons", err)
		}
		if incomplete := len(lessonIDs) - done; incomplete > 0 {
			return &IncompleteLessonsError{Remaining: incomplete}
		}

		existing, err := findCertificate(tx, userID, courseID)
		switch {
		case err == nil:
			cert = existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return stepErr(OpIssueCertificate, "find certificate", err)
		}

		if cert == nil {
			var course courseModels.Course
			if err := tx.First(&course, courseID).Error; err != nil {
				return stepErr(OpIssueCertificate, "load course", err)
			}

			now := s.now()
			fresh := courseModels.Certificate{
				UserID:            userID,
				CourseID:          courseID,
				CertificateNumber: newCertificateNumber(now),
				IssueDate:         now,
				Metadata: datatypes.JSONMap{
					"course_title": course.Title,
					"category":     course.Category,
					"level":        course.Level,
					"lesson_count": len(lessonIDs),
				},
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoNothing: true,
			}).Create(&fresh)
			if res.Error != nil {
				return stepErr(OpIssueCertificate, "create certificate", res.Error)
			}
			if res.RowsAffected == 1 {
				cert, created = &fresh, true
			} else if cert, err = findCertificate(tx, userID, courseID); err != nil {
				return stepErr(OpIssueCertificate, "reload certificate", err)
			}
		}

		if err := tx.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Updates(map[string]interface{}{"progress": 100, "completed": true}).Error; err != nil {
			return stepErr(OpIssueCertificate, "finalize enrollment", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info("certificate issued",
			"user_id", userID, "course_id", courseID, "certificate_number", cert.CertificateNumber)
		s.notifyCertificate(ctx, userID, *cert)
	}
	return cert, created, nil
}

// ListCertificates returns the learner's certificates with their course, newest first.
func (s *Service) ListCertificates(ctx context.Context, userID uint) ([]courseModels.Certificate, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}
	var certs []courseModels.Certificate
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("issue_date desc").
		Order("id desc").
		Find(&certs).Error
	return certs, err
}

func (s *Service) GetCertificate(ctx context.Context, userID, courseID uint) (*courseModels.Certificate, error) {
	if userID == 0 {
		return nil, ErrNotSignedIn
	}
	cert, err := findCertificate(s.db.WithContext(ctx).Preload("Course"), userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCertificateNotFound
	}
	return cert, err
}

// VerifyCertificate looks a certificate up by its public number.
func (s *Service) VerifyCertificate(ctx context.Context, number string) (*Verification, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, ErrCertificateNotFound
	}

	db := s.db.WithContext(ctx)
	var cert courseModels.Certificate
	if err := db.Preload("Course").Where("certificate_number = ?", number).Take(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	v := &Verification{
		CertificateNumber: cert.CertificateNumber,
		CourseID:          cert.CourseID,
		IssueDate:         cert.IssueDate,
	}
	if cert.Course != nil {
		v.CourseTitle = cert.Course.Title
	}
	var holder models.User
	if err := db.Select("name").Where("id = ?", cert.UserID).Take(&holder).Error; err == nil {
		v.HolderName = holder.Name
	}
	return v, nil
}

func findCertificate(tx *gorm.DB, userID, courseID uint) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Take(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// newCertificateNumber returns e.g. RL-2026-3F2A9C0D1B7E4F21.
func newCertificateNumber(issued time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RL-" + issued.Format("2006") + "-" + id[:16]
}

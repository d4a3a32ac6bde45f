package course

import (
	"time"

	"gorm.io/datatypes"
)

// Certificate is the proof of completion for a (user, course) pair.
// Issued once; later requests return the same row.
type Certificate struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	UserID            uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CourseID          uint              `json:"course_id" gorm:"not null;uniqueIndex:idx_certificate_user_course"`
	CertificateNumber string            `json:"certificate_number" gorm:"not null;uniqueIndex"`
	IssueDate         time.Time         `json:"issue_date"`
	Metadata          datatypes.JSONMap `json:"metadata"`
	CreatedAt         time.Time         `json:"created_at"`
	Course            *Course           `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

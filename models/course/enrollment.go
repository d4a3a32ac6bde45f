package course

import "time"

// Enrollment tracks a user's enrollment in a course with progress.
// Completed is true exactly when Progress is 100.
type Enrollment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID     uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	Progress     int       `json:"progress" gorm:"not null;default:0"` // 0-100
	Completed    bool      `json:"completed" gorm:"not null;default:false"`
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Course       *Course   `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

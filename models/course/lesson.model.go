package course

import (
	"time"

	"gorm.io/gorm"
)

// Lesson is a single unit of a course. OrderIndex is unique within a course.
type Lesson struct {
	gorm.Model
	CourseID   uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_lesson_course_order"`
	Title      string `json:"title"`
	Content    string `json:"content" gorm:"type:text"`
	Duration   int    `json:"duration" gorm:"default:0"` // minutes
	OrderIndex int    `json:"order_index" gorm:"not null;uniqueIndex:idx_lesson_course_order"`
	VideoURL   string `json:"video_url,omitempty"`
	IsDeleted  bool   `json:"-" gorm:"default:false"`
}

// LessonProgress records whether a learner completed a lesson. It is not
// scoped by course; the course association goes through the lesson.
type LessonProgress struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID     uint      `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	Completed    bool      `json:"completed" gorm:"not null"`
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LessonProgress) TableName() string { return "user_lesson_progress" }

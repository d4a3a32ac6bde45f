package course

import "gorm.io/gorm"

// Course represents a learning course in the catalog
type Course struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description" gorm:"type:text"`
	Category     string `json:"category" gorm:"index"`
	Level        string `json:"level" gorm:"index"`        // Beginner, Intermediate, Advanced
	Duration     string `json:"duration"`                  // free text, e.g. "6 weeks"
	LessonCount  int    `json:"lessons" gorm:"default:0"`  // maintained when lessons are added
	StudentCount int    `json:"students" gorm:"default:0"` // maintained on enroll/unenroll
	ThumbnailURL string `json:"image"`
	IsPublished  bool   `json:"is_published" gorm:"default:false"`
	IsDeleted    bool   `json:"-" gorm:"default:false"`
}

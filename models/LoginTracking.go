package models

import "time"

// LoginRecord is one sign-in attempt, kept for the profile's login history.
type LoginRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	IPAddress string    `json:"ip_address"`
	Device    string    `json:"device"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

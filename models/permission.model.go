package models

import (
	"gorm.io/gorm"
)

const (
	PermissionEnroll        = "enroll"
	PermissionTrackProgress = "track-progress"
	PermissionCertificates  = "view-certificates"
	PermissionAssistant     = "use-assistant"
	PermissionManageCourses = "manage-courses"
	PermissionDebugTools    = "debug-tools"
)

// Permission grants a single named capability to a user.
type Permission struct {
	gorm.Model
	UserID     uint `gorm:"not null;index"`
	User       User `gorm:"foreignKey:UserID"`
	Role       string
	Permission string `gorm:"type:varchar(255)"` // e.g. "manage-courses"
	IsDeleted  bool   `gorm:"default:false"`
}

// DefaultPermissions returns the permissions seeded for a freshly registered user of role.
func DefaultPermissions(role string) []string {
	perms := []string{
		PermissionEnroll,
		PermissionTrackProgress,
		PermissionCertificates,
		PermissionAssistant,
	}
	if role == RoleAdmin {
		perms = append(perms, PermissionManageCourses, PermissionDebugTools)
	}
	return perms
}

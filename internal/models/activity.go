package models

import (
	"time"

	"gorm.io/datatypes"
)

// Admin actions recorded in the activity log.
const (
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
	ActionAdd    = "ADD"
	ActionEdit   = "EDIT"
	ActionDelete = "DELETE"
)

// ActivityLog captures an auditable action taken by an administrator.
type ActivityLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	AdminName   string            `gorm:"size:255;not null" json:"adminName"`
	AdminEmail  string            `gorm:"size:255" json:"adminEmail"`
	Action      string            `gorm:"size:16;not null;index" json:"action"`
	StudentName string            `gorm:"size:255" json:"studentName"`
	StudentID   *uint             `json:"studentId"`
	Details     string            `gorm:"type:text" json:"details"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

package models

import "time"

// User is an account in the portal: tenants file requests, property
// managers work them. The system user (see sysuser) is a manager-role
// account used to attribute automated actions.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"size:64;uniqueIndex;not null"`
	Email     string `gorm:"size:255"`
	Name      string `gorm:"size:128"`
	Role      Role   `gorm:"size:32;default:TENANT;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

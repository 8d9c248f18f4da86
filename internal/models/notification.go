package models

import "time"

// Notification is a user-facing alert created by the monitoring sweep
// (and other collaborators). Metadata is a JSON blob; SendEmail flags
// the row for the external mailer.
type Notification struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      uint   `gorm:"index;not null"`
	Type        string `gorm:"size:64;not null"`
	Title       string `gorm:"size:255;not null"`
	Message     string `gorm:"type:text"`
	Metadata    string `gorm:"type:json"`
	SendEmail   bool   `gorm:"default:false"`
	UseAITiming bool   `gorm:"default:false"`
	Personalize bool   `gorm:"default:false"`
	Urgency     string `gorm:"size:16;default:MEDIUM"`
	ReadAt      *time.Time
	CreatedAt   time.Time

	User User `gorm:"foreignKey:UserID"`
}

package models

import "time"

// Technician is a worker who can be assigned maintenance requests.
type Technician struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"size:128;not null"`
	Role      TechnicianRole `gorm:"size:32;default:IN_HOUSE"`
	Phone     string         `gorm:"size:32"`
	Email     string         `gorm:"size:255"`
	Active    bool           `gorm:"default:true;index"`
	UserID    *uint
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}

package models

import "time"

// Property is a managed building or complex. Coordinates are optional
// and only used to enrich technician matching.
type Property struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128;not null"`
	Address   string `gorm:"size:255"`
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
	UpdatedAt time.Time

	Units []Unit `gorm:"foreignKey:PropertyID"`
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	PropertyID uint   `gorm:"index;not null"`
	Label      string `gorm:"size:64;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Property Property `gorm:"foreignKey:PropertyID"`
}

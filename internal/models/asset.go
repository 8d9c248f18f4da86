package models

import "time"

// MaintenanceAsset is a piece of equipment at a property, descriptive
// only. Category feeds technician matching.
type MaintenanceAsset struct {
	ID           uint          `gorm:"primaryKey;autoIncrement"`
	PropertyID   uint          `gorm:"index;not null"`
	UnitID       *uint
	Name         string        `gorm:"size:128;not null"`
	Category     AssetCategory `gorm:"size:32;not null"`
	Manufacturer string        `gorm:"size:128"`
	Model        string        `gorm:"size:128"`
	SerialNumber string        `gorm:"size:128"`
	InstallDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Property Property `gorm:"foreignKey:PropertyID"`
	Unit     *Unit    `gorm:"foreignKey:UnitID"`
}

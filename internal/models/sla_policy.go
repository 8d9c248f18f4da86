package models

import "time"

// MaintenanceSlaPolicy defines response/resolution time targets for a
// priority tier. A nil PropertyID marks the global default; a
// property-specific row for the same priority takes precedence.
type MaintenanceSlaPolicy struct {
	ID                    uint     `gorm:"primaryKey;autoIncrement"`
	PropertyID            *uint    `gorm:"uniqueIndex:idx_sla_scope"`
	Priority              Priority `gorm:"size:16;not null;uniqueIndex:idx_sla_scope"`
	ResponseTimeMinutes   *int
	ResolutionTimeMinutes int  `gorm:"not null"`
	Active                bool `gorm:"default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Property *Property `gorm:"foreignKey:PropertyID"`
}

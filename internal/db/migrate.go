package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fairhaven/upkeep/internal/config"
	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Property{},
		&models.Unit{},
		&models.Technician{},
		&models.MaintenanceAsset{},
		&models.MaintenanceSlaPolicy{},
		&models.MaintenanceRequest{},
		&models.MaintenanceRequestHistory{},
		&models.MaintenanceNote{},
		&models.Notification{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedSlaPolicies upserts SLA policy rows from configuration. Seeded
// rows are always marked active; existing rows for the same
// (property, priority) pair get their time targets refreshed.
func SeedSlaPolicies(db *gorm.DB, seeds []config.SlaSeedConfig) error {
	for _, sc := range seeds {
		priority := models.Priority(strings.ToUpper(strings.TrimSpace(sc.Priority)))
		if priority.Rank() < 0 {
			return fmt.Errorf("db: seed sla policy: unknown priority %q", sc.Priority)
		}

		// NULL property_id values compare distinct in the unique
		// index, so global rows are matched by hand instead of with
		// an ON CONFLICT clause.
		scope := db.Where("priority = ?", priority)
		if sc.PropertyID != nil {
			scope = scope.Where("property_id = ?", *sc.PropertyID)
		} else {
			scope = scope.Where("property_id IS NULL")
		}

		var existing models.MaintenanceSlaPolicy
		err := scope.First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"response_time_minutes":   sc.ResponseTimeMinutes,
				"resolution_time_minutes": sc.ResolutionTimeMinutes,
				"active":                  true,
			}
			if err := db.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("db: seed sla policy %s: %w", priority, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			policy := models.MaintenanceSlaPolicy{
				PropertyID:            sc.PropertyID,
				Priority:              priority,
				ResponseTimeMinutes:   sc.ResponseTimeMinutes,
				ResolutionTimeMinutes: sc.ResolutionTimeMinutes,
				Active:                true,
			}
			if err := db.Create(&policy).Error; err != nil {
				return fmt.Errorf("db: seed sla policy %s: %w", priority, err)
			}
		default:
			return fmt.Errorf("db: seed sla policy %s: %w", priority, err)
		}
	}
	return nil
}

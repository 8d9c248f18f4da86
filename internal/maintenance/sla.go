package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/fairhaven/upkeep/internal/models"
)

// SlaTargets holds the deadlines resolved for a new or re-prioritized
// request. All fields are nil when no active policy matches — a
// request may legitimately carry no deadline.
type SlaTargets struct {
	ResolutionDueAt *time.Time
	ResponseDueAt   *time.Time
	PolicyID        *uint
}

// ListSlaPolicies returns active policies visible to a property:
// property-specific rows plus global defaults when a property is
// given, global defaults only otherwise. Property-specific rows order
// ahead of global ones so the first priority match wins precedence.
func (s *Service) ListSlaPolicies(ctx context.Context, propertyID *uint) ([]models.MaintenanceSlaPolicy, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if propertyID != nil {
		q = q.Where("property_id = ? OR property_id IS NULL", *propertyID)
	} else {
		q = q.Where("property_id IS NULL")
	}

	var policies []models.MaintenanceSlaPolicy
	if err := q.Order("property_id DESC").Order(priorityRankExpr + " ASC").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("maintenance: list sla policies: %w", err)
	}
	return policies, nil
}

// ComputeSlaTargets resolves deadlines for a (property, priority) pair
// from "now" plus the matching policy's minutes. Resolution time is
// required on a policy; response time is optional and resolves to nil.
func (s *Service) ComputeSlaTargets(ctx context.Context, propertyID *uint, priority models.Priority) (SlaTargets, error) {
	policies, err := s.ListSlaPolicies(ctx, propertyID)
	if err != nil {
		return SlaTargets{}, err
	}

	for i := range policies {
		p := policies[i]
		if p.Priority != priority {
			continue
		}

		now := time.Now()
		resolution := now.Add(time.Duration(p.ResolutionTimeMinutes) * time.Minute)
		targets := SlaTargets{ResolutionDueAt: &resolution, PolicyID: &p.ID}
		if p.ResponseTimeMinutes != nil {
			response := now.Add(time.Duration(*p.ResponseTimeMinutes) * time.Minute)
			targets.ResponseDueAt = &response
		}
		return targets, nil
	}

	return SlaTargets{}, nil
}

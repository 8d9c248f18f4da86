// Package assist provides AI-backed helpers for the maintenance
// workflow: priority classification, technician matching, and SLA
// breach prediction. Failures never carry an obligation for the caller
// beyond catching them; callers own their fallback behavior.
package assist

import (
	"context"

	"github.com/fairhaven/upkeep/internal/models"
)

// RiskLevel buckets an SLA breach probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// TechnicianMatch is a scored technician recommendation.
type TechnicianMatch struct {
	Technician models.Technician
	Score      float64
	Reasons    []string
}

// BreachPrediction estimates how likely a request is to miss its SLA.
type BreachPrediction struct {
	Probability        float64
	RiskLevel          RiskLevel
	Factors            []string
	RecommendedActions []string
}

// Assist is the adapter interface consumed by the maintenance store
// and the monitoring sweep.
type Assist interface {
	// ClassifyPriority assigns a priority from free-text title and
	// description.
	ClassifyPriority(ctx context.Context, title, description string) (models.Priority, error)

	// MatchTechnician picks the best technician for a request, or
	// (nil, nil) when no active technicians exist.
	MatchTechnician(ctx context.Context, req *models.MaintenanceRequest) (*TechnicianMatch, error)

	// PredictSLABreach estimates breach risk for an open request.
	PredictSLABreach(ctx context.Context, requestID uint) (*BreachPrediction, error)
}

package assist

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fairhaven/upkeep/internal/config"
	"github.com/fairhaven/upkeep/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

// Scoring weights for technician matching.
const (
	weightWorkload  = 0.3
	weightHistory   = 0.3
	weightProximity = 0.2
	weightCategory  = 0.2
)

// Service implements Assist with an OpenAI-backed classifier and
// deterministic, store-driven technician matching and breach
// prediction.
type Service struct {
	db    *gorm.DB
	chat  chatCompleter
	model string
}

// NewService creates an assist Service. The chat client is only
// constructed when AI is enabled and a key is present; otherwise the
// classifier runs in keyword mode.
func NewService(db *gorm.DB, cfg config.AIConfig) *Service {
	s := &Service{db: db, model: cfg.Model}
	if cfg.Enabled && cfg.APIKey != "" {
		s.chat = openai.NewClient(cfg.APIKey)
	} else {
		log.Printf("assist: running without OpenAI client (AI disabled or no key)")
	}
	return s
}

// NewServiceWithClient creates a Service with an injected chat client.
// Exported for testing.
func NewServiceWithClient(db *gorm.DB, chat chatCompleter, model string) *Service {
	return &Service{db: db, chat: chat, model: model}
}

// MatchTechnician scores all active technicians for a request and
// returns the best match, or (nil, nil) when none exist. Scoring
// blends current workload, historical on-time rate for same-priority
// work, proximity, and asset-category experience.
func (s *Service) MatchTechnician(ctx context.Context, req *models.MaintenanceRequest) (*TechnicianMatch, error) {
	var technicians []models.Technician
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&technicians).Error; err != nil {
		return nil, fmt.Errorf("assist: list technicians: %w", err)
	}
	if len(technicians) == 0 {
		return nil, nil
	}

	var best *TechnicianMatch
	for i := range technicians {
		tech := technicians[i]
		var score float64
		var reasons []string

		workload, err := s.activeAssignments(ctx, tech.ID)
		if err != nil {
			return nil, err
		}
		workloadScore := float64(100 - workload*10)
		if workloadScore < 0 {
			workloadScore = 0
		}
		score += workloadScore * weightWorkload
		reasons = append(reasons, fmt.Sprintf("Workload: %d active requests (%.0f points)", workload, workloadScore))

		successRate, err := s.onTimeRate(ctx, tech.ID, req.Priority)
		if err != nil {
			return nil, err
		}
		successScore := successRate * 100
		score += successScore * weightHistory
		reasons = append(reasons, fmt.Sprintf("Success rate: %.0f%% for similar requests (%.0f points)", successRate*100, successScore))

		// Proximity is a flat availability score until travel-time data
		// exists; coordinates only change the reason text.
		proximityScore := 50.0
		score += proximityScore * weightProximity
		if req.Property != nil && req.Property.Latitude != nil && req.Property.Longitude != nil {
			reasons = append(reasons, fmt.Sprintf("Proximity: Available in area (%.0f points)", proximityScore))
		} else {
			reasons = append(reasons, fmt.Sprintf("Proximity: Unknown location (%.0f points)", proximityScore))
		}

		if req.Asset != nil && req.Asset.Category != "" {
			matched, err := s.hasCategoryExperience(ctx, tech.ID, req.Asset.Category)
			if err != nil {
				return nil, err
			}
			categoryScore := 50.0
			label := "No"
			if matched {
				categoryScore = 100
				label = "Yes"
			}
			score += categoryScore * weightCategory
			reasons = append(reasons, fmt.Sprintf("Category match: %s (%.0f points)", label, categoryScore))
		} else {
			score += 50 * weightCategory
			reasons = append(reasons, "Category match: N/A (50 points)")
		}

		if best == nil || score > best.Score {
			best = &TechnicianMatch{Technician: tech, Score: score, Reasons: reasons}
		}
	}

	return best, nil
}

// activeAssignments counts a technician's PENDING and IN_PROGRESS requests.
func (s *Service) activeAssignments(ctx context.Context, technicianID uint) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("assignee_id = ? AND status IN ?", technicianID,
			[]models.Status{models.StatusPending, models.StatusInProgress}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("assist: count assignments for technician %d: %w", technicianID, err)
	}
	return int(count), nil
}

// onTimeRate returns the fraction of a technician's recent completed
// same-priority requests that finished before their deadline. Without
// history it returns 0.5.
func (s *Service) onTimeRate(ctx context.Context, technicianID uint, priority models.Priority) (float64, error) {
	var completed []models.MaintenanceRequest
	err := s.db.WithContext(ctx).
		Where("assignee_id = ? AND status = ? AND priority = ?", technicianID, models.StatusCompleted, priority).
		Limit(20).Find(&completed).Error
	if err != nil {
		return 0, fmt.Errorf("assist: completed requests for technician %d: %w", technicianID, err)
	}
	if len(completed) == 0 {
		return 0.5, nil
	}

	onTime := 0
	for _, r := range completed {
		if r.CompletedAt != nil && r.DueAt != nil && !r.CompletedAt.After(*r.DueAt) {
			onTime++
		}
	}
	return float64(onTime) / float64(len(completed)), nil
}

// hasCategoryExperience reports whether the technician has completed
// any request for an asset of the given category.
func (s *Service) hasCategoryExperience(ctx context.Context, technicianID uint, category models.AssetCategory) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Joins("JOIN maintenance_assets ON maintenance_assets.id = maintenance_requests.asset_id").
		Where("maintenance_requests.assignee_id = ? AND maintenance_requests.status = ? AND maintenance_assets.category = ?",
			technicianID, models.StatusCompleted, category).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("assist: category history for technician %d: %w", technicianID, err)
	}
	return count > 0, nil
}

// PredictSLABreach computes an additive risk score for a request from
// deadline proximity, age, priority, assignee workload, and the
// property's historical breach rate, normalized to a probability.
func (s *Service) PredictSLABreach(ctx context.Context, requestID uint) (*BreachPrediction, error) {
	var req models.MaintenanceRequest
	if err := s.db.WithContext(ctx).First(&req, requestID).Error; err != nil {
		return nil, fmt.Errorf("assist: predict breach for request %d: %w", requestID, err)
	}

	var factors []string
	riskScore := 0.0
	now := time.Now()

	if req.DueAt != nil {
		hoursRemaining := req.DueAt.Sub(now).Hours()
		switch {
		case hoursRemaining < 0:
			riskScore += 100
			factors = append(factors, "SLA deadline has already passed")
		case hoursRemaining < 24:
			riskScore += 80
			factors = append(factors, fmt.Sprintf("Less than 24 hours remaining (%.1fh)", hoursRemaining))
		case hoursRemaining < 48:
			riskScore += 50
			factors = append(factors, fmt.Sprintf("Less than 48 hours remaining (%.1fh)", hoursRemaining))
		default:
			riskScore += 20
			factors = append(factors, fmt.Sprintf("Adequate time remaining (%.1fh)", hoursRemaining))
		}
	}

	daysOld := now.Sub(req.CreatedAt).Hours() / 24
	if daysOld > 7 {
		riskScore += 30
		factors = append(factors, fmt.Sprintf("Request is %.1f days old", daysOld))
	}

	if req.Priority == models.PriorityHigh || req.Priority == models.PriorityEmergency {
		riskScore += 20
		factors = append(factors, "High priority request")
	}

	if req.AssigneeID != nil {
		active, err := s.activeAssignments(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		if active > 10 {
			riskScore += 25
			factors = append(factors, fmt.Sprintf("Technician has %d active assignments", active))
		} else if active > 5 {
			riskScore += 15
			factors = append(factors, fmt.Sprintf("Technician has %d active assignments", active))
		}
	} else {
		riskScore += 30
		factors = append(factors, "No technician assigned yet")
	}

	if req.PropertyID != nil {
		breachRate, sampled, err := s.propertyBreachRate(ctx, *req.PropertyID, req.Priority)
		if err != nil {
			return nil, err
		}
		if sampled && breachRate > 0.5 {
			riskScore += 20
			factors = append(factors, fmt.Sprintf("Historical breach rate: %.0f%% for similar requests", breachRate*100))
		}
	}

	probability := riskScore / 100
	if probability > 1 {
		probability = 1
	}

	var riskLevel RiskLevel
	switch {
	case probability >= 0.8:
		riskLevel = RiskCritical
	case probability >= 0.6:
		riskLevel = RiskHigh
	case probability >= 0.4:
		riskLevel = RiskMedium
	default:
		riskLevel = RiskLow
	}

	var actions []string
	if req.AssigneeID == nil {
		actions = append(actions, "Assign a technician immediately")
	}
	if probability > 0.6 {
		actions = append(actions, "Escalate to property manager", "Notify tenant of potential delay")
	}
	if req.Priority != models.PriorityHigh && req.Priority != models.PriorityEmergency && probability > 0.7 {
		actions = append(actions, "Consider upgrading priority level")
	}

	return &BreachPrediction{
		Probability:        probability,
		RiskLevel:          riskLevel,
		Factors:            factors,
		RecommendedActions: actions,
	}, nil
}

// propertyBreachRate returns the fraction of recent completed
// same-priority requests at a property that missed their deadline.
// sampled is false when no history exists.
func (s *Service) propertyBreachRate(ctx context.Context, propertyID uint, priority models.Priority) (rate float64, sampled bool, err error) {
	var similar []models.MaintenanceRequest
	qerr := s.db.WithContext(ctx).
		Where("property_id = ? AND priority = ? AND status = ?", propertyID, priority, models.StatusCompleted).
		Limit(10).Find(&similar).Error
	if qerr != nil {
		return 0, false, fmt.Errorf("assist: breach history for property %d: %w", propertyID, qerr)
	}
	if len(similar) == 0 {
		return 0, false, nil
	}

	breached := 0
	for _, r := range similar {
		if r.CompletedAt != nil && r.DueAt != nil && r.CompletedAt.After(*r.DueAt) {
			breached++
		}
	}
	return float64(breached) / float64(len(similar)), true, nil
}

// Package monitor runs the hourly SLA breach sweep: predict risk for
// open requests, alert property managers, and auto-escalate the worst
// cases. Cycle failures are logged and swallowed so one bad prediction
// never stops the loop.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fairhaven/upkeep/internal/assist"
	"github.com/fairhaven/upkeep/internal/config"
	"github.com/fairhaven/upkeep/internal/maintenance"
	"github.com/fairhaven/upkeep/internal/metrics"
	"github.com/fairhaven/upkeep/internal/models"
	"github.com/fairhaven/upkeep/internal/notify"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const defaultEscalationProbability = 0.8

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SweepResult summarizes one completed sweep cycle.
type SweepResult struct {
	Checked   int
	AtRisk    int
	Notified  int
	Escalated int
}

// Monitor owns the SLA sweep loop.
type Monitor struct {
	db      *gorm.DB
	store   *maintenance.Service
	assist  assist.Assist
	notify  *notify.Service
	metrics *metrics.Recorder

	escalationProbability float64

	// Guards against overlapping sweeps when a cycle outlasts the
	// schedule interval.
	mu      sync.Mutex
	running bool
}

// New creates a Monitor.
func New(db *gorm.DB, store *maintenance.Service, as assist.Assist, ns *notify.Service, rec *metrics.Recorder, cfg config.MonitorConfig) *Monitor {
	threshold := cfg.EscalationProbability
	if threshold <= 0 || threshold > 1 {
		threshold = defaultEscalationProbability
	}
	return &Monitor{
		db:                    db,
		store:                 store,
		assist:                as,
		notify:                ns,
		metrics:               rec,
		escalationProbability: threshold,
	}
}

// RunDaemon runs sweeps on the configured cron schedule until ctx is
// cancelled. Sweep errors are logged and the loop continues.
func (m *Monitor) RunDaemon(ctx context.Context, schedule string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("monitor: parse schedule %q: %w", schedule, err)
	}

	fmt.Fprintf(out, "SLA monitor starting (schedule %q)...\n", schedule)

	for {
		next := sched.Next(time.Now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			fmt.Fprintf(out, "SLA monitor stopped.\n")
			return nil
		case <-timer.C:
		}

		res, err := m.SweepOnce(ctx)
		if err != nil {
			log.Printf("monitor: sweep error: %v", err)
			continue
		}
		fmt.Fprintf(out, "Sweep complete: checked=%d atRisk=%d notified=%d escalated=%d\n",
			res.Checked, res.AtRisk, res.Notified, res.Escalated)
	}
}

// SweepOnce runs a single sweep cycle. If a sweep is already in
// progress it returns immediately with an empty result.
func (m *Monitor) SweepOnce(ctx context.Context) (SweepResult, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		log.Printf("monitor: sweep already running, skipping")
		return SweepResult{}, nil
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	var res SweepResult

	candidates, err := m.candidates(ctx)
	if err != nil {
		return res, err
	}
	res.Checked = len(candidates)

	managers, err := m.managers(ctx)
	if err != nil {
		return res, err
	}
	if len(managers) == 0 {
		log.Printf("monitor: no property managers to notify")
	}

	for i := range candidates {
		req := &candidates[i]

		start := time.Now()
		prediction, err := m.assist.PredictSLABreach(ctx, req.ID)
		if err != nil {
			m.record(metrics.Metric{
				Operation:    metrics.OpPredictSLABreach,
				Success:      false,
				ResponseTime: time.Since(start),
				RequestID:    req.ID,
				Error:        err.Error(),
			})
			log.Printf("monitor: predict request %d: %v", req.ID, err)
			continue
		}
		m.record(metrics.Metric{
			Operation:    metrics.OpPredictSLABreach,
			Success:      true,
			ResponseTime: time.Since(start),
			RequestID:    req.ID,
		})

		if prediction.RiskLevel != assist.RiskHigh && prediction.RiskLevel != assist.RiskCritical {
			continue
		}
		res.AtRisk++

		res.Notified += m.alertManagers(ctx, req, prediction, managers)

		if prediction.RiskLevel == assist.RiskCritical || prediction.Probability > m.escalationProbability {
			if err := m.escalate(ctx, req, prediction); err != nil {
				log.Printf("monitor: escalate request %d: %v", req.ID, err)
			} else {
				res.Escalated++
			}
		}
	}

	return res, nil
}

// candidates returns the open requests worth predicting: everything in
// progress, plus pending requests already marked HIGH.
func (m *Monitor) candidates(ctx context.Context) ([]models.MaintenanceRequest, error) {
	var requests []models.MaintenanceRequest
	err := m.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND priority = ?)",
			models.StatusInProgress, models.StatusPending, models.PriorityHigh).
		Order("due_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("monitor: load candidates: %w", err)
	}
	return requests, nil
}

func (m *Monitor) managers(ctx context.Context) ([]models.User, error) {
	var managers []models.User
	err := m.db.WithContext(ctx).
		Where("role = ?", models.RolePropertyManager).
		Find(&managers).Error
	if err != nil {
		return nil, fmt.Errorf("monitor: load managers: %w", err)
	}
	return managers, nil
}

// alertManagers persists one notification per manager and broadcasts a
// single chat alert. Returns the number of notifications created.
func (m *Monitor) alertManagers(ctx context.Context, req *models.MaintenanceRequest, p *assist.BreachPrediction, managers []models.User) int {
	critical := p.RiskLevel == assist.RiskCritical

	urgency := "MEDIUM"
	if critical {
		urgency = "HIGH"
	}

	title := fmt.Sprintf("SLA Breach Risk: Request #%d", req.ID)
	message := breachMessage(req, p)

	sent := 0
	for _, mgr := range managers {
		_, err := m.notify.Create(ctx, notify.CreateOpts{
			UserID:  mgr.ID,
			Type:    notify.TypeMaintenanceSlaBreach,
			Title:   title,
			Message: message,
			Metadata: map[string]interface{}{
				"requestId":   req.ID,
				"probability": p.Probability,
				"riskLevel":   string(p.RiskLevel),
			},
			SendEmail:   critical,
			UseAITiming: true,
			Personalize: true,
			Urgency:     urgency,
		})
		if err != nil {
			log.Printf("monitor: notify manager %d about request %d: %v", mgr.ID, req.ID, err)
			continue
		}
		sent++
	}

	if len(managers) > 0 {
		m.notify.Broadcast(ctx, notify.Alert{
			Title:   title,
			Message: message,
			Urgency: urgency,
		})
	}
	return sent
}

func (m *Monitor) escalate(ctx context.Context, req *models.MaintenanceRequest, p *assist.BreachPrediction) error {
	_, err := m.store.Escalate(ctx, req.ID, maintenance.EscalateOpts{
		Reason:  fmt.Sprintf("SLA breach risk at %.0f%% (%s)", p.Probability*100, p.RiskLevel),
		Factors: p.Factors,
	})
	return err
}

func breachMessage(req *models.MaintenanceRequest, p *assist.BreachPrediction) string {
	factors := p.Factors
	if len(factors) > 3 {
		factors = factors[:3]
	}
	actions := p.RecommendedActions
	if len(actions) > 2 {
		actions = actions[:2]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Maintenance Request #%d %q has %.1f%% risk of SLA breach (%s risk).",
		req.ID, req.Title, p.Probability*100, p.RiskLevel)
	if len(factors) > 0 {
		fmt.Fprintf(&b, " Factors: %s.", strings.Join(factors, ", "))
	}
	if len(actions) > 0 {
		fmt.Fprintf(&b, " Recommended: %s.", strings.Join(actions, ", "))
	}
	return b.String()
}

func (m *Monitor) record(metric metrics.Metric) {
	if m.metrics != nil {
		m.metrics.Record(metric)
	}
}

// Package maintenance implements the maintenance-request store: CRUD
// with a full audit trail, SLA deadline resolution, AI-assisted
// priority and technician assignment, and escalation.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fairhaven/upkeep/internal/assist"
	"github.com/fairhaven/upkeep/internal/metrics"
	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/gorm"
)

// maxNoteLength caps free-text note bodies.
const maxNoteLength = 1000

// SystemUserSource resolves the actor identity used to attribute
// automated actions in the history trail.
type SystemUserSource interface {
	SystemUserID(ctx context.Context) (uint, error)
}

// Service is the maintenance-request store. The metrics recorder is
// optional; a nil recorder disables AI-call observability only.
type Service struct {
	db      *gorm.DB
	assist  assist.Assist
	system  SystemUserSource
	metrics *metrics.Recorder
}

// NewService creates a maintenance Service.
func NewService(db *gorm.DB, ai assist.Assist, system SystemUserSource, rec *metrics.Recorder) *Service {
	return &Service{db: db, assist: ai, system: system, metrics: rec}
}

// CreateOpts holds parameters for filing a new request. Priority is
// the caller's raw string; when empty, the AI classifier decides.
type CreateOpts struct {
	Title       string
	Description string
	Priority    string
	PropertyID  *uint
	UnitID      *uint
	AssetID     *uint
}

// ListFilters holds optional filters for the manager-facing listing.
// Page is 1-based; PageSize is clamped to [1,100] with a default of 25.
type ListFilters struct {
	Status     models.Status
	Priority   models.Priority
	PropertyID *uint
	UnitID     *uint
	AssigneeID *uint
	Page       int
	PageSize   int
}

// UpdateStatusOpts holds parameters for a status transition.
type UpdateStatusOpts struct {
	Status models.Status
	Note   string
}

// AssignOpts holds parameters for technician assignment. A nil
// TechnicianID asks the AI matcher to choose.
type AssignOpts struct {
	TechnicianID *uint
}

// EscalateOpts holds parameters for an automated escalation.
type EscalateOpts struct {
	Reason  string
	Factors []string
}

// Rank expressions keep list ordering semantic (workflow stage, then
// urgency) instead of lexical on the stored enum strings.
const (
	statusRankExpr   = "CASE status WHEN 'PENDING' THEN 0 WHEN 'IN_PROGRESS' THEN 1 WHEN 'COMPLETED' THEN 2 ELSE 3 END"
	priorityRankExpr = "CASE priority WHEN 'EMERGENCY' THEN 3 WHEN 'HIGH' THEN 2 WHEN 'MEDIUM' THEN 1 WHEN 'LOW' THEN 0 ELSE -1 END"
)

// Create files a new request for a user. When no priority is supplied
// the AI classifier decides; on classifier failure the keyword
// fallback is used and a fallback metric recorded — creation itself
// never fails on AI instability. SLA targets are resolved from the
// final priority.
func (s *Service) Create(ctx context.Context, userID uint, opts CreateOpts) (*models.MaintenanceRequest, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, validationf("title is required")
	}

	var priority models.Priority
	aiPriorityUsed := false

	if opts.Priority != "" {
		parsed, err := ParsePriority(opts.Priority)
		if err != nil {
			return nil, err
		}
		priority = parsed
	} else {
		start := time.Now()
		classified, err := s.assist.ClassifyPriority(ctx, opts.Title, opts.Description)
		if err != nil {
			log.Printf("maintenance: AI priority assignment failed for %q, using fallback: %v", opts.Title, err)
			fallbackStart := time.Now()
			priority = FallbackPriority(opts.Title, opts.Description)
			s.record(metrics.Metric{
				Operation:    metrics.OpAssignPriority,
				Success:      true, // the fallback succeeded
				ResponseTime: time.Since(fallbackStart),
				FallbackUsed: true,
				Error:        err.Error(),
			})
		} else {
			priority = classified
			aiPriorityUsed = true
			s.record(metrics.Metric{
				Operation:    metrics.OpAssignPriority,
				Success:      true,
				ResponseTime: time.Since(start),
			})
		}
	}

	if priority == "" {
		priority = models.PriorityMedium
	}

	targets, err := s.ComputeSlaTargets(ctx, opts.PropertyID, priority)
	if err != nil {
		return nil, err
	}

	req := models.MaintenanceRequest{
		Title:         opts.Title,
		Description:   opts.Description,
		Priority:      priority,
		Status:        models.StatusPending,
		DueAt:         targets.ResolutionDueAt,
		ResponseDueAt: targets.ResponseDueAt,
		SlaPolicyID:   targets.PolicyID,
		AuthorID:      userID,
		PropertyID:    opts.PropertyID,
		UnitID:        opts.UnitID,
		AssetID:       opts.AssetID,
	}
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, fmt.Errorf("maintenance: create request: %w", err)
	}

	note := "Request created"
	if aiPriorityUsed {
		note = fmt.Sprintf("Request created with AI-assigned priority: %s", priority)
	}
	if err := s.recordHistory(ctx, req.ID, historyEntry{
		toStatus:    &req.Status,
		note:        note,
		changedByID: &userID,
	}); err != nil {
		return nil, err
	}

	return s.FindByID(ctx, req.ID)
}

// FindByID loads a request with its full relations.
func (s *Service) FindByID(ctx context.Context, id uint) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	err := s.withIncludes(s.db.WithContext(ctx)).First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("maintenance: find request %d: %w", id, err)
	}
	return &req, nil
}

// FindAllForUser returns a user's own requests, newest first.
func (s *Service) FindAllForUser(ctx context.Context, userID uint) ([]models.MaintenanceRequest, error) {
	var reqs []models.MaintenanceRequest
	err := s.withIncludes(s.db.WithContext(ctx)).
		Where("author_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("maintenance: list requests for user %d: %w", userID, err)
	}
	return reqs, nil
}

// FindAll is the manager-facing listing: filtered, paginated, grouped
// by workflow stage with the most urgent and most overdue first.
func (s *Service) FindAll(ctx context.Context, filters ListFilters) ([]models.MaintenanceRequest, error) {
	q := s.withIncludes(s.db.WithContext(ctx))

	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.PropertyID != nil {
		q = q.Where("property_id = ?", *filters.PropertyID)
	}
	if filters.UnitID != nil {
		q = q.Where("unit_id = ?", *filters.UnitID)
	}
	if filters.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filters.AssigneeID)
	}

	pageSize := filters.PageSize
	if pageSize == 0 {
		pageSize = 25
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}

	var reqs []models.MaintenanceRequest
	err := q.Order(statusRankExpr + " ASC").
		Order(priorityRankExpr + " DESC").
		Order("due_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("maintenance: list requests: %w", err)
	}
	return reqs, nil
}

// UpdateStatus transitions a request to the given status. The first
// transition into IN_PROGRESS stamps acknowledgedAt; every transition
// into COMPLETED refreshes completedAt. Transitions are deliberately
// not validated against a strict ordering — completed requests may be
// reopened. A history row is always appended; a supplied note is also
// persisted as a MaintenanceNote authored by the actor.
func (s *Service) UpdateStatus(ctx context.Context, id uint, opts UpdateStatusOpts, actorID uint) (*models.MaintenanceRequest, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": opts.Status}
	now := time.Now()
	if opts.Status == models.StatusInProgress && existing.AcknowledgedAt == nil {
		updates["acknowledged_at"] = now
	}
	if opts.Status == models.StatusCompleted {
		updates["completed_at"] = now
	}

	if err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("maintenance: update status of request %d: %w", id, err)
	}

	if err := s.recordHistory(ctx, id, historyEntry{
		fromStatus:     &existing.Status,
		toStatus:       &opts.Status,
		fromAssigneeID: existing.AssigneeID,
		toAssigneeID:   existing.AssigneeID,
		note:           opts.Note,
		changedByID:    &actorID,
	}); err != nil {
		return nil, err
	}

	if opts.Note != "" {
		if _, err := s.AddNote(ctx, id, opts.Note, actorID); err != nil {
			return nil, err
		}
	}

	return s.FindByID(ctx, id)
}

// AssignTechnician sets the request's assignee. With no explicit
// technician the AI matcher chooses and a metric is recorded; a failed
// or empty match surfaces as a validation error rather than silently
// leaving the request unassigned. Re-assigning the current assignee is
// a no-op that performs zero writes.
func (s *Service) AssignTechnician(ctx context.Context, id uint, opts AssignOpts, actorID uint) (*models.MaintenanceRequest, error) {
	var existing models.MaintenanceRequest
	err := s.db.WithContext(ctx).Preload("Property").Preload("Asset").First(&existing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("maintenance: find request %d: %w", id, err)
	}

	technicianID := opts.TechnicianID
	aiAssignmentUsed := false
	var matchScore float64
	var matchReasons []string

	if technicianID == nil {
		start := time.Now()
		match, err := s.assist.MatchTechnician(ctx, &existing)
		if err != nil {
			log.Printf("maintenance: AI technician assignment failed for request %d: %v", id, err)
			return nil, validationf("technician assignment required: AI assignment failed; please provide a technician ID")
		}
		if match == nil {
			return nil, validationf("no suitable technician found; please assign manually or ensure technicians are available")
		}

		technicianID = &match.Technician.ID
		matchScore = match.Score
		matchReasons = match.Reasons
		aiAssignmentUsed = true
		log.Printf("maintenance: AI assigned technician %s (id %d) to request %d with score %.1f",
			match.Technician.Name, match.Technician.ID, id, match.Score)
		s.record(metrics.Metric{
			Operation:    metrics.OpAssignTechnician,
			Success:      true,
			ResponseTime: time.Since(start),
			RequestID:    id,
		})
	}

	if sameAssignee(existing.AssigneeID, technicianID) {
		return s.FindByID(ctx, id)
	}

	if err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("id = ?", id).Update("assignee_id", technicianID).Error; err != nil {
		return nil, fmt.Errorf("maintenance: assign technician on request %d: %w", id, err)
	}

	note := "Technician assigned"
	if aiAssignmentUsed {
		note = fmt.Sprintf("Technician assigned via AI (score: %.1f). Reasons: %s",
			matchScore, strings.Join(matchReasons, "; "))
	}
	if err := s.recordHistory(ctx, id, historyEntry{
		fromStatus:     &existing.Status,
		toStatus:       &existing.Status,
		fromAssigneeID: existing.AssigneeID,
		toAssigneeID:   technicianID,
		note:           note,
		changedByID:    &actorID,
	}); err != nil {
		return nil, err
	}

	return s.FindByID(ctx, id)
}

// Escalate bumps a request's priority one tier (capped below
// EMERGENCY, which only a human may set), re-resolves its SLA targets,
// and appends an escalation note and history row attributed to the
// system user so automated actions stay visible in the audit trail.
func (s *Service) Escalate(ctx context.Context, id uint, opts EscalateOpts) (*models.MaintenanceRequest, error) {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newPriority models.Priority
	switch existing.Priority {
	case models.PriorityLow:
		newPriority = models.PriorityMedium
	case models.PriorityMedium:
		newPriority = models.PriorityHigh
	case models.PriorityHigh:
		newPriority = models.PriorityHigh
	case models.PriorityEmergency:
		newPriority = models.PriorityEmergency
	default:
		newPriority = models.PriorityMedium
	}

	targets, err := s.ComputeSlaTargets(ctx, existing.PropertyID, newPriority)
	if err != nil {
		return nil, err
	}

	escalationNote := "ESCALATED: " + opts.Reason
	if len(opts.Factors) > 0 {
		escalationNote += "\nFactors: " + strings.Join(opts.Factors, ", ")
	}

	updates := map[string]interface{}{
		"priority":        newPriority,
		"due_at":          targets.ResolutionDueAt,
		"response_due_at": targets.ResponseDueAt,
		"sla_policy_id":   targets.PolicyID,
	}
	if err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("maintenance: escalate request %d: %w", id, err)
	}

	systemUserID, err := s.system.SystemUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("maintenance: escalate request %d: %w", id, err)
	}

	if err := s.recordHistory(ctx, id, historyEntry{
		fromStatus:  &existing.Status,
		toStatus:    &existing.Status,
		note:        escalationNote,
		changedByID: &systemUserID,
	}); err != nil {
		return nil, err
	}

	// Note creation is best-effort; the escalation itself stands.
	if _, err := s.AddNote(ctx, id, escalationNote, systemUserID); err != nil {
		log.Printf("maintenance: failed to add escalation note for request %d: %v", id, err)
	}

	log.Printf("maintenance: escalated request %d from %s to %s: %s",
		id, existing.Priority, newPriority, opts.Reason)

	return s.FindByID(ctx, id)
}

// AddNote appends a free-text note to a request.
func (s *Service) AddNote(ctx context.Context, requestID uint, body string, authorID uint) (*models.MaintenanceNote, error) {
	if strings.TrimSpace(body) == "" {
		return nil, validationf("note body is required")
	}
	if len(body) > maxNoteLength {
		return nil, validationf("note body exceeds %d characters", maxNoteLength)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("id = ?", requestID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("maintenance: check request %d: %w", requestID, err)
	}
	if count == 0 {
		return nil, &NotFoundError{Resource: "request", ID: requestID}
	}

	note := models.MaintenanceNote{
		RequestID: requestID,
		AuthorID:  authorID,
		Body:      body,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("maintenance: add note to request %d: %w", requestID, err)
	}
	return &note, nil
}

// ListTechnicians returns active technicians ordered by name.
func (s *Service) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	var technicians []models.Technician
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&technicians).Error
	if err != nil {
		return nil, fmt.Errorf("maintenance: list technicians: %w", err)
	}
	return technicians, nil
}

// TechnicianOpts holds parameters for registering a technician. Role
// is the caller's raw string and defaults to IN_HOUSE.
type TechnicianOpts struct {
	Name   string
	Phone  string
	Email  string
	Role   string
	UserID *uint
}

// CreateTechnician registers a new technician.
func (s *Service) CreateTechnician(ctx context.Context, opts TechnicianOpts) (*models.Technician, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return nil, validationf("technician name is required")
	}

	role := models.TechnicianInHouse
	if opts.Role != "" {
		parsed, err := ParseTechnicianRole(opts.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	tech := models.Technician{
		Name:   opts.Name,
		Phone:  opts.Phone,
		Email:  opts.Email,
		Role:   role,
		Active: true,
		UserID: opts.UserID,
	}
	if err := s.db.WithContext(ctx).Create(&tech).Error; err != nil {
		return nil, fmt.Errorf("maintenance: create technician: %w", err)
	}
	return &tech, nil
}

// ListAssets returns assets, optionally scoped to a property or unit,
// ordered by name.
func (s *Service) ListAssets(ctx context.Context, propertyID, unitID *uint) ([]models.MaintenanceAsset, error) {
	q := s.db.WithContext(ctx)
	if propertyID != nil {
		q = q.Where("property_id = ?", *propertyID)
	}
	if unitID != nil {
		q = q.Where("unit_id = ?", *unitID)
	}

	var assets []models.MaintenanceAsset
	if err := q.Order("name ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("maintenance: list assets: %w", err)
	}
	return assets, nil
}

// AssetOpts holds parameters for registering an asset. Category is the
// caller's raw string; InstallDate is optional RFC 3339 or date-only.
type AssetOpts struct {
	PropertyID   uint
	UnitID       *uint
	Name         string
	Category     string
	Manufacturer string
	Model        string
	SerialNumber string
	InstallDate  string
}

// CreateAsset registers a new asset.
func (s *Service) CreateAsset(ctx context.Context, opts AssetOpts) (*models.MaintenanceAsset, error) {
	if opts.PropertyID == 0 {
		return nil, validationf("asset property is required")
	}
	if strings.TrimSpace(opts.Name) == "" {
		return nil, validationf("asset name is required")
	}
	if opts.Category == "" {
		return nil, validationf("asset category is required")
	}
	category, err := ParseAssetCategory(opts.Category)
	if err != nil {
		return nil, err
	}
	installDate, err := parseOptionalDate(opts.InstallDate, "installDate")
	if err != nil {
		return nil, err
	}

	asset := models.MaintenanceAsset{
		PropertyID:   opts.PropertyID,
		UnitID:       opts.UnitID,
		Name:         opts.Name,
		Category:     category,
		Manufacturer: opts.Manufacturer,
		Model:        opts.Model,
		SerialNumber: opts.SerialNumber,
		InstallDate:  installDate,
	}
	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		return nil, fmt.Errorf("maintenance: create asset: %w", err)
	}
	return &asset, nil
}

// parseOptionalDate accepts RFC 3339 timestamps or bare dates.
func parseOptionalDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, validationf("invalid %s supplied", field)
}

// sameAssignee compares possibly-nil assignee IDs.
func sameAssignee(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// withIncludes preloads the relations returned with every request.
func (s *Service) withIncludes(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Property").
		Preload("Unit").
		Preload("Asset").
		Preload("Assignee").
		Preload("SlaPolicy").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Notes.Author").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("History.ChangedBy").
		Preload("History.FromAssignee").
		Preload("History.ToAssignee")
}

// historyEntry describes one append-only audit row.
type historyEntry struct {
	fromStatus     *models.Status
	toStatus       *models.Status
	fromAssigneeID *uint
	toAssigneeID   *uint
	note           string
	changedByID    *uint
}

// recordHistory appends an audit row for a state-changing operation.
func (s *Service) recordHistory(ctx context.Context, requestID uint, e historyEntry) error {
	row := models.MaintenanceRequestHistory{
		RequestID:      requestID,
		FromStatus:     e.fromStatus,
		ToStatus:       e.toStatus,
		FromAssigneeID: e.fromAssigneeID,
		ToAssigneeID:   e.toAssigneeID,
		Note:           e.note,
		ChangedByID:    e.changedByID,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("maintenance: record history for request %d: %w", requestID, err)
	}
	return nil
}

// record appends a metric when a recorder is configured.
func (s *Service) record(m metrics.Metric) {
	if s.metrics != nil {
		s.metrics.Record(m)
	}
}

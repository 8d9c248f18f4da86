package assist

import (
	"context"
	"testing"
	"time"

	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.MaintenanceRequest{},
		&models.Technician{},
		&models.MaintenanceAsset{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedTech(t *testing.T, db *gorm.DB, name string, active bool) models.Technician {
	t.Helper()
	tech := models.Technician{Name: name, Role: models.TechnicianInHouse, Active: active}
	if err := db.Create(&tech).Error; err != nil {
		t.Fatalf("seed technician: %v", err)
	}
	return tech
}

func seedRequest(t *testing.T, db *gorm.DB, req models.MaintenanceRequest) models.MaintenanceRequest {
	t.Helper()
	if req.AuthorID == 0 {
		req.AuthorID = 1
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if err := db.Create(&req).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func timePtr(t time.Time) *time.Time { return &t }

func TestMatchTechnician_NoTechnicians(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")

	match, err := svc.MatchTechnician(context.Background(), &models.MaintenanceRequest{})
	if err != nil {
		t.Fatalf("MatchTechnician: %v", err)
	}
	if match != nil {
		t.Errorf("match = %+v, want nil with no technicians", match)
	}
}

func TestMatchTechnician_IgnoresInactive(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")
	active := seedTech(t, db, "Pat", true)
	seedTech(t, db, "Quinn", false)

	match, err := svc.MatchTechnician(context.Background(), &models.MaintenanceRequest{Priority: models.PriorityMedium})
	if err != nil {
		t.Fatalf("MatchTechnician: %v", err)
	}
	if match == nil || match.Technician.ID != active.ID {
		t.Fatalf("match = %+v, want active technician %d", match, active.ID)
	}
	if len(match.Reasons) == 0 {
		t.Error("match has no reasons")
	}
}

func TestMatchTechnician_PrefersLighterWorkload(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")
	busy := seedTech(t, db, "Busy", true)
	free := seedTech(t, db, "Free", true)

	for i := 0; i < 5; i++ {
		seedRequest(t, db, models.MaintenanceRequest{
			Title:      "Open work",
			Status:     models.StatusInProgress,
			AssigneeID: &busy.ID,
		})
	}

	match, err := svc.MatchTechnician(context.Background(), &models.MaintenanceRequest{Priority: models.PriorityMedium})
	if err != nil {
		t.Fatalf("MatchTechnician: %v", err)
	}
	if match.Technician.ID != free.ID {
		t.Errorf("matched %s, want the idle technician", match.Technician.Name)
	}
}

func TestMatchTechnician_CategoryExperienceBreaksTies(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")
	novice := seedTech(t, db, "Novice", true)
	expert := seedTech(t, db, "Expert", true)
	_ = novice

	asset := models.MaintenanceAsset{PropertyID: 1, Name: "Boiler", Category: models.AssetHVAC}
	if err := db.Create(&asset).Error; err != nil {
		t.Fatal(err)
	}
	// Expert completed an HVAC job on time; same-priority history keeps
	// the success-rate term from penalizing the tie-break.
	now := time.Now()
	seedRequest(t, db, models.MaintenanceRequest{
		Title:       "Old HVAC fix",
		Priority:    models.PriorityHigh,
		Status:      models.StatusCompleted,
		AssigneeID:  &expert.ID,
		AssetID:     &asset.ID,
		DueAt:       timePtr(now.Add(time.Hour)),
		CompletedAt: timePtr(now),
	})

	req := models.MaintenanceRequest{
		Priority: models.PriorityHigh,
		Asset:    &asset,
	}
	match, err := svc.MatchTechnician(context.Background(), &req)
	if err != nil {
		t.Fatalf("MatchTechnician: %v", err)
	}
	if match.Technician.ID != expert.ID {
		t.Errorf("matched %s, want the HVAC-experienced technician", match.Technician.Name)
	}
}

func TestPredictSLABreach_OverdueUnassignedIsCritical(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")

	req := seedRequest(t, db, models.MaintenanceRequest{
		Title:    "Burst pipe",
		Priority: models.PriorityHigh,
		Status:   models.StatusPending,
		DueAt:    timePtr(time.Now().Add(-2 * time.Hour)),
	})

	p, err := svc.PredictSLABreach(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("PredictSLABreach: %v", err)
	}
	// Overdue (100) + high priority (20) + unassigned (30) saturates.
	if p.Probability != 1 {
		t.Errorf("probability = %v, want 1", p.Probability)
	}
	if p.RiskLevel != RiskCritical {
		t.Errorf("risk = %s, want CRITICAL", p.RiskLevel)
	}
	if len(p.Factors) == 0 {
		t.Error("no factors reported")
	}

	wantAction := "Assign a technician immediately"
	found := false
	for _, a := range p.RecommendedActions {
		if a == wantAction {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %v, want %q", p.RecommendedActions, wantAction)
	}
}

func TestPredictSLABreach_ComfortableDeadlineIsLow(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")
	tech := seedTech(t, db, "Pat", true)

	req := seedRequest(t, db, models.MaintenanceRequest{
		Title:      "Dripping tap",
		Priority:   models.PriorityLow,
		Status:     models.StatusInProgress,
		AssigneeID: &tech.ID,
		DueAt:      timePtr(time.Now().Add(7 * 24 * time.Hour)),
	})

	p, err := svc.PredictSLABreach(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("PredictSLABreach: %v", err)
	}
	// Adequate time (20) only; the assignee carries one active request.
	if p.Probability != 0.2 {
		t.Errorf("probability = %v, want 0.2", p.Probability)
	}
	if p.RiskLevel != RiskLow {
		t.Errorf("risk = %s, want LOW", p.RiskLevel)
	}
	if len(p.RecommendedActions) != 0 {
		t.Errorf("actions = %v, want none", p.RecommendedActions)
	}
}

func TestPredictSLABreach_NearDeadlineUnassigned(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")

	req := seedRequest(t, db, models.MaintenanceRequest{
		Title:    "Fridge broken",
		Priority: models.PriorityMedium,
		Status:   models.StatusPending,
		DueAt:    timePtr(time.Now().Add(12 * time.Hour)),
	})

	p, err := svc.PredictSLABreach(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("PredictSLABreach: %v", err)
	}
	// <24h (80) + unassigned (30) caps at 1.0.
	if p.Probability != 1 {
		t.Errorf("probability = %v, want 1", p.Probability)
	}
	if p.RiskLevel != RiskCritical {
		t.Errorf("risk = %s, want CRITICAL", p.RiskLevel)
	}
	// MEDIUM priority above 0.7 suggests a priority upgrade.
	found := false
	for _, a := range p.RecommendedActions {
		if a == "Consider upgrading priority level" {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %v, want priority upgrade suggestion", p.RecommendedActions)
	}
}

func TestPredictSLABreach_MissingRequest(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")

	if _, err := svc.PredictSLABreach(context.Background(), 404); err == nil {
		t.Fatal("expected error for missing request")
	}
}

func TestPredictSLABreach_HistoricalBreachRate(t *testing.T) {
	db := testDB(t)
	svc := NewServiceWithClient(db, nil, "")
	tech := seedTech(t, db, "Pat", true)

	prop := models.Property{Name: "Fairhaven Tower", Address: "1 Main St"}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatal(err)
	}

	// Two completed HIGH requests at this property, both late.
	now := time.Now()
	for i := 0; i < 2; i++ {
		seedRequest(t, db, models.MaintenanceRequest{
			Title:       "Past work",
			Priority:    models.PriorityHigh,
			Status:      models.StatusCompleted,
			PropertyID:  &prop.ID,
			DueAt:       timePtr(now.Add(-48 * time.Hour)),
			CompletedAt: timePtr(now.Add(-24 * time.Hour)),
		})
	}

	req := seedRequest(t, db, models.MaintenanceRequest{
		Title:      "New HIGH issue",
		Priority:   models.PriorityHigh,
		Status:     models.StatusInProgress,
		PropertyID: &prop.ID,
		AssigneeID: &tech.ID,
		DueAt:      timePtr(now.Add(72 * time.Hour)),
	})

	p, err := svc.PredictSLABreach(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("PredictSLABreach: %v", err)
	}
	// Adequate time (20) + high priority (20) + breach history (20).
	if p.Probability != 0.6 {
		t.Errorf("probability = %v, want 0.6", p.Probability)
	}
	if p.RiskLevel != RiskHigh {
		t.Errorf("risk = %s, want HIGH", p.RiskLevel)
	}
}

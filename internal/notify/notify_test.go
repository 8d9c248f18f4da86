package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

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
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// mockChannel records sent alerts and optionally fails.
type mockChannel struct {
	name   string
	alerts []Alert
	err    error
}

func (m *mockChannel) Name() string { return m.name }
func (m *mockChannel) Send(ctx context.Context, alert Alert) error {
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func TestCreate_PersistsRow(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	n, err := svc.Create(context.Background(), CreateOpts{
		UserID:  7,
		Type:    TypeMaintenanceSlaBreach,
		Title:   "SLA Breach Risk Alert",
		Message: "Request #3 at risk",
		Metadata: map[string]interface{}{
			"requestId":   3,
			"probability": 0.9,
		},
		SendEmail:   true,
		UseAITiming: true,
		Personalize: true,
		Urgency:     "HIGH",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("notification not persisted")
	}

	var stored models.Notification
	if err := db.First(&stored, n.ID).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if stored.UserID != 7 || !stored.SendEmail || stored.Urgency != "HIGH" {
		t.Errorf("stored = %+v", stored)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal([]byte(stored.Metadata), &meta); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if meta["requestId"] != float64(3) {
		t.Errorf("metadata requestId = %v, want 3", meta["requestId"])
	}
}

func TestCreate_Defaults(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	n, err := svc.Create(context.Background(), CreateOpts{UserID: 1, Title: "Hello"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Urgency != "MEDIUM" {
		t.Errorf("urgency = %q, want MEDIUM default", n.Urgency)
	}
	if n.Metadata != "{}" {
		t.Errorf("metadata = %q, want empty object", n.Metadata)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateOpts{Title: "No user"}); err == nil {
		t.Error("missing user accepted")
	}
	if _, err := svc.Create(ctx, CreateOpts{UserID: 1}); err == nil {
		t.Error("missing title accepted")
	}
}

func TestBroadcast_FansOutToAllChannels(t *testing.T) {
	db := testDB(t)
	a := &mockChannel{name: "a"}
	b := &mockChannel{name: "b"}
	svc := NewService(db, a, b)

	alert := Alert{Title: "Alert", Message: "msg", Urgency: "HIGH"}
	svc.Broadcast(context.Background(), alert)

	if len(a.alerts) != 1 || len(b.alerts) != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", len(a.alerts), len(b.alerts))
	}
	if a.alerts[0] != alert {
		t.Errorf("delivered = %+v, want %+v", a.alerts[0], alert)
	}
}

func TestBroadcast_FailureDoesNotBlockOthers(t *testing.T) {
	db := testDB(t)
	bad := &mockChannel{name: "bad", err: errors.New("unreachable")}
	good := &mockChannel{name: "good"}
	svc := NewService(db, bad, good)

	svc.Broadcast(context.Background(), Alert{Title: "Alert"})

	if len(good.alerts) != 1 {
		t.Errorf("healthy channel deliveries = %d, want 1", len(good.alerts))
	}
}

func TestListForUser(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateOpts{UserID: 1, Title: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, CreateOpts{UserID: 1, Title: "second"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, CreateOpts{UserID: 2, Title: "other user"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ListForUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("rows = %d, want 2", len(got))
	}
}

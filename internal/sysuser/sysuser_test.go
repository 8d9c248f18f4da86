package sysuser

import (
	"context"
	"testing"

	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with the users table.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestSystemUserID_FindsExisting(t *testing.T) {
	db := testDB(t)
	existing := models.User{Username: SystemUsername, Name: "System", Role: models.RolePropertyManager}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	r := NewResolver(db)
	id, err := r.SystemUserID(context.Background())
	if err != nil {
		t.Fatalf("SystemUserID: %v", err)
	}
	if id != existing.ID {
		t.Errorf("id = %d, want %d", id, existing.ID)
	}

	// No second account was created.
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}
}

func TestSystemUserID_CreatesWhenMissing(t *testing.T) {
	db := testDB(t)
	r := NewResolver(db)

	id, err := r.SystemUserID(context.Background())
	if err != nil {
		t.Fatalf("SystemUserID: %v", err)
	}

	var created models.User
	if err := db.First(&created, id).Error; err != nil {
		t.Fatalf("load created user: %v", err)
	}
	if created.Username != SystemUsername {
		t.Errorf("username = %q, want %q", created.Username, SystemUsername)
	}
	if created.Role != models.RolePropertyManager {
		t.Errorf("role = %s, want PROPERTY_MANAGER", created.Role)
	}
}

func TestSystemUserID_IgnoresTenantWithSystemName(t *testing.T) {
	db := testDB(t)
	// A tenant squatting on the name must not be picked up.
	squatter := models.User{Username: SystemUsername, Name: "Imposter", Role: models.RoleTenant}
	if err := db.Create(&squatter).Error; err != nil {
		t.Fatal(err)
	}
	manager := models.User{Username: "bob", Name: "Bob", Role: models.RolePropertyManager}
	if err := db.Create(&manager).Error; err != nil {
		t.Fatal(err)
	}

	r := NewResolver(db)
	id, err := r.SystemUserID(context.Background())
	if err != nil {
		t.Fatalf("SystemUserID: %v", err)
	}
	// Creation collides with the unique username, so resolution falls
	// back to the first manager account.
	if id != manager.ID {
		t.Errorf("id = %d, want manager fallback %d", id, manager.ID)
	}
}

func TestSystemUserID_Caches(t *testing.T) {
	db := testDB(t)
	r := NewResolver(db)
	ctx := context.Background()

	first, err := r.SystemUserID(ctx)
	if err != nil {
		t.Fatalf("SystemUserID: %v", err)
	}

	// Wipe the table; the cached ID must still be returned.
	if err := db.Where("1 = 1").Delete(&models.User{}).Error; err != nil {
		t.Fatal(err)
	}
	second, err := r.SystemUserID(ctx)
	if err != nil {
		t.Fatalf("SystemUserID cached: %v", err)
	}
	if second != first {
		t.Errorf("cached id = %d, want %d", second, first)
	}
}

func TestSystemUserID_NoFallbackAvailable(t *testing.T) {
	db := testDB(t)
	// A tenant squats on the name and no manager exists at all.
	squatter := models.User{Username: SystemUsername, Name: "Imposter", Role: models.RoleTenant}
	if err := db.Create(&squatter).Error; err != nil {
		t.Fatal(err)
	}

	r := NewResolver(db)
	if _, err := r.SystemUserID(context.Background()); err == nil {
		t.Fatal("expected error when no system user can be resolved")
	}
}

func TestIsSystemUser(t *testing.T) {
	db := testDB(t)
	r := NewResolver(db)

	if r.IsSystemUser(1) {
		t.Error("IsSystemUser true before resolution")
	}

	id, err := r.SystemUserID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsSystemUser(id) {
		t.Error("IsSystemUser false for resolved id")
	}
	if r.IsSystemUser(id + 1) {
		t.Error("IsSystemUser true for other id")
	}
}

// Package sysuser resolves the service-account identity used to
// attribute automated actions (escalations, AI-generated notes) in
// audit trails, instead of inventing an authorless state.
package sysuser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/gorm"
)

// SystemUsername is the well-known username of the service account.
// It carries the manager role so its actions pass role checks.
const SystemUsername = "system"

// Resolver lazily resolves and caches the system user ID. Resolution
// runs three strategies in order: find the existing system account,
// create it, fall back to any manager account.
type Resolver struct {
	db *gorm.DB

	mu     sync.Mutex
	cached uint
}

// NewResolver creates a Resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// SystemUserID returns the system user's ID, resolving and caching it
// on first use.
func (r *Resolver) SystemUserID(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != 0 {
		return r.cached, nil
	}

	id, err := r.resolve(ctx)
	if err != nil {
		return 0, err
	}
	r.cached = id
	return id, nil
}

// IsSystemUser reports whether an ID belongs to the resolved system
// user. Returns false when no system user has been resolved yet.
func (r *Resolver) IsSystemUser(id uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached != 0 && r.cached == id
}

func (r *Resolver) resolve(ctx context.Context) (uint, error) {
	// Strategy 1: find the existing system account.
	var existing models.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND role = ?", SystemUsername, models.RolePropertyManager).
		First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("sysuser: find system user: %w", err)
	}

	// Strategy 2: create it.
	created := models.User{
		Username: SystemUsername,
		Name:     "System",
		Role:     models.RolePropertyManager,
	}
	if err := r.db.WithContext(ctx).Create(&created).Error; err == nil {
		log.Printf("sysuser: created system user (id %d)", created.ID)
		return created.ID, nil
	} else {
		log.Printf("sysuser: create system user failed, falling back to existing manager: %v", err)
	}

	// Strategy 3: fall back to any manager account.
	var manager models.User
	err = r.db.WithContext(ctx).
		Where("role = ?", models.RolePropertyManager).
		Order("id ASC").
		First(&manager).Error
	if err != nil {
		return 0, fmt.Errorf("sysuser: no system user and no manager fallback available: %w", err)
	}
	return manager.ID, nil
}

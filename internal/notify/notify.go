// Package notify delivers user notifications. Rows are persisted for
// the portal's inbox; chat channels (Slack, Discord) get a best-effort
// broadcast copy. Email delivery is flagged on the row for the
// external mailer.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fairhaven/upkeep/internal/models"
	"gorm.io/gorm"
)

// TypeMaintenanceSlaBreach tags notifications raised by the SLA sweep.
const TypeMaintenanceSlaBreach = "MAINTENANCE_SLA_BREACH"

// Alert is the chat-channel representation of a notification.
type Alert struct {
	Title   string
	Message string
	Urgency string // "MEDIUM" or "HIGH"
}

// Channel delivers alerts to one chat platform.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// CreateOpts holds parameters for creating a notification.
type CreateOpts struct {
	UserID      uint
	Type        string
	Title       string
	Message     string
	Metadata    map[string]interface{}
	SendEmail   bool
	UseAITiming bool
	Personalize bool
	Urgency     string
}

// Service persists notifications and broadcasts to chat channels.
type Service struct {
	db       *gorm.DB
	channels []Channel
}

// NewService creates a notify Service with zero or more chat channels.
func NewService(db *gorm.DB, channels ...Channel) *Service {
	return &Service{db: db, channels: channels}
}

// Create persists a notification row for one user.
func (s *Service) Create(ctx context.Context, opts CreateOpts) (*models.Notification, error) {
	if opts.UserID == 0 {
		return nil, fmt.Errorf("notify: user is required")
	}
	if opts.Title == "" {
		return nil, fmt.Errorf("notify: title is required")
	}

	metadata := "{}"
	if opts.Metadata != nil {
		data, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notify: marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	urgency := opts.Urgency
	if urgency == "" {
		urgency = "MEDIUM"
	}

	n := models.Notification{
		UserID:      opts.UserID,
		Type:        opts.Type,
		Title:       opts.Title,
		Message:     opts.Message,
		Metadata:    metadata,
		SendEmail:   opts.SendEmail,
		UseAITiming: opts.UseAITiming,
		Personalize: opts.Personalize,
		Urgency:     urgency,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("notify: create: %w", err)
	}
	return &n, nil
}

// Broadcast sends an alert to all configured chat channels.
// Best-effort: channel failures are logged, not returned.
func (s *Service) Broadcast(ctx context.Context, alert Alert) {
	for _, ch := range s.channels {
		if err := ch.Send(ctx, alert); err != nil {
			log.Printf("notify: %s broadcast failed: %v", ch.Name(), err)
		}
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("notify: list for user %d: %w", userID, err)
	}
	return notifications, nil
}

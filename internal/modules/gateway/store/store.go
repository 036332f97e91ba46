package store

import (
	"context"
	"errors"
	"time"

	"github.com/flowhook/core/internal/models"
	"gorm.io/gorm"
)

// GORM-backed implementations of the gateway pipeline collaborators.
// Lookups return (nil, nil) when the row is absent.

// Configs resolves webhook configs.
type Configs struct{ db *gorm.DB }

func NewConfigs(db *gorm.DB) *Configs { return &Configs{db: db} }

func (s *Configs) GetByWebhookID(ctx context.Context, webhookID string) (*models.WebhookConfigModel, error) {
	var cfg models.WebhookConfigModel
	if err := s.db.WithContext(ctx).First(&cfg, "webhook_id = ?", webhookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Configs) TouchLastTriggered(ctx context.Context, configID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&models.WebhookConfigModel{}).
		Where("id = ?", configID).
		Update("last_triggered_at", now).Error
}

// Events is the append-only delivery audit trail.
type Events struct{ db *gorm.DB }

func NewEvents(db *gorm.DB) *Events { return &Events{db: db} }

func (s *Events) Create(ctx context.Context, event *models.WebhookEventModel) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *Events) MarkQueued(ctx context.Context, eventRowID string, processedAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Where("id = ? AND status = ?", eventRowID, models.EventStatusValidated).
		Updates(map[string]interface{}{
			"status":       models.EventStatusQueued,
			"processed_at": processedAt,
		}).Error
}

func (s *Events) MarkRejected(ctx context.Context, eventRowID, message string) error {
	return s.db.WithContext(ctx).
		Model(&models.WebhookEventModel{}).
		Where("id = ? AND status = ?", eventRowID, models.EventStatusValidated).
		Updates(map[string]interface{}{
			"status":        models.EventStatusRejected,
			"error_message": message,
		}).Error
}

// Flows reads automation state and inserts execution records.
type Flows struct{ db *gorm.DB }

func NewFlows(db *gorm.DB) *Flows { return &Flows{db: db} }

func (s *Flows) GetByID(ctx context.Context, flowID string) (*models.FlowModel, error) {
	var flow models.FlowModel
	if err := s.db.WithContext(ctx).First(&flow, "id = ?", flowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &flow, nil
}

func (s *Flows) CreateExecution(ctx context.Context, exec *models.FlowExecutionModel) error {
	return s.db.WithContext(ctx).Create(exec).Error
}

// DeadLetters is the write-once sink for failed dispatches.
type DeadLetters struct{ db *gorm.DB }

func NewDeadLetters(db *gorm.DB) *DeadLetters { return &DeadLetters{db: db} }

func (s *DeadLetters) Create(ctx context.Context, letter *models.DeadLetterModel) error {
	return s.db.WithContext(ctx).Create(letter).Error
}

func (s *DeadLetters) GetByID(ctx context.Context, id string) (*models.DeadLetterModel, error) {
	var letter models.DeadLetterModel
	if err := s.db.WithContext(ctx).First(&letter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &letter, nil
}

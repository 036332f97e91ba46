package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/flowhook/core/internal/models"
	"github.com/flowhook/core/internal/modules/dispatch"
	"github.com/flowhook/core/internal/modules/gateway/ingest"
	"github.com/flowhook/core/internal/pkg/pagination"
	"github.com/flowhook/core/internal/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles webhook config administration, audit browsing and
// dead-letter replay.
type Service struct {
	db    *gorm.DB
	queue *dispatch.Queue
}

func NewService(db *gorm.DB, queue *dispatch.Queue) *Service {
	return &Service{db: db, queue: queue}
}

func (s *Service) List(userID string) ([]models.WebhookConfigModel, error) {
	var items []models.WebhookConfigModel
	return items, s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
}

func (s *Service) GetByID(userID, id string) (*models.WebhookConfigModel, error) {
	var cfg models.WebhookConfigModel
	if err := s.db.First(&cfg, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Service) Create(userID string, dto *CreateConfigDTO) (*models.WebhookConfigModel, error) {
	secret := dto.SecretKey
	if secret == "" {
		var err error
		if secret, err = randomHex(20); err != nil {
			return nil, err
		}
	}
	slug, err := randomHex(9)
	if err != nil {
		return nil, err
	}

	cfg := models.WebhookConfigModel{
		WebhookID:          "wh_" + slug,
		UserID:             userID,
		FlowID:             dto.FlowID,
		Name:               dto.Name,
		SecretKey:          secret,
		AuthType:           dto.AuthType,
		AuthConfig:         dto.AuthConfig,
		RateLimitPerMinute: 60,
		RateLimitPerHour:   1000,
		DedupWindowSeconds: 300,
		DedupField:         models.DefaultDedupField,
		CustomResponse:     dto.CustomResponse,
		IsActive:           true,
	}
	if cfg.AuthType == "" {
		cfg.AuthType = models.AuthTypeNone
	}
	if dto.RateLimitPerMinute != nil {
		cfg.RateLimitPerMinute = *dto.RateLimitPerMinute
	}
	if dto.RateLimitPerHour != nil {
		cfg.RateLimitPerHour = *dto.RateLimitPerHour
	}
	if dto.DedupEnabled != nil {
		cfg.DedupEnabled = *dto.DedupEnabled
	}
	if dto.DedupWindowSeconds != nil {
		cfg.DedupWindowSeconds = *dto.DedupWindowSeconds
	}
	if dto.DedupField != "" {
		cfg.DedupField = dto.DedupField
	}
	if dto.CustomResponseEnabled != nil {
		cfg.CustomResponseEnabled = *dto.CustomResponseEnabled
	}
	if dto.IsActive != nil {
		cfg.IsActive = *dto.IsActive
	}

	if err := ingest.ValidateAuthConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	return &cfg, s.db.Create(&cfg).Error
}

func (s *Service) Update(userID, id string, dto *UpdateConfigDTO) (*models.WebhookConfigModel, error) {
	cfg, err := s.GetByID(userID, id)
	if err != nil || cfg == nil {
		return cfg, err
	}

	if dto.Name != nil {
		cfg.Name = *dto.Name
	}
	if dto.FlowID != nil {
		cfg.FlowID = dto.FlowID
	}
	if dto.SecretKey != nil {
		cfg.SecretKey = *dto.SecretKey
	}
	if dto.AuthType != nil {
		cfg.AuthType = *dto.AuthType
	}
	if dto.AuthConfig != nil {
		cfg.AuthConfig = dto.AuthConfig
	}
	if dto.RateLimitPerMinute != nil {
		cfg.RateLimitPerMinute = *dto.RateLimitPerMinute
	}
	if dto.RateLimitPerHour != nil {
		cfg.RateLimitPerHour = *dto.RateLimitPerHour
	}
	if dto.DedupEnabled != nil {
		cfg.DedupEnabled = *dto.DedupEnabled
	}
	if dto.DedupWindowSeconds != nil {
		cfg.DedupWindowSeconds = *dto.DedupWindowSeconds
	}
	if dto.DedupField != nil {
		cfg.DedupField = *dto.DedupField
	}
	if dto.CustomResponseEnabled != nil {
		cfg.CustomResponseEnabled = *dto.CustomResponseEnabled
	}
	if dto.CustomResponse != nil {
		cfg.CustomResponse = dto.CustomResponse
	}
	if dto.IsActive != nil {
		cfg.IsActive = *dto.IsActive
	}

	if err := ingest.ValidateAuthConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	return cfg, s.db.Save(cfg).Error
}

func (s *Service) Delete(userID, id string) error {
	return s.db.Delete(&models.WebhookConfigModel{}, "id = ? AND user_id = ?", id, userID).Error
}

// ListEvents returns the audit trail, newest first, optionally scoped
// to one config and one status.
func (s *Service) ListEvents(userID string, q pagination.Query, configID, status string) ([]models.WebhookEventModel, response.Pagination, error) {
	tx := s.db.Model(&models.WebhookEventModel{}).
		Joins("JOIN webhook_configs ON webhook_configs.id = webhook_events.config_id").
		Where("webhook_configs.user_id = ?", userID).
		Order("webhook_events.created_at DESC")
	if configID != "" {
		tx = tx.Where("webhook_events.config_id = ?", configID)
	}
	if status != "" {
		tx = tx.Where("webhook_events.status = ?", status)
	}
	var items []models.WebhookEventModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// ListDeadLetters returns dead letters for the user's configs, newest first.
func (s *Service) ListDeadLetters(userID string, q pagination.Query) ([]models.DeadLetterModel, response.Pagination, error) {
	tx := s.db.Model(&models.DeadLetterModel{}).
		Joins("JOIN webhook_configs ON webhook_configs.id = dead_letters.config_id").
		Where("webhook_configs.user_id = ?", userID).
		Order("dead_letters.created_at DESC")
	var items []models.DeadLetterModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Replay re-dispatches a dead letter under a fresh execution id. The
// original letter stays put; replay history is visible through the new
// execution record.
func (s *Service) Replay(ctx context.Context, userID, deadLetterID string) (string, error) {
	var letter models.DeadLetterModel
	err := s.db.
		Joins("JOIN webhook_configs ON webhook_configs.id = dead_letters.config_id").
		Where("webhook_configs.user_id = ?", userID).
		First(&letter, "dead_letters.id = ?", deadLetterID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	executionID := uuid.New().String()
	exec := &models.FlowExecutionModel{
		ExecutionID: executionID,
		FlowID:      letter.FlowID,
		TriggerType: models.TriggerTypeWebhook,
		TriggerData: letter.Payload,
		Status:      models.EventStatusQueued,
	}
	if err := s.db.Create(exec).Error; err != nil {
		return "", err
	}
	if err := s.queue.Dispatch(ctx, executionID, letter.FlowID, letter.Payload); err != nil {
		return "", fmt.Errorf("re-dispatch failed: %w", err)
	}
	return executionID, nil
}

// ErrNotFound marks lookups that found no row owned by the caller.
var ErrNotFound = errors.New("not found")

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

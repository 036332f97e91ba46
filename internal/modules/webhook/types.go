package webhook

import (
	"time"

	"github.com/flowhook/core/internal/models"
)

// CreateConfigDTO is the request body for registering an inbound endpoint.
type CreateConfigDTO struct {
	Name                  string                 `json:"name"       binding:"required"`
	FlowID                *string                `json:"flow_id"`
	SecretKey             string                 `json:"secret_key"`
	AuthType              string                 `json:"auth_type"`
	AuthConfig            map[string]interface{} `json:"auth_config"`
	RateLimitPerMinute    *int                   `json:"rate_limit_per_minute"`
	RateLimitPerHour      *int                   `json:"rate_limit_per_hour"`
	DedupEnabled          *bool                  `json:"dedup_enabled"`
	DedupWindowSeconds    *int                   `json:"dedup_window_seconds"`
	DedupField            string                 `json:"dedup_field"`
	CustomResponseEnabled *bool                  `json:"custom_response_enabled"`
	CustomResponse        *models.CustomResponse `json:"custom_response"`
	IsActive              *bool                  `json:"is_active"`
}

// UpdateConfigDTO is the request body for updating a config. The
// webhook_id is immutable and deliberately absent.
type UpdateConfigDTO struct {
	Name                  *string                `json:"name"`
	FlowID                *string                `json:"flow_id"`
	SecretKey             *string                `json:"secret_key"`
	AuthType              *string                `json:"auth_type"`
	AuthConfig            map[string]interface{} `json:"auth_config"`
	RateLimitPerMinute    *int                   `json:"rate_limit_per_minute"`
	RateLimitPerHour      *int                   `json:"rate_limit_per_hour"`
	DedupEnabled          *bool                  `json:"dedup_enabled"`
	DedupWindowSeconds    *int                   `json:"dedup_window_seconds"`
	DedupField            *string                `json:"dedup_field"`
	CustomResponseEnabled *bool                  `json:"custom_response_enabled"`
	CustomResponse        *models.CustomResponse `json:"custom_response"`
	IsActive              *bool                  `json:"is_active"`
}

// createResponse echoes the generated secret exactly once, at creation.
type createResponse struct {
	models.WebhookConfigModel
	SecretKey string `json:"secret_key"`
	URL       string `json:"url"`
}

// deadLetterResponse trims the payload snapshot off list responses.
type deadLetterResponse struct {
	ID       string    `json:"id"`
	EventID  string    `json:"event_id"`
	ConfigID string    `json:"config_id"`
	FlowID   string    `json:"flow_id"`
	Reason   string    `json:"reason"`
	Detail   string    `json:"detail"`
	Created  time.Time `json:"created"`
}

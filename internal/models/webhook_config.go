package models

import "time"

// Auth types accepted on a webhook config. Anything else is rejected at
// delivery time with a configuration error rather than falling open.
const (
	AuthTypeNone        = "none"
	AuthTypeToken       = "token"
	AuthTypeHeader      = "header"
	AuthTypeHMAC        = "hmac"
	AuthTypeIPWhitelist = "ip_whitelist"
	AuthTypeBasic       = "basic"
)

// DefaultDedupField is the JSON field probed for the idempotency key
// when a config does not name one.
const DefaultDedupField = "event_id"

// CustomResponse lets a config override the default response envelope.
type CustomResponse struct {
	Status int                    `json:"status"`
	Body   map[string]interface{} `json:"body"`
}

// WebhookConfigModel is one registered inbound endpoint.
// WebhookID is the externally addressable slug; it is unique and never
// changes after creation.
type WebhookConfigModel struct {
	Base
	WebhookID string  `json:"webhook_id" gorm:"uniqueIndex;size:64;not null"`
	UserID    string  `json:"user_id"    gorm:"index;not null"`
	FlowID    *string `json:"flow_id"    gorm:"index"`
	Name      string  `json:"name"`

	SecretKey  string                 `json:"-"           gorm:"not null"`
	AuthType   string                 `json:"auth_type"   gorm:"default:none"`
	AuthConfig map[string]interface{} `json:"auth_config" gorm:"serializer:json"`

	RateLimitPerMinute int `json:"rate_limit_per_minute" gorm:"default:60"`
	RateLimitPerHour   int `json:"rate_limit_per_hour"   gorm:"default:1000"`

	DedupEnabled       bool   `json:"dedup_enabled"`
	DedupWindowSeconds int    `json:"dedup_window_seconds" gorm:"default:300"`
	DedupField         string `json:"dedup_field"          gorm:"default:event_id"`

	CustomResponseEnabled bool            `json:"custom_response_enabled"`
	CustomResponse        *CustomResponse `json:"custom_response" gorm:"serializer:json"`

	IsActive        bool       `json:"is_active" gorm:"default:true"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"`
}

func (WebhookConfigModel) TableName() string { return "webhook_configs" }

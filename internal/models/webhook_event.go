package models

import "time"

// Webhook event statuses. An event is created as rejected, duplicate or
// validated; validated may advance to queued once dispatched, or fall
// back to rejected when no active flow is attached.
const (
	EventStatusRejected  = "rejected"
	EventStatusDuplicate = "duplicate"
	EventStatusValidated = "validated"
	EventStatusQueued    = "queued"
)

// WebhookEventModel is one row per inbound delivery, append-only apart
// from the single status advance and processed_at write.
type WebhookEventModel struct {
	Base
	ConfigID string `json:"config_id" gorm:"index;not null"`

	Method      string                 `json:"method"`
	Path        string                 `json:"path"`
	Headers     map[string]interface{} `json:"headers"      gorm:"serializer:json"`
	Query       map[string]interface{} `json:"query"        gorm:"serializer:json"`
	RawBody     string                 `json:"raw_body"     gorm:"type:longtext"`
	Body        map[string]interface{} `json:"body"         gorm:"serializer:json"`
	ContentType string                 `json:"content_type"`
	SourceIP    string                 `json:"source_ip"`
	UserAgent   string                 `json:"user_agent"`

	EventID     *string `json:"event_id"     gorm:"index"`
	ExecutionID *string `json:"execution_id" gorm:"index"`

	Status           string                 `json:"status" gorm:"index;not null"`
	ValidationResult map[string]interface{} `json:"validation_result" gorm:"serializer:json"`
	ErrorMessage     string                 `json:"error_message"`
	ProcessedAt      *time.Time             `json:"processed_at"`
}

func (WebhookEventModel) TableName() string { return "webhook_events" }

package ingest

import (
	"context"
	"time"

	"github.com/flowhook/core/internal/models"
)

// Collaborator interfaces consumed by the pipeline. Lookups follow the
// repo-wide convention of returning (nil, nil) when the row is absent.

// ConfigStore resolves webhook configs and touches their trigger time.
type ConfigStore interface {
	GetByWebhookID(ctx context.Context, webhookID string) (*models.WebhookConfigModel, error)
	TouchLastTriggered(ctx context.Context, configID string) error
}

// RateLimiter enforces the per-minute and per-hour ceilings of a config.
type RateLimiter interface {
	Check(ctx context.Context, cfg *models.WebhookConfigModel, sourceIP string) (allowed bool, reason string, err error)
}

// DedupChecker tracks recently seen (config, event id) pairs.
// FirstSeen returns false when the pair was already delivered within
// the window; the inverted convention is deliberate and must hold.
type DedupChecker interface {
	FirstSeen(ctx context.Context, configID, eventID string, window time.Duration) (bool, error)
}

// EventLog is the append-only delivery audit trail. Rows are immutable
// except for the single status advance and the processed_at write.
type EventLog interface {
	Create(ctx context.Context, event *models.WebhookEventModel) error
	MarkQueued(ctx context.Context, eventRowID string, processedAt time.Time) error
	MarkRejected(ctx context.Context, eventRowID, message string) error
}

// FlowStore reads automation state and inserts the initial execution row.
type FlowStore interface {
	GetByID(ctx context.Context, flowID string) (*models.FlowModel, error)
	CreateExecution(ctx context.Context, exec *models.FlowExecutionModel) error
}

// Dispatcher hands an accepted execution to the downstream worker queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, executionID, flowID string, payload map[string]interface{}) error
}

// DeadLetterSink records accepted events that failed to reach dispatch.
type DeadLetterSink interface {
	Create(ctx context.Context, letter *models.DeadLetterModel) error
}

// Outcome is the terminal result of the pipeline: an HTTP status plus a
// response body, either the default envelope or a configured override.
type Outcome struct {
	Status int
	Body   map[string]interface{}
}

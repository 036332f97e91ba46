package ingest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flowhook/core/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs the ingest pipeline: an ordered list of guard stages,
// each either enriching the delivery or producing a terminal outcome.
// All state lives in the collaborators; the service itself is stateless
// and safe for concurrent use.
type Service struct {
	configs     ConfigStore
	limiter     RateLimiter
	dedup       DedupChecker
	events      EventLog
	flows       FlowStore
	dispatcher  Dispatcher
	deadLetters DeadLetterSink

	dispatchTimeout time.Duration
	log             *zap.Logger
}

func NewService(
	configs ConfigStore,
	limiter RateLimiter,
	dedup DedupChecker,
	events EventLog,
	flows FlowStore,
	dispatcher Dispatcher,
	deadLetters DeadLetterSink,
	dispatchTimeout time.Duration,
	log *zap.Logger,
) *Service {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 5 * time.Second
	}
	return &Service{
		configs:         configs,
		limiter:         limiter,
		dedup:           dedup,
		events:          events,
		flows:           flows,
		dispatcher:      dispatcher,
		deadLetters:     deadLetters,
		dispatchTimeout: dispatchTimeout,
		log:             log,
	}
}

// Process runs steps 2-11 for one delivery. Step 1 (identifier
// resolution) happens in the HTTP handler because a request without an
// identifier has nothing to attribute an event to.
func (s *Service) Process(ctx context.Context, webhookID string, d *Delivery) Outcome {
	// Resolve config. Unknown and disabled endpoints are terminal with
	// no event row: the audit log is scoped to configs that exist and
	// are live.
	cfg, err := s.configs.GetByWebhookID(ctx, webhookID)
	if err != nil {
		return s.internalOutcome("load webhook config", err)
	}
	if cfg == nil {
		return failure(http.StatusNotFound, "Webhook not found", "")
	}
	if !cfg.IsActive {
		return failure(http.StatusForbidden, "Webhook is disabled", "")
	}

	// Rate limit before any persistence; the counters themselves are
	// the record of rejected bursts.
	allowed, reason, err := s.limiter.Check(ctx, cfg, d.SourceIP)
	if err != nil {
		s.log.Warn("rate limiter unavailable, failing open",
			zap.String("webhook_id", cfg.WebhookID), zap.Error(err))
		allowed = true
	}
	if !allowed {
		return failure(http.StatusTooManyRequests, "Rate limit exceeded", reason)
	}

	// Authentication. Unrecognized auth types fail closed as a config
	// error; real auth failures are the one rejection that is persisted.
	auth, err := authenticatorFor(cfg)
	if err != nil {
		s.recordRejection(ctx, cfg, d, reasonUnsupportedAuthType, err.Error())
		return failure(http.StatusBadRequest, "Webhook auth configuration is invalid", reasonUnsupportedAuthType)
	}
	if ok, authReason := auth.verify(d); !ok {
		s.recordRejection(ctx, cfg, d, authReason, "authentication failed")
		return failure(http.StatusUnauthorized, "Authentication failed", authReason)
	}

	// Idempotency key extraction and the dedup window check.
	eventID := ExtractEventID(d, cfg.DedupField)
	if cfg.DedupEnabled && eventID != "" {
		window := time.Duration(cfg.DedupWindowSeconds) * time.Second
		first, err := s.dedup.FirstSeen(ctx, cfg.ID, eventID, window)
		if err != nil {
			s.log.Warn("dedup checker unavailable, failing open",
				zap.String("webhook_id", cfg.WebhookID), zap.Error(err))
			first = true
		}
		if !first {
			event := s.newEvent(cfg, d, models.EventStatusDuplicate)
			event.EventID = &eventID
			if err := s.events.Create(ctx, event); err != nil {
				s.log.Error("persist duplicate event", zap.Error(err))
			}
			// Success on purpose: the sender must not retry a delivery
			// that was already accepted.
			return Outcome{Status: http.StatusOK, Body: map[string]interface{}{
				"success":  true,
				"message":  "Duplicate event ignored",
				"event_id": eventID,
			}}
		}
	}

	// Persist the validated event. From here on the contract with the
	// sender is "durably received": later failures degrade to dead
	// letters but never change the HTTP outcome.
	executionID := uuid.New().String()
	event := s.newEvent(cfg, d, models.EventStatusValidated)
	event.ExecutionID = &executionID
	if eventID != "" {
		event.EventID = &eventID
	}
	if err := s.events.Create(ctx, event); err != nil {
		return s.internalOutcome("persist event", err)
	}

	if err := s.configs.TouchLastTriggered(ctx, cfg.ID); err != nil {
		s.log.Warn("touch last_triggered_at", zap.String("webhook_id", cfg.WebhookID), zap.Error(err))
	}

	message := s.runDispatch(ctx, cfg, d, event, executionID, eventID)

	if cfg.CustomResponseEnabled && cfg.CustomResponse != nil {
		status := cfg.CustomResponse.Status
		if status == 0 {
			status = http.StatusOK
		}
		return Outcome{Status: status, Body: cfg.CustomResponse.Body}
	}

	body := map[string]interface{}{
		"success":      true,
		"execution_id": executionID,
		"message":      message,
	}
	if eventID != "" {
		body["event_id"] = eventID
	} else {
		body["event_id"] = nil
	}
	return Outcome{Status: http.StatusOK, Body: body}
}

// runDispatch covers step 9: flow gating, execution record, hand-off to
// the worker queue, dead-lettering on failure. Returns the message for
// the default envelope.
func (s *Service) runDispatch(ctx context.Context, cfg *models.WebhookConfigModel, d *Delivery, event *models.WebhookEventModel, executionID, eventID string) string {
	if cfg.FlowID == nil || *cfg.FlowID == "" {
		s.markRejected(ctx, event.ID, "No flow configured")
		return "Webhook received (no flow configured)"
	}
	flowID := *cfg.FlowID

	flow, err := s.flows.GetByID(ctx, flowID)
	if err != nil {
		// The event is already durable; treat a status-read failure as
		// a non-dispatchable flow rather than surfacing a 500.
		s.log.Error("load flow status", zap.String("flow_id", flowID), zap.Error(err))
		s.markRejected(ctx, event.ID, "Flow status unavailable")
		return "Flow status unavailable"
	}
	if flow == nil || !flow.IsActive {
		s.markRejected(ctx, event.ID, "Flow not active")
		return "Flow not active"
	}

	if err := s.events.MarkQueued(ctx, event.ID, time.Now()); err != nil {
		s.log.Error("mark event queued", zap.String("event", event.ID), zap.Error(err))
	}

	exec := &models.FlowExecutionModel{
		ExecutionID: executionID,
		FlowID:      flowID,
		TriggerType: models.TriggerTypeWebhook,
		TriggerData: triggerData(cfg, d, eventID),
		Status:      models.EventStatusQueued,
	}
	if err := s.flows.CreateExecution(ctx, exec); err != nil {
		s.log.Error("create flow execution", zap.String("execution_id", executionID), zap.Error(err))
	}

	dctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.dispatcher.Dispatch(dctx, executionID, flowID, dispatchPayload(cfg, d, eventID)); err != nil {
		reason := models.DeadLetterDispatchFailed
		if errors.Is(err, context.DeadlineExceeded) {
			reason = models.DeadLetterDispatchTimeout
		}
		s.writeDeadLetter(ctx, cfg, d, event, flowID, reason, err)
	}
	return "Webhook queued for execution"
}

func (s *Service) writeDeadLetter(ctx context.Context, cfg *models.WebhookConfigModel, d *Delivery, event *models.WebhookEventModel, flowID, reason string, cause error) {
	s.log.Error("worker dispatch failed, writing dead letter",
		zap.String("webhook_id", cfg.WebhookID),
		zap.String("event", event.ID),
		zap.String("reason", reason),
		zap.Error(cause))

	letter := &models.DeadLetterModel{
		EventID:  event.ID,
		ConfigID: cfg.ID,
		FlowID:   flowID,
		Reason:   reason,
		Detail:   cause.Error(),
		Payload:  d.Body,
		Headers:  d.Headers,
	}
	if err := s.deadLetters.Create(ctx, letter); err != nil {
		s.log.Error("persist dead letter", zap.String("event", event.ID), zap.Error(err))
	}
}

// recordRejection persists an auth-path rejection. These are the only
// pre-acceptance rejections worth auditing: an attempted delivery
// against a real, active config is security-relevant.
func (s *Service) recordRejection(ctx context.Context, cfg *models.WebhookConfigModel, d *Delivery, reason, message string) {
	event := s.newEvent(cfg, d, models.EventStatusRejected)
	event.ValidationResult = map[string]interface{}{"auth_failed": reason}
	event.ErrorMessage = message
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Error("persist rejected event", zap.String("webhook_id", cfg.WebhookID), zap.Error(err))
	}
}

func (s *Service) markRejected(ctx context.Context, eventRowID, message string) {
	if err := s.events.MarkRejected(ctx, eventRowID, message); err != nil {
		s.log.Error("mark event rejected", zap.String("event", eventRowID), zap.Error(err))
	}
}

func (s *Service) newEvent(cfg *models.WebhookConfigModel, d *Delivery, status string) *models.WebhookEventModel {
	return &models.WebhookEventModel{
		ConfigID:    cfg.ID,
		Method:      d.Method,
		Path:        d.Path,
		Headers:     d.Headers,
		Query:       d.Query,
		RawBody:     string(d.RawBody),
		Body:        d.Body,
		ContentType: d.ContentType,
		SourceIP:    d.SourceIP,
		UserAgent:   d.UserAgent,
		Status:      status,
	}
}

func (s *Service) internalOutcome(op string, err error) Outcome {
	s.log.Error(op, zap.Error(err))
	return Outcome{Status: http.StatusInternalServerError, Body: map[string]interface{}{
		"success": false,
		"error":   "Internal server error",
		"message": err.Error(),
	}}
}

func failure(status int, errMsg, reason string) Outcome {
	body := map[string]interface{}{"success": false, "error": errMsg}
	if reason != "" {
		body["reason"] = reason
	}
	return Outcome{Status: status, Body: body}
}

// triggerData is the snapshot stored on the execution record.
func triggerData(cfg *models.WebhookConfigModel, d *Delivery, eventID string) map[string]interface{} {
	data := map[string]interface{}{
		"webhook_id": cfg.WebhookID,
		"source_ip":  d.SourceIP,
		"method":     d.Method,
		"headers":    d.Headers,
		"query":      d.Query,
		"body":       d.Body,
	}
	if eventID != "" {
		data["event_id"] = eventID
	}
	return data
}

// dispatchPayload is the normalized event handed to the worker queue.
func dispatchPayload(cfg *models.WebhookConfigModel, d *Delivery, eventID string) map[string]interface{} {
	payload := triggerData(cfg, d, eventID)
	payload["content_type"] = d.ContentType
	payload["user_agent"] = d.UserAgent
	return payload
}

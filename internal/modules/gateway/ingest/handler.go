package ingest

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// routeName is the fixed segment webhook URLs hang off; a path ending
// in it means the identifier was omitted and the query fallback applies.
const routeName = "incoming"

// Handler exposes the single public ingest endpoint.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the ingest endpoint. Any HTTP method is
// accepted; the method is recorded, not restricted.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/webhook")
	g.Any("/"+routeName, h.ingest)
	g.Any("/"+routeName+"/:webhook_id", h.ingest)
}

func (h *Handler) ingest(c *gin.Context) {
	// Preflight short-circuits with no side effects.
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	// Never crash the host process: anything unexpected becomes a 500
	// with a generic message plus the error string.
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("ingest handler panic", zap.Any("panic", r))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
				"message": fmt.Sprint(r),
			})
		}
	}()

	webhookID := resolveWebhookID(c)
	if webhookID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing webhook_id"})
		return
	}

	// The body stream is consumed exactly once, here. Every later step,
	// HMAC verification included, works from the captured bytes.
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn("read request body", zap.Error(err))
		rawBody = nil
	}

	delivery := CaptureDelivery(c.Request, rawBody)
	outcome := h.svc.Process(c.Request.Context(), webhookID, delivery)
	c.JSON(outcome.Status, outcome.Body)
}

// resolveWebhookID takes the last path segment, falling back to the
// webhook_id query parameter when the segment is empty or is the route
// name itself.
func resolveWebhookID(c *gin.Context) string {
	id := strings.Trim(c.Param("webhook_id"), "/")
	if id == "" || id == routeName {
		id = c.Query("webhook_id")
	}
	return id
}

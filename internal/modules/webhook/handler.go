package webhook

import (
	"errors"

	"github.com/flowhook/core/internal/middleware"
	"github.com/flowhook/core/internal/pkg/pagination"
	"github.com/flowhook/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler wires the admin webhook endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/webhooks", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.GET("/events", h.listEvents)
	g.GET("/:id/events", h.listEventsByConfig)
	g.GET("/dead-letters", h.listDeadLetters)
	g.POST("/dead-letters/:id/replay", h.replayDeadLetter)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateConfigDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cfg, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Created(c, createResponse{
		WebhookConfigModel: *cfg,
		SecretKey:          cfg.SecretKey,
		URL:                "/api/v2/webhook/incoming/" + cfg.WebhookID,
	})
}

func (h *Handler) get(c *gin.Context) {
	cfg, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if cfg == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, cfg)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateConfigDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cfg, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	if cfg == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, cfg)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listEvents(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.ListEvents(middleware.CurrentUserID(c), q, c.Query("config_id"), c.Query("status"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) listEventsByConfig(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.ListEvents(middleware.CurrentUserID(c), q, c.Param("id"), c.Query("status"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) listDeadLetters(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.ListDeadLetters(middleware.CurrentUserID(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]deadLetterResponse, len(items))
	for i, letter := range items {
		out[i] = deadLetterResponse{
			ID:       letter.ID,
			EventID:  letter.EventID,
			ConfigID: letter.ConfigID,
			FlowID:   letter.FlowID,
			Reason:   letter.Reason,
			Detail:   letter.Detail,
			Created:  letter.CreatedAt,
		}
	}
	response.Paged(c, out, pag)
}

func (h *Handler) replayDeadLetter(c *gin.Context) {
	executionID, err := h.svc.Replay(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"execution_id": executionID})
}

package flow

import (
	"errors"

	"github.com/flowhook/core/internal/middleware"
	"github.com/flowhook/core/internal/models"
	"github.com/flowhook/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Minimal flow registry so activation state is operable from the admin
// API. Execution itself belongs to the automation workers.

type CreateFlowDTO struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type UpdateFlowDTO struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(userID string) ([]models.FlowModel, error) {
	var items []models.FlowModel
	return items, s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
}

func (s *Service) GetByID(userID, id string) (*models.FlowModel, error) {
	var f models.FlowModel
	if err := s.db.First(&f, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (s *Service) Create(userID string, dto *CreateFlowDTO) (*models.FlowModel, error) {
	f := models.FlowModel{UserID: userID, Name: dto.Name, IsActive: true}
	if dto.IsActive != nil {
		f.IsActive = *dto.IsActive
	}
	return &f, s.db.Create(&f).Error
}

func (s *Service) Update(userID, id string, dto *UpdateFlowDTO) (*models.FlowModel, error) {
	f, err := s.GetByID(userID, id)
	if err != nil || f == nil {
		return f, err
	}
	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}
	return f, s.db.Model(f).Updates(updates).Error
}

// Handler wires the flow admin endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/flows", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
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
	var dto CreateFlowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, f)
}

func (h *Handler) get(c *gin.Context) {
	f, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if f == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, f)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateFlowDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if f == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, f)
}

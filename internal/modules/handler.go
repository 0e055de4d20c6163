package modules

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/response"
)

// ModuleRequest is the create/update payload for a training module.
type ModuleRequest struct {
	RegistrationID *string              `json:"registrationId"`
	Representative string               `json:"representative"`
	Status         string               `json:"status" binding:"omitempty,oneof=proposed confirmed completed"`
	Batches        []models.CourseBatch `json:"batches"`
	Financials     float64              `json:"financials"`
	Dates          string               `json:"dates"`
	MouSigned      bool                 `json:"mouSigned"`
	Notes          string               `json:"notes"`
	TrainerIDs     []string             `json:"trainerIds"`
}

// Handler handles training module endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a modules handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

func (req *ModuleRequest) toModel() (*models.TrainingModule, error) {
	m := &models.TrainingModule{
		Representative: req.Representative,
		Status:         req.Status,
		Batches:        req.Batches,
		Financials:     req.Financials,
		Dates:          req.Dates,
		MouSigned:      req.MouSigned,
		Notes:          req.Notes,
	}
	if m.Status == "" {
		m.Status = models.ModuleStatusProposed
	}
	if m.Batches == nil {
		m.Batches = []models.CourseBatch{}
	}
	if req.RegistrationID != nil && *req.RegistrationID != "" {
		id, err := uuid.Parse(*req.RegistrationID)
		if err != nil {
			return nil, errors.New("invalid registrationId")
		}
		m.RegistrationID = &id
	}
	m.TrainerIDs = make([]uuid.UUID, 0, len(req.TrainerIDs))
	for _, raw := range req.TrainerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("invalid trainer id: " + raw)
		}
		m.TrainerIDs = append(m.TrainerIDs, id)
	}
	return m, nil
}

// List handles GET /modules.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list modules failed", zap.Error(err))
		response.Internal(c, "failed to list modules")
		return
	}
	if list == nil {
		list = []models.TrainingModule{}
	}
	response.OK(c, gin.H{"modules": list})
}

// Get handles GET /modules/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid module id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get module failed", zap.Error(err), zap.String("module_id", id.String()))
		response.Internal(c, "failed to get module")
		return
	}
	if m == nil {
		response.NotFound(c, "module not found")
		return
	}
	response.OK(c, m)
}

// Create handles POST /modules.
func (h *Handler) Create(c *gin.Context) {
	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := req.toModel()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create module failed", zap.Error(err))
		response.Internal(c, "failed to create module")
		return
	}
	response.Created(c, m)
}

// Update handles PUT /modules/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid module id")
		return
	}
	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m, err := req.toModel()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m.ID = id
	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "module not found")
			return
		}
		h.logger.Error("update module failed", zap.Error(err), zap.String("module_id", id.String()))
		response.Internal(c, "failed to update module")
		return
	}
	response.OK(c, m)
}

package trainers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/response"
)

// CreateTrainerRequest is the payload for POST /trainers.
type CreateTrainerRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Contact   string `json:"contact"`
	Expertise string `json:"expertise"`
}

// Handler handles trainer endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a trainers handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /trainers.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list trainers failed", zap.Error(err))
		response.Internal(c, "failed to list trainers")
		return
	}
	if list == nil {
		list = []models.Trainer{}
	}
	response.OK(c, gin.H{"trainers": list})
}

// Create handles POST /trainers.
func (h *Handler) Create(c *gin.Context) {
	var req CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	trainer := &models.Trainer{
		Name:      req.Name,
		Email:     req.Email,
		Contact:   req.Contact,
		Expertise: req.Expertise,
	}
	if err := h.repo.Create(c.Request.Context(), trainer); err != nil {
		h.logger.Error("create trainer failed", zap.Error(err))
		response.Internal(c, "failed to create trainer")
		return
	}
	response.Created(c, trainer)
}

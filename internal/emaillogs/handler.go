package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/response"
)

// Handler exposes the email delivery history.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByRegistration handles GET /registrations/:id/emails (admin).
func (h *Handler) ListByRegistration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	list, err := h.repo.ListByRegistration(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to list email logs")
		return
	}
	if list == nil {
		list = []models.EmailLog{}
	}
	response.OK(c, gin.H{"emails": list})
}

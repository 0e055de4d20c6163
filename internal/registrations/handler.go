package registrations

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/pkg/response"
)

// SubmitRequest is the body for POST /colleges.
type SubmitRequest struct {
	CollegeName string `json:"collegeName" binding:"required"`
	RepName     string `json:"repName" binding:"required"`
	RepEmail    string `json:"repEmail" binding:"required,email"`
	RepContact  string `json:"repContact" binding:"required"`
	Role        string `json:"role"`
	Coupon      string `json:"coupon"`
}

// StatusRequest is the body for POST /colleges/registration-status.
type StatusRequest struct {
	ID string `json:"id"`
}

// LookupRequest is the body for POST /colleges/lookup. Either field works.
type LookupRequest struct {
	UserMail  string `json:"userMail"`
	CollegeID string `json:"collegeId"`
}

// Handler handles registration workflow HTTP endpoints.
type Handler struct {
	workflow *Workflow
	repo     *Repository
	logger   *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(workflow *Workflow, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{workflow: workflow, repo: repo, logger: logger}
}

// Submit handles POST /colleges. Creates the registration and provisions a
// login for the representative.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.workflow.SubmitDetails(c.Request.Context(), SubmitDetailsInput{
		CollegeName: req.CollegeName,
		RepName:     req.RepName,
		RepEmail:    req.RepEmail,
		RepContact:  req.RepContact,
		Role:        req.Role,
		Coupon:      req.Coupon,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateRegistration):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrValidation):
			response.BadRequest(c, err.Error())
		default:
			h.logger.Error("submit details failed", zap.Error(err), zap.String("college", req.CollegeName))
			response.Internal(c, fmt.Sprintf("failed to register %s", req.CollegeName))
		}
		return
	}

	if !result.CredentialsIssued {
		// Registration stands; only the login could not be provisioned.
		response.OK(c, gin.H{
			"id":      result.ID,
			"message": "Your college got registered, please contact hr@learnathon.live to get your password",
			"credentials_issued": false,
		})
		return
	}
	response.Created(c, gin.H{"id": result.ID, "credentials_issued": true})
}

// Status handles POST /colleges/registration-status. Derives the current step
// for the supplied id; invalid and missing ids are fail-soft (steps 0 and 1).
func (h *Handler) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	st, err := h.workflow.Status(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.Error("status derivation failed", zap.Error(err), zap.String("id", req.ID))
		response.Internal(c, "error getting college details")
		return
	}

	body := gin.H{"step": st.Step}
	switch st.Step {
	case StepUpload:
		body["collegeId"] = st.CollegeID
	case StepPayment:
		body["collegeId"] = st.CollegeID
		body["participantCount"] = st.ParticipantCount
		body["email"] = st.RepEmail
		body["contact"] = st.RepContact
		body["name"] = st.RepName
		body["price"] = st.Price
	case StepCompleted:
		body["collegeId"] = st.CollegeID
		body["collegeName"] = st.CollegeName
		body["registered"] = true
	}
	response.OK(c, body)
}

// Lookup handles POST /colleges/lookup. Resolves a registration id from the
// representative's email (login resume flow) or returns full details by id.
func (h *Handler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if req.UserMail != "" {
		reg, err := h.workflow.FindByRepEmail(c.Request.Context(), req.UserMail)
		if err != nil {
			h.logger.Error("lookup by email failed", zap.Error(err))
			response.Internal(c, "lookup failed")
			return
		}
		if reg == nil {
			response.NotFound(c, "college not found")
			return
		}
		response.OK(c, gin.H{"id": reg.ID})
		return
	}

	if req.CollegeID != "" {
		id, err := uuid.Parse(req.CollegeID)
		if err != nil {
			response.BadRequest(c, "invalid college id")
			return
		}
		reg, err := h.repo.GetByID(c.Request.Context(), id)
		if err != nil {
			h.logger.Error("lookup by id failed", zap.Error(err))
			response.Internal(c, "lookup failed")
			return
		}
		if reg == nil {
			response.NotFound(c, "college not found")
			return
		}
		response.OK(c, gin.H{"college": reg})
		return
	}

	response.BadRequest(c, "userMail or collegeId required")
}

// List handles GET /colleges (admin). Returns all registrations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "error fetching registrations")
		return
	}
	response.OK(c, gin.H{"registrations": list})
}

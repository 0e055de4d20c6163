package auth

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/queue"
	"github.com/learnathon-live/backend/pkg/response"
	"github.com/learnathon-live/backend/pkg/utils"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is the admin create-user payload. An omitted password
// means "provision one": a temporary password is generated and emailed.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin trainer college"`
	Contact  string `json:"contact"`
}

// Handler handles auth and user management endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	queue  *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, queue: q, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("login lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if user == nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}

	response.OK(c, gin.H{
		"token": token,
		"user":  user.ToPublic(),
	})
}

// List handles GET /users (admin).
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, gin.H{"users": users})
}

// Create handles POST /users (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("user lookup failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	if existing != nil {
		response.Conflict(c, "a user with this email already exists")
		return
	}

	password := req.Password
	provisioned := false
	if password == "" {
		password, err = utils.TempPassword(tempPasswordLength)
		if err != nil {
			response.Internal(c, "failed to create user")
			return
		}
		provisioned = true
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}
	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, models.Role(req.Role), req.Contact)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	if provisioned {
		err := h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
			EmailType:      models.EmailTypeCredentials,
			RecipientEmail: user.Email,
			Subject:        "Your Learnathon account",
			Body: fmt.Sprintf("Hi %s,\n\nAn account has been created for you. Log in with:\n\nEmail: %s\nPassword: %s\n\nPlease change your password after first login.",
				user.FullName, user.Email, password),
		})
		if err != nil {
			h.logger.Error("queue credentials email failed", zap.Error(err), zap.String("email", user.Email))
		}
	}
	response.Created(c, user.ToPublic())
}

// Get handles GET /users/:id (admin).
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

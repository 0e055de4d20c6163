package participants

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/registrations"
	"github.com/learnathon-live/backend/pkg/response"
	"github.com/learnathon-live/backend/pkg/storage"
)

// maxRosterSize caps uploaded roster files (5MB).
const maxRosterSize = 5 * 1024 * 1024

// Handler handles roster upload and participant listing endpoints.
type Handler struct {
	ingestor *Ingestor
	repo     *Repository
	regRepo  *registrations.Repository
	s3       *storage.S3 // nil when archiving is disabled
	logger   *zap.Logger
}

// NewHandler creates a participants handler. s3 may be nil.
func NewHandler(ingestor *Ingestor, repo *Repository, regRepo *registrations.Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ingestor: ingestor, repo: repo, regRepo: regRepo, s3: s3, logger: logger}
}

// Upload handles POST /registrations/:id/participants (multipart "file").
func (h *Handler) Upload(c *gin.Context) {
	registrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.regRepo.GetByID(c.Request.Context(), registrationID)
	if err != nil {
		h.logger.Error("load registration failed", zap.Error(err))
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file uploaded")
		return
	}
	if fileHeader.Size > maxRosterSize {
		response.BadRequest(c, "file too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "could not read file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "could not read file")
		return
	}

	count, err := h.ingestor.Ingest(c.Request.Context(), registrationID, data, fileHeader.Filename)
	if err != nil {
		var missing *MissingColumnsError
		switch {
		case errors.As(err, &missing):
			c.JSON(http.StatusBadRequest, gin.H{
				"success":         false,
				"message":         "File is missing required columns",
				"missingColumns":  missing.Missing,
				"requiredColumns": missing.Required,
				"givenColumns":    missing.Given,
			})
		case errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrEmptyFile):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrPartialIngestion):
			// uploadLater stays true so the upload can be retried.
			h.logger.Error("roster ingestion incomplete", zap.Error(err), zap.String("registration_id", registrationID.String()))
			response.Internal(c, "participant upload incomplete, please retry")
		default:
			h.logger.Error("roster ingestion failed", zap.Error(err), zap.String("registration_id", registrationID.String()))
			response.Internal(c, "failed to upload participants")
		}
		return
	}

	h.archiveRoster(c, registrationID, fileHeader.Filename, data)

	response.OK(c, gin.H{"count": count, "message": "Participants uploaded successfully"})
}

// archiveRoster stores the raw roster in S3 for later admin download.
// Best-effort: archival failure never fails an already-ingested upload.
func (h *Handler) archiveRoster(c *gin.Context, registrationID uuid.UUID, filename string, data []byte) {
	if h.s3 == nil {
		return
	}
	key := storage.RosterKey(registrationID.String(), filename)
	if err := h.s3.UploadRoster(c.Request.Context(), key, "application/octet-stream", data); err != nil {
		h.logger.Warn("roster archive failed", zap.Error(err), zap.String("key", key))
		return
	}
	if err := h.regRepo.SetRosterKey(c.Request.Context(), registrationID, key); err != nil {
		h.logger.Warn("set roster key failed", zap.Error(err), zap.String("key", key))
	}
}

// RosterURL handles GET /registrations/:id/roster-url (admin). Returns a
// pre-signed download URL for the archived roster file.
func (h *Handler) RosterURL(c *gin.Context) {
	registrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	if h.s3 == nil {
		response.ServiceUnavailable(c, "roster archive not configured")
		return
	}
	reg, err := h.regRepo.GetByID(c.Request.Context(), registrationID)
	if err != nil || reg == nil {
		response.NotFound(c, "registration not found")
		return
	}
	if reg.RosterKey == "" {
		response.NotFound(c, "no roster archived for this registration")
		return
	}
	url, err := h.s3.RosterDownloadURL(c.Request.Context(), reg.RosterKey)
	if err != nil {
		h.logger.Error("presign roster failed", zap.Error(err), zap.String("key", reg.RosterKey))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url, "expires_in_minutes": int(h.s3.PresignExpire().Minutes())})
}

// List handles GET /participants (admin). Supports college filter, name
// prefix search, sorting and limit/offset pagination.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		NamePrefix: c.Query("participantName"),
		SortField:  c.DefaultQuery("sortField", "name"),
		SortDesc:   c.Query("sortDirection") == "desc",
	}
	if idStr := c.Query("collegeId"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			response.BadRequest(c, "invalid collegeId")
			return
		}
		filter.RegistrationID = &id
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if err != nil || pageSize <= 0 {
		response.BadRequest(c, "invalid page size")
		return
	}
	filter.Limit = pageSize
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	list, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, "failed to fetch participants")
		return
	}
	response.OK(c, gin.H{
		"participants": list,
		"hasMore":      len(list) == filter.Limit,
	})
}

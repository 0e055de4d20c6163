// Package registrations implements the college registration step workflow:
// details -> roster upload -> payment -> completed.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
)

// Registration steps. The current step is always derived from stored fields,
// never from anything the client claims.
const (
	StepInvalid   = 0 // id supplied but no matching record
	StepDetails   = 1 // no id: collect institutional details
	StepUpload    = 2 // registered, roster not yet ingested
	StepPayment   = 3 // roster ingested, payment pending or failed
	StepCompleted = 4 // paid
)

var (
	// ErrDuplicateRegistration means a registration already exists for the
	// representative email or college name.
	ErrDuplicateRegistration = errors.New("college is already registered")
	// ErrValidation means required details are missing.
	ErrValidation = errors.New("missing required fields")
)

// Store is the registration persistence needed by the workflow.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) // (nil, nil) when absent
	GetByRepEmail(ctx context.Context, email string) (*models.Registration, error)
	Exists(ctx context.Context, collegeName, repEmail string) (bool, error)
	Create(ctx context.Context, reg *models.Registration) error
	SetUploadLater(ctx context.Context, id uuid.UUID, uploadLater bool) error
}

// ParticipantCounter counts ingested participants for a registration.
type ParticipantCounter interface {
	CountByRegistration(ctx context.Context, registrationID uuid.UUID) (int, error)
}

// CredentialProvisioner creates a login for the representative out-of-band.
type CredentialProvisioner interface {
	Provision(ctx context.Context, registrationID uuid.UUID, email, name, contact string) error
}

// Workflow derives the current registration step and applies step-completion
// events. It holds no state of its own; all state lives in the Store.
type Workflow struct {
	store        Store
	participants ParticipantCounter
	provisioner  CredentialProvisioner
	defaultPrice float64
	logger       *zap.Logger
}

// NewWorkflow creates the registration workflow.
func NewWorkflow(store Store, participants ParticipantCounter, provisioner CredentialProvisioner, defaultPrice float64, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		store:        store,
		participants: participants,
		provisioner:  provisioner,
		defaultPrice: defaultPrice,
		logger:       logger,
	}
}

// Status is the derived state for a registration id.
type Status struct {
	Step             int
	CollegeID        uuid.UUID
	CollegeName      string
	ParticipantCount int
	RepEmail         string
	RepContact       string
	RepName          string
	Price            float64
}

// Status derives the current step for the given id. An empty id means the
// caller has not registered yet (step 1); an unknown or malformed id is
// fail-soft and yields step 0, since ids arrive from URLs and bookmarks.
func (w *Workflow) Status(ctx context.Context, idStr string) (*Status, error) {
	if strings.TrimSpace(idStr) == "" {
		return &Status{Step: StepDetails}, nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return &Status{Step: StepInvalid}, nil
	}
	reg, err := w.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg == nil {
		return &Status{Step: StepInvalid}, nil
	}

	if reg.UploadLater {
		return &Status{Step: StepUpload, CollegeID: reg.ID}, nil
	}
	if reg.PaymentStatus == models.PaymentStatusPaid {
		return &Status{Step: StepCompleted, CollegeID: reg.ID, CollegeName: reg.CollegeName}, nil
	}

	count, err := w.participants.CountByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	return &Status{
		Step:             StepPayment,
		CollegeID:        reg.ID,
		ParticipantCount: count,
		RepEmail:         reg.RepEmail,
		RepContact:       reg.RepContact,
		RepName:          reg.RepName,
		Price:            reg.UnitPrice(w.defaultPrice),
	}, nil
}

// SubmitDetailsInput holds the initial details form.
type SubmitDetailsInput struct {
	CollegeName string
	RepName     string
	RepEmail    string
	RepContact  string
	Role        string
	Coupon      string
}

// SubmitResult reports the created registration. CredentialsIssued is false
// when the login could not be provisioned; the registration itself stands and
// the representative must contact support for credentials.
type SubmitResult struct {
	ID                uuid.UUID
	CredentialsIssued bool
}

// SubmitDetails validates the form, rejects duplicates, creates the
// registration in (pending, uploadLater=true) and provisions a login for the
// representative. Provisioning failure does not roll back the registration.
func (w *Workflow) SubmitDetails(ctx context.Context, in SubmitDetailsInput) (*SubmitResult, error) {
	if strings.TrimSpace(in.CollegeName) == "" || strings.TrimSpace(in.RepEmail) == "" {
		return nil, ErrValidation
	}

	exists, err := w.store.Exists(ctx, in.CollegeName, in.RepEmail)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRegistration, in.RepEmail)
	}

	reg := &models.Registration{
		CollegeName:   in.CollegeName,
		RepName:       in.RepName,
		RepEmail:      in.RepEmail,
		RepContact:    in.RepContact,
		Role:          in.Role,
		Coupon:        in.Coupon,
		UploadLater:   true,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := w.store.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	if err := w.provisioner.Provision(ctx, reg.ID, in.RepEmail, in.RepName, in.RepContact); err != nil {
		w.logger.Error("credential provisioning failed",
			zap.Error(err),
			zap.String("registration_id", reg.ID.String()),
			zap.String("rep_email", in.RepEmail),
		)
		return &SubmitResult{ID: reg.ID, CredentialsIssued: false}, nil
	}
	return &SubmitResult{ID: reg.ID, CredentialsIssued: true}, nil
}

// CompleteUpload flips uploadLater to false after a successful roster
// ingestion. No-op when already false.
func (w *Workflow) CompleteUpload(ctx context.Context, id uuid.UUID) error {
	if err := w.store.SetUploadLater(ctx, id, false); err != nil {
		return fmt.Errorf("complete upload: %w", err)
	}
	return nil
}

// FindByRepEmail resolves a registration by representative email, used when a
// representative logs in and resumes the flow. Returns (nil, nil) when absent.
func (w *Workflow) FindByRepEmail(ctx context.Context, email string) (*models.Registration, error) {
	return w.store.GetByRepEmail(ctx, email)
}

package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/queue"
	"github.com/learnathon-live/backend/pkg/utils"
)

const tempPasswordLength = 10

// Provisioner creates a login for a newly registered college representative
// and queues the credentials email. Registration itself must not fail when
// provisioning does, so callers treat errors here as a warning.
type Provisioner struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewProvisioner creates a credential provisioner.
func NewProvisioner(repo *Repository, q *queue.Queue, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{repo: repo, queue: q, logger: logger}
}

// Provision creates a college-role user with a temporary password and
// enqueues the credentials email. If the email already has a user the
// account is left alone and only the queue step is skipped.
func (p *Provisioner) Provision(ctx context.Context, registrationID uuid.UUID, email, name, contact string) error {
	existing, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		p.logger.Info("user already exists, skipping provisioning", zap.String("email", email))
		return nil
	}

	password, err := utils.TempPassword(tempPasswordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user, err := p.repo.Create(ctx, email, hash, name, models.RoleCollege, contact)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	err = p.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      models.EmailTypeCredentials,
		RegistrationID: &registrationID,
		RecipientEmail: email,
		Subject:        "Your Learnathon account",
		Body: fmt.Sprintf("Hi %s,\n\nYour college has been registered. Log in with:\n\nEmail: %s\nPassword: %s\n\nPlease change your password after first login.",
			name, email, password),
	})
	if err != nil {
		return fmt.Errorf("queue credentials email: %w", err)
	}

	p.logger.Info("provisioned college account",
		zap.String("user_id", user.ID.String()),
		zap.String("registration_id", registrationID.String()),
	)
	return nil
}

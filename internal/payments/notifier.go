package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/learnathon-live/backend/internal/models"
	"github.com/learnathon-live/backend/pkg/queue"
)

// QueueNotifier dispatches payment notices as email jobs for the worker.
type QueueNotifier struct {
	Queue *queue.Queue
}

// PaymentFailed enqueues the payment-failed notice to the representative.
func (n *QueueNotifier) PaymentFailed(ctx context.Context, registrationID uuid.UUID, email string) error {
	return n.Queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      models.EmailTypePaymentFailed,
		RegistrationID: &registrationID,
		RecipientEmail: email,
		Subject:        "Payment failed",
		Body:           "Your payment has failed. Please try again.",
	})
}

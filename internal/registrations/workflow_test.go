package registrations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnathon-live/backend/internal/models"
)

type fakeStore struct {
	regs        map[uuid.UUID]*models.Registration
	createErr   error
	uploadFlips []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{regs: map[uuid.UUID]*models.Registration{}}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	return f.regs[id], nil
}

func (f *fakeStore) GetByRepEmail(_ context.Context, email string) (*models.Registration, error) {
	for _, reg := range f.regs {
		if reg.RepEmail == email {
			return reg, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Exists(_ context.Context, collegeName, repEmail string) (bool, error) {
	for _, reg := range f.regs {
		if reg.CollegeName == collegeName || reg.RepEmail == repEmail {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Create(_ context.Context, reg *models.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	reg.ID = uuid.New()
	f.regs[reg.ID] = reg
	return nil
}

func (f *fakeStore) SetUploadLater(_ context.Context, id uuid.UUID, uploadLater bool) error {
	reg, ok := f.regs[id]
	if !ok {
		return errors.New("not found")
	}
	if reg.UploadLater != uploadLater {
		reg.UploadLater = uploadLater
		f.uploadFlips = append(f.uploadFlips, id)
	}
	return nil
}

type fakeCounter struct {
	count int
	err   error
}

func (f *fakeCounter) CountByRegistration(context.Context, uuid.UUID) (int, error) {
	return f.count, f.err
}

type fakeProvisioner struct {
	err   error
	calls int
}

func (f *fakeProvisioner) Provision(context.Context, uuid.UUID, string, string, string) error {
	f.calls++
	return f.err
}

func newTestWorkflow(store *fakeStore, counter *fakeCounter, prov *fakeProvisioner) *Workflow {
	return NewWorkflow(store, counter, prov, 500, nil)
}

func seedRegistration(store *fakeStore, mutate func(*models.Registration)) *models.Registration {
	reg := &models.Registration{
		ID:            uuid.New(),
		CollegeName:   "IIT Bombay",
		RepName:       "Asha Rao",
		RepEmail:      "asha@iitb.ac.in",
		RepContact:    "9876543210",
		UploadLater:   true,
		PaymentStatus: models.PaymentStatusPending,
	}
	if mutate != nil {
		mutate(reg)
	}
	store.regs[reg.ID] = reg
	return reg
}

func TestStatusDerivation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id means details step", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &fakeCounter{}, &fakeProvisioner{})
		st, err := w.Status(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, StepDetails, st.Step)
	})

	t.Run("malformed id is fail-soft invalid", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &fakeCounter{}, &fakeProvisioner{})
		st, err := w.Status(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Equal(t, StepInvalid, st.Step)
	})

	t.Run("unknown id is fail-soft invalid", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &fakeCounter{}, &fakeProvisioner{})
		st, err := w.Status(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Equal(t, StepInvalid, st.Step)
	})

	t.Run("pending upload means upload step", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, nil)
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		st, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Equal(t, StepUpload, st.Step)
		assert.Equal(t, reg.ID, st.CollegeID)
	})

	t.Run("uploaded and unpaid means payment step with contact details", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, func(r *models.Registration) {
			r.UploadLater = false
		})
		w := newTestWorkflow(store, &fakeCounter{count: 42}, &fakeProvisioner{})

		st, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Equal(t, StepPayment, st.Step)
		assert.Equal(t, 42, st.ParticipantCount)
		assert.Equal(t, reg.RepEmail, st.RepEmail)
		assert.Equal(t, reg.RepContact, st.RepContact)
		assert.Equal(t, reg.RepName, st.RepName)
		assert.Equal(t, 500.0, st.Price)
	})

	t.Run("negotiated price wins over default", func(t *testing.T) {
		store := newFakeStore()
		price := 350.0
		reg := seedRegistration(store, func(r *models.Registration) {
			r.UploadLater = false
			r.Price = &price
		})
		w := newTestWorkflow(store, &fakeCounter{count: 10}, &fakeProvisioner{})

		st, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 350.0, st.Price)
	})

	t.Run("paid means completed regardless of order", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, func(r *models.Registration) {
			r.UploadLater = false
			r.PaymentStatus = models.PaymentStatusPaid
		})
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		st, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Equal(t, StepCompleted, st.Step)
		assert.Equal(t, reg.CollegeName, st.CollegeName)
	})

	t.Run("failed payment stays on payment step", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, func(r *models.Registration) {
			r.UploadLater = false
			r.PaymentStatus = models.PaymentStatusFailed
		})
		w := newTestWorkflow(store, &fakeCounter{count: 5}, &fakeProvisioner{})

		st, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Equal(t, StepPayment, st.Step)
	})

	t.Run("status derivation writes nothing", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, nil)
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		_, err := w.Status(ctx, reg.ID.String())
		require.NoError(t, err)
		assert.Empty(t, store.uploadFlips)
		assert.True(t, store.regs[reg.ID].UploadLater)
	})
}

func TestSubmitDetails(t *testing.T) {
	ctx := context.Background()

	input := SubmitDetailsInput{
		CollegeName: "NIT Trichy",
		RepName:     "Vikram Iyer",
		RepEmail:    "vikram@nitt.edu",
		RepContact:  "9000000001",
		Role:        "Dean",
	}

	t.Run("creates registration and provisions credentials", func(t *testing.T) {
		store := newFakeStore()
		prov := &fakeProvisioner{}
		w := newTestWorkflow(store, &fakeCounter{}, prov)

		result, err := w.SubmitDetails(ctx, input)
		require.NoError(t, err)
		assert.True(t, result.CredentialsIssued)
		assert.Equal(t, 1, prov.calls)

		reg := store.regs[result.ID]
		require.NotNil(t, reg)
		assert.True(t, reg.UploadLater)
		assert.Equal(t, models.PaymentStatusPending, reg.PaymentStatus)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		store := newFakeStore()
		seedRegistration(store, func(r *models.Registration) { r.RepEmail = input.RepEmail })
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		_, err := w.SubmitDetails(ctx, input)
		require.ErrorIs(t, err, ErrDuplicateRegistration)
	})

	t.Run("rejects duplicate college name", func(t *testing.T) {
		store := newFakeStore()
		seedRegistration(store, func(r *models.Registration) { r.CollegeName = input.CollegeName })
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		_, err := w.SubmitDetails(ctx, input)
		require.ErrorIs(t, err, ErrDuplicateRegistration)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		w := newTestWorkflow(newFakeStore(), &fakeCounter{}, &fakeProvisioner{})
		_, err := w.SubmitDetails(ctx, SubmitDetailsInput{RepEmail: "only@email.in"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("provisioning failure keeps the registration", func(t *testing.T) {
		store := newFakeStore()
		prov := &fakeProvisioner{err: errors.New("smtp down")}
		w := newTestWorkflow(store, &fakeCounter{}, prov)

		result, err := w.SubmitDetails(ctx, input)
		require.NoError(t, err)
		assert.False(t, result.CredentialsIssued)
		assert.NotNil(t, store.regs[result.ID])
	})
}

func TestCompleteUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("flips uploadLater once", func(t *testing.T) {
		store := newFakeStore()
		reg := seedRegistration(store, nil)
		w := newTestWorkflow(store, &fakeCounter{}, &fakeProvisioner{})

		require.NoError(t, w.CompleteUpload(ctx, reg.ID))
		assert.False(t, store.regs[reg.ID].UploadLater)

		// Second completion is a no-op, not an error.
		require.NoError(t, w.CompleteUpload(ctx, reg.ID))
		assert.Len(t, store.uploadFlips, 1)
	})
}

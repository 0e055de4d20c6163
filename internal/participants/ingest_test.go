package participants

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/learnathon-live/backend/internal/models"
)

const rosterCSV = "Name,Email,Contact,Degree,Branch,Year,Percentage\n" +
	"Asha Rao,asha@example.in,9876543210,BTech,CSE,3,87.5\n" +
	"Vikram Iyer,vikram@example.in,9876543211,BTech,ECE,2,91\n" +
	"Meera Nair,meera@example.in,9876543212,MTech,CSE,1,78.25%\n"

type fakeBatchWriter struct {
	rows []models.Participant
	err  error
}

func (f *fakeBatchWriter) BulkInsert(_ context.Context, _ uuid.UUID, parts []models.Participant) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, parts...)
	return nil
}

type fakeCompleter struct {
	completed []uuid.UUID
}

func (f *fakeCompleter) CompleteUpload(_ context.Context, id uuid.UUID) error {
	f.completed = append(f.completed, id)
	return nil
}

func buildXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for n, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, n+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("csv roster inserts all rows and completes the upload", func(t *testing.T) {
		store := &fakeBatchWriter{}
		completer := &fakeCompleter{}
		registrationID := uuid.New()
		ing := NewIngestor(store, completer, nil)

		count, err := ing.Ingest(ctx, registrationID, []byte(rosterCSV), "roster.csv")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		require.Len(t, store.rows, 3)

		first := store.rows[0]
		assert.Equal(t, registrationID, first.RegistrationID)
		assert.Equal(t, "Asha Rao", first.Name)
		assert.Equal(t, "CSE", first.Branch)
		assert.Equal(t, 3, first.Year)
		assert.Equal(t, 87.5, first.Percentage)

		// Percent sign and non-numeric cells parse leniently.
		assert.Equal(t, 78.25, store.rows[2].Percentage)

		assert.Equal(t, []uuid.UUID{registrationID}, completer.completed)
	})

	t.Run("xlsx roster parses through the workbook reader", func(t *testing.T) {
		data := buildXLSX(t, [][]string{
			{"Name", "Email", "Contact", "Degree", "Branch", "Year", "Percentage"},
			{"Asha Rao", "asha@example.in", "9876543210", "BTech", "CSE", "3", "87.5"},
			{"Vikram Iyer", "vikram@example.in", "9876543211", "BTech", "ECE", "2", "91"},
		})
		store := &fakeBatchWriter{}
		completer := &fakeCompleter{}
		ing := NewIngestor(store, completer, nil)

		count, err := ing.Ingest(ctx, uuid.New(), data, "roster.xlsx")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, "Vikram Iyer", store.rows[1].Name)
		assert.Len(t, completer.completed, 1)
	})

	t.Run("missing columns reject the file before any write", func(t *testing.T) {
		csv := "Name,Email,Contact,Degree,Branch,Year\n" +
			"Asha Rao,asha@example.in,9876543210,BTech,CSE,3\n"
		store := &fakeBatchWriter{}
		completer := &fakeCompleter{}
		ing := NewIngestor(store, completer, nil)

		_, err := ing.Ingest(ctx, uuid.New(), []byte(csv), "roster.csv")
		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"Percentage"}, missing.Missing)
		assert.Equal(t, RequiredColumns, missing.Required)
		assert.Empty(t, store.rows)
		assert.Empty(t, completer.completed)
	})

	t.Run("column match is case-sensitive", func(t *testing.T) {
		csv := "name,email,contact,degree,branch,year,percentage\n" +
			"Asha Rao,asha@example.in,9876543210,BTech,CSE,3,87.5\n"
		ing := NewIngestor(&fakeBatchWriter{}, &fakeCompleter{}, nil)

		_, err := ing.Ingest(ctx, uuid.New(), []byte(csv), "roster.csv")
		var missing *MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Missing, len(RequiredColumns))
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		ing := NewIngestor(&fakeBatchWriter{}, &fakeCompleter{}, nil)
		_, err := ing.Ingest(ctx, uuid.New(), []byte("whatever"), "roster.pdf")
		require.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		ing := NewIngestor(&fakeBatchWriter{}, &fakeCompleter{}, nil)
		_, err := ing.Ingest(ctx, uuid.New(), []byte(""), "roster.csv")
		require.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("batch failure leaves the upload incomplete", func(t *testing.T) {
		store := &fakeBatchWriter{err: errors.New("connection reset")}
		completer := &fakeCompleter{}
		ing := NewIngestor(store, completer, nil)

		_, err := ing.Ingest(ctx, uuid.New(), []byte(rosterCSV), "roster.csv")
		require.ErrorIs(t, err, ErrPartialIngestion)
		assert.Empty(t, completer.completed, "uploadLater must stay set so the upload can be retried")
	})
}

func TestValidateColumns(t *testing.T) {
	t.Run("extra columns are fine", func(t *testing.T) {
		cols := append([]string{"SerialNo"}, RequiredColumns...)
		assert.Nil(t, ValidateColumns(cols))
	})

	t.Run("reports every missing column", func(t *testing.T) {
		missing := ValidateColumns([]string{"Name", "Email"})
		require.NotNil(t, missing)
		assert.Equal(t, []string{"Contact", "Degree", "Branch", "Year", "Percentage"}, missing.Missing)
	})
}

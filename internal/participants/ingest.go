// Package participants ingests uploaded roster files into participant records.
package participants

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/learnathon-live/backend/internal/models"
)

// RequiredColumns are the roster header names that must be present, matched
// exactly (case-sensitive).
var RequiredColumns = []string{"Name", "Email", "Contact", "Degree", "Branch", "Year", "Percentage"}

var (
	// ErrUnsupportedFileType means the upload is neither CSV nor a spreadsheet.
	ErrUnsupportedFileType = errors.New("unsupported file type, upload a CSV or Excel file")
	// ErrEmptyFile means the file has no header row.
	ErrEmptyFile = errors.New("file has no rows")
	// ErrPartialIngestion means some batches were written and some were not.
	// The registration's uploadLater flag is left untouched so the upload can
	// be retried; retrying may duplicate already-written rows.
	ErrPartialIngestion = errors.New("participant ingestion incomplete")
)

// MissingColumnsError reports required roster columns absent from the upload.
type MissingColumnsError struct {
	Missing  []string
	Required []string
	Given    []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("file is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseRoster parses an uploaded roster into header columns and rows of named
// fields, using the first row as header. The format is chosen by file
// extension: .csv, or .xlsx/.xls/.ods via the spreadsheet reader.
func ParseRoster(data []byte, filename string) (columns []string, rows []map[string]string, err error) {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
	case "csv":
		return parseCSV(data)
	case "xlsx", "xls", "ods":
		return parseWorkbook(data)
	default:
		return nil, nil, ErrUnsupportedFileType
	}
}

func parseCSV(data []byte) ([]string, []map[string]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	return tabulate(records)
}

func parseWorkbook(data []byte) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	return tabulate(records)
}

func tabulate(records [][]string) ([]string, []map[string]string, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}
	columns := make([]string, len(records[0]))
	for i, col := range records[0] {
		columns[i] = strings.TrimSpace(col)
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// ValidateColumns checks the header against RequiredColumns. Returns nil when
// all required columns are present.
func ValidateColumns(columns []string) *MissingColumnsError {
	given := make(map[string]bool, len(columns))
	for _, col := range columns {
		given[col] = true
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !given[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Missing: missing, Required: RequiredColumns, Given: columns}
}

// BatchWriter bulk-writes participants, batched within the store's per-write limit.
type BatchWriter interface {
	BulkInsert(ctx context.Context, registrationID uuid.UUID, parts []models.Participant) error
}

// UploadCompleter marks the registration's roster as ingested.
type UploadCompleter interface {
	CompleteUpload(ctx context.Context, registrationID uuid.UUID) error
}

// Ingestor turns an uploaded roster file into participant records: parse,
// validate columns, bulk-write, then flip the registration's uploadLater flag.
type Ingestor struct {
	store    BatchWriter
	workflow UploadCompleter
	logger   *zap.Logger
}

// NewIngestor creates the roster ingestor.
func NewIngestor(store BatchWriter, workflow UploadCompleter, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{store: store, workflow: workflow, logger: logger}
}

// Ingest processes one uploaded roster for a registration and returns the
// number of rows written. Either all rows are inserted and uploadLater flips,
// or (on missing columns) nothing is written; a batch failure surfaces as
// ErrPartialIngestion with uploadLater left unchanged.
func (i *Ingestor) Ingest(ctx context.Context, registrationID uuid.UUID, data []byte, filename string) (int, error) {
	columns, rows, err := ParseRoster(data, filename)
	if err != nil {
		return 0, err
	}
	if missing := ValidateColumns(columns); missing != nil {
		return 0, missing
	}

	parts := make([]models.Participant, len(rows))
	for n, row := range rows {
		parts[n] = models.Participant{
			RegistrationID: registrationID,
			Name:           row["Name"],
			Email:          row["Email"],
			Contact:        row["Contact"],
			Degree:         row["Degree"],
			Branch:         row["Branch"],
			Year:           parseYear(row["Year"]),
			Percentage:     parsePercentage(row["Percentage"]),
		}
	}

	if err := i.store.BulkInsert(ctx, registrationID, parts); err != nil {
		i.logger.Error("participant bulk insert failed",
			zap.Error(err),
			zap.String("registration_id", registrationID.String()),
			zap.Int("rows", len(parts)),
		)
		return 0, fmt.Errorf("%w: %v", ErrPartialIngestion, err)
	}

	if err := i.workflow.CompleteUpload(ctx, registrationID); err != nil {
		return 0, err
	}
	return len(parts), nil
}

// Roster cells are user-supplied; numeric fields parse leniently to zero
// rather than failing the whole upload.
func parseYear(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parsePercentage(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	return f
}

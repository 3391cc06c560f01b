package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/secondview/labextract/constants"
	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
)

// Run is one processing run in the audit log. The biomarker list is
// stored as a JSON column; the log is an audit trail, not the source
// of truth for responses.
type Run struct {
	ID             string                `json:"id"`
	Filename       string                `json:"filename"`
	Status         constants.RunStatus   `json:"status"`
	PageCount      int                   `json:"pageCount"`
	OCRConfidence  float64               `json:"ocrConfidence"`
	BiomarkerCount int                   `json:"biomarkerCount"`
	Biomarkers     []biomarker.Extracted `json:"biomarkers"`
	Error          string                `json:"error,omitempty"`
	ProcessingMS   int64                 `json:"processingTimeMs"`
	CreatedAt      time.Time             `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	status          TEXT NOT NULL,
	page_count      INTEGER NOT NULL DEFAULT 0,
	ocr_confidence  REAL NOT NULL DEFAULT 0,
	biomarker_count INTEGER NOT NULL DEFAULT 0,
	biomarkers      TEXT NOT NULL DEFAULT '[]',
	error           TEXT NOT NULL DEFAULT '',
	processing_ms   INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);
`

// Store is the sqlite-backed run log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the run log at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap run log schema: %w", err)
	}
	logger.Info("run log ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new run in QUEUED state.
func (s *Store) StartRun(ctx context.Context, id, filename string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, filename, status, created_at) VALUES (?, ?, ?, ?)`,
		id, filename, string(constants.RunStatusQueued), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// MarkRunning flips a run to RUNNING when processing begins.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`,
		string(constants.RunStatusRunning), id,
	)
	return err
}

// FinishSuccess marks a run COMPLETED with its results.
func (s *Store) FinishSuccess(ctx context.Context, id string, pageCount int, ocrConfidence float64, biomarkers []biomarker.Extracted, processingMS int64) error {
	blob, err := json.Marshal(biomarkers)
	if err != nil {
		return fmt.Errorf("marshal biomarkers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, page_count = ?, ocr_confidence = ?, biomarker_count = ?, biomarkers = ?, processing_ms = ? WHERE id = ?`,
		string(constants.RunStatusCompleted), pageCount, ocrConfidence, len(biomarkers), string(blob), processingMS, id,
	)
	return err
}

// FinishFailure marks a run FAILED with its error message.
func (s *Store) FinishFailure(ctx context.Context, id, errMsg string, processingMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, processing_ms = ? WHERE id = ?`,
		string(constants.RunStatusFailed), errMsg, processingMS, id,
	)
	return err
}

// GetRun fetches one run by ID. Returns common.ErrNotFound when the
// ID is unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, page_count, ocr_confidence, biomarker_count, biomarkers, error, processing_ms, created_at FROM runs WHERE id = ?`,
		id,
	)

	var r Run
	var status, blob, createdAt string
	err := row.Scan(&r.ID, &r.Filename, &status, &r.PageCount, &r.OCRConfidence, &r.BiomarkerCount, &blob, &r.Error, &r.ProcessingMS, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	r.Status = constants.RunStatus(status)
	if err := json.Unmarshal([]byte(blob), &r.Biomarkers); err != nil {
		return nil, fmt.Errorf("decode biomarkers: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

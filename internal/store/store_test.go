package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondview/labextract/constants"
	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycleSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "run-1", "labs.pdf"))

	biomarkers := []biomarker.Extracted{{
		Name:           "hemoglobin",
		DisplayName:    "Hemoglobin",
		Value:          150,
		Unit:           "g/L",
		NormalRangeMin: 120,
		NormalRangeMax: 180,
		Category:       "Complete Blood Count",
		Confidence:     0.85,
		RawText:        "Hemoglobin 15.0 g/dL",
	}}
	require.NoError(t, s.FinishSuccess(ctx, "run-1", 3, 91.5, biomarkers, 4200))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "labs.pdf", run.Filename)
	assert.Equal(t, constants.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.PageCount)
	assert.Equal(t, 91.5, run.OCRConfidence)
	assert.Equal(t, 1, run.BiomarkerCount)
	assert.Equal(t, int64(4200), run.ProcessingMS)
	assert.False(t, run.CreatedAt.IsZero())

	require.Len(t, run.Biomarkers, 1)
	assert.Equal(t, biomarkers[0], run.Biomarkers[0])
}

func TestRunLifecycleFailure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "run-2", "scan.pdf"))
	require.NoError(t, s.FinishFailure(ctx, "run-2", "CONVERSION_FAILED: pdftoppm: not a pdf", 310))

	run, err := s.GetRun(ctx, "run-2")
	require.NoError(t, err)

	assert.Equal(t, constants.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "pdftoppm")
	assert.Equal(t, int64(310), run.ProcessingMS)
	assert.Empty(t, run.Biomarkers)
}

func TestRunQueuedThenRunning(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "run-3", "inflight.pdf"))

	run, err := s.GetRun(ctx, "run-3")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusQueued, run.Status)

	require.NoError(t, s.MarkRunning(ctx, "run-3"))

	run, err = s.GetRun(ctx, "run-3")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, run.Status)
}

func TestGetRunUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.StartRun(context.Background(), "run-4", "a.pdf"))
	require.NoError(t, first.Close())

	// Reopening keeps existing rows.
	second, err := Open(path, nil)
	require.NoError(t, err)
	defer second.Close()

	run, err := second.GetRun(context.Background(), "run-4")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", run.Filename)
}

package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine returns canned pages and tracks concurrency.
type fakeEngine struct {
	mu         sync.Mutex
	inFlight   int
	maxSeen    int
	failOn     string
	confidence map[string]float64
}

func (f *fakeEngine) Recognize(_ context.Context, imagePath string) (Page, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	base := filepath.Base(imagePath)
	if f.failOn != "" && strings.Contains(base, f.failOn) {
		return Page{}, errors.New("unreadable page")
	}

	conf := 90.0
	if f.confidence != nil {
		if c, ok := f.confidence[base]; ok {
			conf = c
		}
	}
	return Page{Text: "text of " + base, Confidence: conf}, nil
}

func TestRecognizeEmptyInput(t *testing.T) {
	r := NewRecognizer(&fakeEngine{}, 3, nil)
	res, err := r.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, res)
}

func TestRecognizeJoinsPagesInOrder(t *testing.T) {
	paths := []string{"page-1.png", "page-2.png", "page-3.png", "page-4.png", "page-5.png"}
	r := NewRecognizer(&fakeEngine{}, 3, nil)

	res, err := r.Recognize(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, 5, res.PageCount)
	parts := strings.Split(res.FullText, PageBreakMarker)
	require.Len(t, parts, 5)
	for i, p := range parts {
		assert.Equal(t, fmt.Sprintf("text of page-%d.png", i+1), p)
	}
}

func TestRecognizeMeanConfidence(t *testing.T) {
	engine := &fakeEngine{confidence: map[string]float64{
		"page-1.png": 80,
		"page-2.png": 90,
		"page-3.png": 100,
	}}
	r := NewRecognizer(engine, 3, nil)

	res, err := r.Recognize(context.Background(), []string{"page-1.png", "page-2.png", "page-3.png"})
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.Confidence)
}

func TestRecognizePageFailureFailsDocument(t *testing.T) {
	engine := &fakeEngine{failOn: "page-2"}
	r := NewRecognizer(engine, 3, nil)

	_, err := r.Recognize(context.Background(), []string{"page-1.png", "page-2.png", "page-3.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
}

func TestRecognizeRespectsBatchSize(t *testing.T) {
	engine := &fakeEngine{}
	r := NewRecognizer(engine, 3, nil)

	paths := make([]string, 10)
	for i := range paths {
		paths[i] = fmt.Sprintf("page-%d.png", i+1)
	}
	_, err := r.Recognize(context.Background(), paths)
	require.NoError(t, err)
	assert.LessOrEqual(t, engine.maxSeen, 3)
}

func TestRecognizeBatchSizeDefault(t *testing.T) {
	r := NewRecognizer(&fakeEngine{}, 0, nil)
	assert.Equal(t, DefaultBatchSize, r.batchSize)
}

func TestPageBreakMarkerHasNoDigits(t *testing.T) {
	// The marker is injected into text that regex rules scan, so it
	// must never introduce numbers.
	assert.NotRegexp(t, `\d`, PageBreakMarker)
}

func TestPreprocessImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page-1.png")
	writeTestPNG(t, src)

	out, err := preprocessImage(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "page-1_processed.png"), out)
	assert.FileExists(t, out)
}

func TestPreprocessImageMissingFile(t *testing.T) {
	_, err := preprocessImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
	"github.com/secondview/labextract/internal/ocr"
	"github.com/secondview/labextract/internal/pdf"
)

// stubRunner stands in for pdftoppm.
type stubRunner struct {
	pages int
	err   error
}

func (s stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	if s.err != nil {
		return nil, []byte("conversion error"), s.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= s.pages; i++ {
		if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

// stubEngine returns the same text for every page.
type stubEngine struct {
	text string
	conf float64
	err  error
}

func (s stubEngine) Recognize(context.Context, string) (ocr.Page, error) {
	if s.err != nil {
		return ocr.Page{}, s.err
	}
	return ocr.Page{Text: s.text, Confidence: s.conf}, nil
}

func newProcessor(t *testing.T, runner pdf.Runner, engine ocr.Engine) (*Processor, string) {
	t.Helper()
	tempRoot := t.TempDir()
	rasterizer := pdf.NewRasterizer("pdftoppm", 300, tempRoot, runner, nil)
	recognizer := ocr.NewRecognizer(engine, 3, nil)
	extractor := biomarker.NewExtractor(biomarker.DefaultCatalog())
	return NewProcessor(rasterizer, recognizer, extractor, 0, nil), tempRoot
}

func TestProcessEndToEnd(t *testing.T) {
	p, tempRoot := newProcessor(t,
		stubRunner{pages: 2},
		stubEngine{text: "Hemoglobin 15.0 g/dL\nGlucose Fasting 95 mg/dL", conf: 92},
	)

	res, err := p.Process(context.Background(), "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, 2, res.PageCount)
	assert.Equal(t, 92.0, res.OCRConfidence)
	assert.Contains(t, res.RawText, ocr.PageBreakMarker)
	assert.True(t, res.Elapsed >= 0)

	require.Len(t, res.Biomarkers, 2)
	assert.Equal(t, "hemoglobin", res.Biomarkers[0].Name)
	assert.Equal(t, 150.0, res.Biomarkers[0].Value)
	assert.Equal(t, "glucose", res.Biomarkers[1].Name)
	assert.Equal(t, 5.28, res.Biomarkers[1].Value)

	// Scratch pages are cleaned up on success.
	entries, err := os.ReadDir(tempRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessNoBiomarkersIsSuccess(t *testing.T) {
	p, _ := newProcessor(t,
		stubRunner{pages: 1},
		stubEngine{text: "Patient Name: Jane Doe", conf: 88},
	)

	res, err := p.Process(context.Background(), "cover-letter.pdf")
	require.NoError(t, err)
	require.NotNil(t, res.Biomarkers)
	assert.Empty(t, res.Biomarkers)
}

func TestProcessConversionFailure(t *testing.T) {
	p, tempRoot := newProcessor(t,
		stubRunner{err: errors.New("exit status 1")},
		stubEngine{},
	)

	_, err := p.Process(context.Background(), "broken.pdf")
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeConversion, appErr.Code)

	entries, rerr := os.ReadDir(tempRoot)
	require.NoError(t, rerr)
	assert.Empty(t, entries)
}

// blockingEngine never finishes a page; it only returns once the
// context is cancelled.
type blockingEngine struct{}

func (blockingEngine) Recognize(ctx context.Context, _ string) (ocr.Page, error) {
	<-ctx.Done()
	return ocr.Page{}, ctx.Err()
}

func TestProcessTimeout(t *testing.T) {
	tempRoot := t.TempDir()
	rasterizer := pdf.NewRasterizer("pdftoppm", 300, tempRoot, stubRunner{pages: 1}, nil)
	recognizer := ocr.NewRecognizer(blockingEngine{}, 3, nil)
	extractor := biomarker.NewExtractor(biomarker.DefaultCatalog())
	p := NewProcessor(rasterizer, recognizer, extractor, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := p.Process(context.Background(), "slow.pdf")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Contains(t, err.Error(), context.DeadlineExceeded.Error())

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeProcessing, appErr.Code)

	// Scratch pages are cleaned up when the deadline fires mid-OCR.
	entries, rerr := os.ReadDir(tempRoot)
	require.NoError(t, rerr)
	assert.Empty(t, entries)
}

func TestProcessOCRFailure(t *testing.T) {
	p, tempRoot := newProcessor(t,
		stubRunner{pages: 1},
		stubEngine{err: errors.New("tesseract crashed")},
	)

	_, err := p.Process(context.Background(), "report.pdf")
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeProcessing, appErr.Code)
	assert.ErrorIs(t, err, common.ErrRecognition)

	// Scratch pages are cleaned up even when OCR fails.
	entries, rerr := os.ReadDir(tempRoot)
	require.NoError(t, rerr)
	assert.Empty(t, entries)
}

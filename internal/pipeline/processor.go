package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
	"github.com/secondview/labextract/internal/ocr"
	"github.com/secondview/labextract/internal/pdf"
)

// Result is the outcome of one full pipeline run.
type Result struct {
	Biomarkers    []biomarker.Extracted
	RawText       string
	PageCount     int
	OCRConfidence float64
	Elapsed       time.Duration
}

// Processor chains rasterize -> recognize -> extract for one document.
// Rasterization and OCR dominate latency and run under a hard timeout;
// extraction is pure CPU over in-memory text and runs without one.
type Processor struct {
	rasterizer *pdf.Rasterizer
	recognizer *ocr.Recognizer
	extractor  *biomarker.Extractor
	timeout    time.Duration
	logger     *slog.Logger
}

func NewProcessor(rasterizer *pdf.Rasterizer, recognizer *ocr.Recognizer, extractor *biomarker.Extractor, timeout time.Duration, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		rasterizer: rasterizer,
		recognizer: recognizer,
		extractor:  extractor,
		timeout:    timeout,
		logger:     logger,
	}
}

// Process runs the full pipeline on a PDF. The scratch directory is
// released on every exit path. Zero extracted biomarkers is a valid
// result, not an error.
func (p *Processor) Process(ctx context.Context, pdfPath string) (*Result, error) {
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rast, err := p.rasterizer.Rasterize(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	defer rast.Scratch.Release()

	p.logger.Info("pipeline.rasterize.ok", "pdf", pdfPath, "pages", rast.PageCount)

	ocrRes, err := p.recognizer.Recognize(ctx, rast.ImagePaths)
	if err != nil {
		p.logger.Error("pipeline.ocr.failed", "pdf", pdfPath, "error", err)
		return nil, common.NewAppError(common.CodeProcessing, fmt.Sprintf("ocr: %v", err), common.ErrRecognition)
	}
	p.logger.Info("pipeline.ocr.ok", "pages", ocrRes.PageCount, "confidence", ocrRes.Confidence)

	extracted := p.extractor.Extract(ocrRes.FullText)
	p.logger.Info("pipeline.extract.ok", "biomarkers", len(extracted))

	return &Result{
		Biomarkers:    extracted,
		RawText:       ocrRes.FullText,
		PageCount:     ocrRes.PageCount,
		OCRConfidence: ocrRes.Confidence,
		Elapsed:       time.Since(start),
	}, nil
}

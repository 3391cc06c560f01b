package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// PageBreakMarker joins page texts. It is human-visible so the
// extractor could reason about page boundaries, and deliberately
// digit-free so it can never be mistaken for biomarker text.
const PageBreakMarker = "\n\n--- PAGE BREAK ---\n\n"

// DefaultBatchSize bounds peak memory/CPU while still parallelizing.
// A design constant, not a resource-detected value: keep configurable
// but conservative.
const DefaultBatchSize = 3

// Result is the recognizer output for a whole document.
type Result struct {
	FullText   string
	PageCount  int
	Confidence float64 // arithmetic mean of per-page confidence, 0-100
}

// Recognizer OCRs an ordered set of page images in fixed-size batches:
// batches run sequentially, pages within a batch run concurrently.
type Recognizer struct {
	engine    Engine
	batchSize int
	logger    *slog.Logger
}

func NewRecognizer(engine Engine, batchSize int, logger *slog.Logger) *Recognizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{engine: engine, batchSize: batchSize, logger: logger}
}

// Recognize returns concatenated text in page order plus the mean
// confidence. Any page failure fails the whole call; partial results
// are never returned.
func (r *Recognizer) Recognize(ctx context.Context, imagePaths []string) (*Result, error) {
	if len(imagePaths) == 0 {
		return &Result{}, nil
	}

	pages := make([]Page, len(imagePaths))

	for start := 0; start < len(imagePaths); start += r.batchSize {
		end := start + r.batchSize
		if end > len(imagePaths) {
			end = len(imagePaths)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				path := imagePaths[i]
				if processed, err := preprocessImage(path); err == nil {
					path = processed
				} else {
					r.logger.Debug("preprocess failed, using original", "image", path, "error", err)
				}

				page, err := r.engine.Recognize(gctx, path)
				if err != nil {
					return fmt.Errorf("page %d: %w", i+1, err)
				}
				pages[i] = page
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(pages))
	var totalConfidence float64
	for i, p := range pages {
		texts[i] = p.Text
		totalConfidence += p.Confidence
	}

	result := &Result{
		FullText:   strings.Join(texts, PageBreakMarker),
		PageCount:  len(imagePaths),
		Confidence: totalConfidence / float64(len(pages)),
	}
	r.logger.Debug("ocr complete", "pages", result.PageCount, "confidence", result.Confidence)
	return result, nil
}

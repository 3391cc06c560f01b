package ocr

import "context"

// Page is one recognized page: its text and the engine's self-reported
// confidence on a 0-100 scale.
type Page struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in a single page image. Implementations own
// any per-run engine lifecycle.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (Page, error)
}

// Runner is the subprocess seam, declared here so the package depends
// only on what it consumes. pdf.ExecRunner satisfies it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

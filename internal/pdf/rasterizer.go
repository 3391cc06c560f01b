package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/secondview/labextract/internal/common"
)

// ScratchDir is the per-request temp area holding rasterized pages
// (and any preprocessed variants written next to them). Release is
// best-effort: deletion failures are logged, never returned, so
// cleanup can't mask the primary result or error.
type ScratchDir struct {
	Path   string
	logger *slog.Logger
}

func (s *ScratchDir) Release() {
	if s == nil || s.Path == "" {
		return
	}
	if err := os.RemoveAll(s.Path); err != nil {
		s.logger.Error("scratch cleanup failed", "path", s.Path, "error", err)
	}
	s.Path = ""
}

// Result is an ordered set of rendered page images.
type Result struct {
	ImagePaths []string
	PageCount  int
	Scratch    *ScratchDir
}

// Rasterizer converts a PDF into one PNG per page via pdftoppm.
type Rasterizer struct {
	binary   string
	dpi      int
	tempRoot string
	runner   Runner
	logger   *slog.Logger
}

func NewRasterizer(binary string, dpi int, tempRoot string, runner Runner, logger *slog.Logger) *Rasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		// 300 DPI is the practical floor for reliable character
		// recognition.
		dpi = 300
	}
	if tempRoot == "" {
		tempRoot = filepath.Join("uploads", "temp")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &Rasterizer{binary: binary, dpi: dpi, tempRoot: tempRoot, runner: runner, logger: logger}
}

var rePageIndex = regexp.MustCompile(`page-(\d+)\.png$`)

// Rasterize renders every page of the PDF at fixed DPI into a fresh
// scratch directory and returns the image paths in ascending page
// order. On failure the scratch directory is removed before the error
// propagates; on success the caller owns Scratch and must Release it.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) (*Result, error) {
	// Millisecond timestamps alone can collide under concurrent
	// uploads, so the directory key carries a random disambiguator.
	dirName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	outputDir := filepath.Join(r.tempRoot, dirName)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	scratch := &ScratchDir{Path: outputDir, logger: r.logger}

	prefix := filepath.Join(outputDir, "page")
	// pdftoppm -png -r 300 <in.pdf> <dir>/page
	_, errb, err := r.runner.Run(ctx, r.binary, "-png", "-r", strconv.Itoa(r.dpi), pdfPath, prefix)
	if err != nil {
		scratch.Release()
		return nil, common.NewAppError(common.CodeConversion, fmt.Sprintf("pdftoppm: %s", truncate(string(errb), 512)), common.ErrConversion)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		scratch.Release()
		return nil, common.NewAppError(common.CodeConversion, "pdftoppm produced no images", common.ErrConversion)
	}
	sortByPageIndex(matches)

	r.logger.Debug("rasterized pdf", "pdf", pdfPath, "pages", len(matches), "dpi", r.dpi)
	return &Result{ImagePaths: matches, PageCount: len(matches), Scratch: scratch}, nil
}

// sortByPageIndex orders pages numerically. pdftoppm zero-pads page
// numbers to the width of the last page, but a lexicographic sort
// would still misorder 10+ page documents if that ever changes, so
// the numeric index in the filename is authoritative.
func sortByPageIndex(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return pageIndex(paths[i]) < pageIndex(paths[j])
	})
}

func pageIndex(path string) int {
	m := rePageIndex.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

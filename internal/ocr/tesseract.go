package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TesseractConfig configures the tesseract binary invocation.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for a uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use the default
}

// TesseractEngine shells out to tesseract: one run for the page text,
// one TSV run for the mean word confidence.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
}

func NewTesseractEngine(cfg TesseractConfig, runner Runner) *TesseractEngine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &TesseractEngine{cfg: cfg, runner: runner}
}

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (Page, error) {
	text, err := e.recognizeText(ctx, imagePath)
	if err != nil {
		return Page{}, err
	}
	conf, err := e.tsvConfidence(ctx, imagePath)
	if err != nil {
		// Text came through; a failed confidence pass degrades to 0
		// rather than failing the page.
		conf = 0
	}
	return Page{Text: text, Confidence: conf}, nil
}

func (e *TesseractEngine) recognizeText(ctx context.Context, imagePath string) (string, error) {
	args := e.baseArgs(imagePath)
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// tsvConfidence runs tesseract in TSV mode and returns the mean word
// confidence on a 0-100 scale.
func (e *TesseractEngine) tsvConfidence(ctx context.Context, imagePath string) (float64, error) {
	args := append(e.baseArgs(imagePath), "tsv")
	out, _, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}

	lines := strings.Split(string(out), "\n")
	// TSV columns: level..height, conf, text. conf is column 11;
	// -1 marks non-word rows (blocks, lines) and is skipped.
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

func (e *TesseractEngine) baseArgs(imagePath string) []string {
	args := []string{imagePath, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

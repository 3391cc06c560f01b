package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/secondview/labextract/constants"
	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
	"github.com/secondview/labextract/internal/export"
	"github.com/secondview/labextract/internal/pipeline"
	"github.com/secondview/labextract/internal/store"
)

// Handler serves the OCR processing API.
type Handler struct {
	processor *pipeline.Processor
	store     *store.Store
	exporter  *export.Service
	uploadDir string
	logger    *slog.Logger
}

func NewHandler(processor *pipeline.Processor, st *store.Store, exporter *export.Service, uploadDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		processor: processor,
		store:     st,
		exporter:  exporter,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// processResponse is the data payload for a successful processing call.
type processResponse struct {
	ExtractedBiomarkers []biomarker.Extracted `json:"extractedBiomarkers"`
	RawOCRText          string                `json:"rawOcrText"`
	PageCount           int                   `json:"pageCount"`
	OCRConfidence       float64               `json:"ocrConfidence"`
	ProcessingTimeMS    int64                 `json:"processingTimeMs"`
	RunID               string                `json:"runId"`
}

// Health reports liveness. Unlike the API endpoints it answers with a
// bare object, not the success envelope.
func (h *Handler) Health(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ProcessDocument accepts a multipart PDF upload, runs the full
// pipeline on it and returns the extracted biomarkers. The upload and
// all intermediate files are deleted before the response is written.
func (h *Handler) ProcessDocument(c flamego.Context) {
	req := c.Request().Request

	file, header, err := req.FormFile("file")
	if err != nil {
		writeError(c, common.CodeNoFile, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > constants.MaxUploadBytes {
		writeError(c, common.CodeFileTooLarge, fmt.Sprintf("file exceeds %d bytes", constants.MaxUploadBytes))
		return
	}

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if _, ok := constants.AllowedExtensions[ext]; !ok || contentType != constants.PDFMimeType {
		writeError(c, common.CodeUnsupportedType, "only PDF files are supported")
		return
	}

	pdfPath, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.logger.Error("save upload failed", "filename", header.Filename, "error", err)
		writeError(c, common.CodeProcessing, "could not store uploaded file")
		return
	}
	defer func() {
		if err := os.Remove(pdfPath); err != nil {
			h.logger.Warn("upload cleanup failed", "path", pdfPath, "error", err)
		}
	}()

	runID := uuid.NewString()
	ctx := req.Context()
	// Run log writes survive a client disconnect; the log is the only
	// record of what happened to an abandoned request.
	logCtx := context.WithoutCancel(ctx)

	if err := h.store.StartRun(logCtx, runID, header.Filename); err != nil {
		h.logger.Error("run log start failed", "run_id", runID, "error", err)
	}
	if err := h.store.MarkRunning(logCtx, runID); err != nil {
		h.logger.Error("run log update failed", "run_id", runID, "error", err)
	}

	start := time.Now()
	result, err := h.processor.Process(ctx, pdfPath)
	if err != nil {
		elapsed := time.Since(start).Milliseconds()
		if ferr := h.store.FinishFailure(logCtx, runID, err.Error(), elapsed); ferr != nil {
			h.logger.Error("run log finish failed", "run_id", runID, "error", ferr)
		}

		var appErr *common.AppError
		if errors.As(err, &appErr) {
			writeError(c, appErr.Code, appErr.Message)
			return
		}
		writeError(c, common.CodeProcessing, "document processing failed")
		return
	}

	elapsed := result.Elapsed.Milliseconds()
	if err := h.store.FinishSuccess(logCtx, runID, result.PageCount, result.OCRConfidence, result.Biomarkers, elapsed); err != nil {
		h.logger.Error("run log finish failed", "run_id", runID, "error", err)
	}

	writeSuccess(c, processResponse{
		ExtractedBiomarkers: result.Biomarkers,
		RawOCRText:          result.RawText,
		PageCount:           result.PageCount,
		OCRConfidence:       result.OCRConfidence,
		ProcessingTimeMS:    elapsed,
		RunID:               runID,
	})
}

// GetRun returns one run from the audit log.
func (h *Handler) GetRun(c flamego.Context) {
	id := c.Param("id")
	run, err := h.store.GetRun(c.Request().Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(c, common.CodeNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("run lookup failed", "run_id", id, "error", err)
		writeError(c, common.CodeProcessing, "run lookup failed")
		return
	}
	writeSuccess(c, run)
}

// ExportRun serves a run's biomarkers as an XLSX attachment.
func (h *Handler) ExportRun(c flamego.Context) {
	id := c.Param("id")
	run, err := h.store.GetRun(c.Request().Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(c, common.CodeNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("run lookup failed", "run_id", id, "error", err)
		writeError(c, common.CodeProcessing, "run lookup failed")
		return
	}

	data, err := h.exporter.RunReportXLSX(run)
	if err != nil {
		h.logger.Error("xlsx export failed", "run_id", id, "error", err)
		writeError(c, common.CodeProcessing, "export failed")
		return
	}

	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "run-"+id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("write export failed", "run_id", id, "error", err)
	}
}

// saveUpload writes the multipart file under the upload dir with a
// timestamp prefix so concurrent uploads of the same filename cannot
// collide.
func (h *Handler) saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(filename))
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

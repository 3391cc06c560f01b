package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/secondview/labextract/internal/biomarker"
	"github.com/secondview/labextract/internal/common"
	"github.com/secondview/labextract/internal/export"
	"github.com/secondview/labextract/internal/ocr"
	"github.com/secondview/labextract/internal/pdf"
	"github.com/secondview/labextract/internal/pipeline"
	"github.com/secondview/labextract/internal/server"
	"github.com/secondview/labextract/internal/store"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)

	// Env
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Biomarker catalog, with an optional JSON overlay from disk
	catalog, err := biomarker.LoadCatalog(cfg.Store.CatalogFile)
	if err != nil {
		log.Fatalf("loading biomarker catalog: %v", err)
	}
	log.Infow("catalog ready", "entries", len(catalog))

	// Run log
	st, err := store.Open(cfg.Store.DBPath, slogger)
	if err != nil {
		log.Fatalf("opening run log: %v", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Errorw("closing run log", "error", cerr)
		}
	}()

	// Pipeline
	runner := pdf.NewExecRunner(slogger)
	tempRoot := filepath.Join(cfg.Server.UploadDir, "temp")
	rasterizer := pdf.NewRasterizer(cfg.OCR.Pdftoppm, cfg.OCR.DPI, tempRoot, runner, slogger)
	engine := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Binary:      cfg.OCR.Tesseract,
		Lang:        cfg.OCR.TesseractLang,
		TessdataDir: cfg.OCR.TessdataDir,
	}, runner)
	recognizer := ocr.NewRecognizer(engine, cfg.OCR.BatchSize, slogger)
	extractor := biomarker.NewExtractor(catalog)
	processor := pipeline.NewProcessor(rasterizer, recognizer, extractor, cfg.OCR.ProcessTimeout, slogger)

	// HTTP server
	handler := server.NewHandler(processor, st, export.NewService(slogger), cfg.Server.UploadDir, slogger)
	router := server.NewRouter(handler, cfg.Server.FrontendURL)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("HTTP serving on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown", "error", err)
	}
	log.Info("stopped.")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joelkehle/dentalscan/internal/analyzer"
	"github.com/joelkehle/dentalscan/internal/catalog"
	"github.com/joelkehle/dentalscan/internal/interpret"
	"github.com/joelkehle/dentalscan/internal/operator"
	"github.com/joelkehle/dentalscan/internal/telemetry"
)

var version = "dev"

func main() {
	var (
		addr          = flag.String("addr", defaultAddr(), "Listen address")
		catalogPath   = flag.String("catalog", os.Getenv("DENTALSCAN_CATALOG"), "Catalog file (.yaml or .db); empty uses the built-in catalog")
		allowedOrigin = flag.String("allowed-origin", "http://localhost:5173", "Origin allowed by CORS; empty disables CORS headers")
		noPDF         = flag.Bool("no-pdf", false, "Disable the Chromium PDF renderer")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "dentalscan-server", version)
	if err != nil {
		logger.Fatal("telemetry setup failed", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	cfg, err := catalog.Load(ctx, *catalogPath)
	if err != nil {
		logger.Fatal("load catalog", zap.String("path", *catalogPath), zap.Error(err))
	}
	interp, err := interpret.New(cfg)
	if err != nil {
		logger.Fatal("invalid catalog", zap.String("path", *catalogPath), zap.Error(err))
	}

	an, err := analyzer.NewFromEnv(ctx)
	switch {
	case errors.Is(err, analyzer.ErrAnalyzerDisabled):
		logger.Info("image analysis disabled; /api/analyze will answer 503")
	case err != nil:
		logger.Warn("image analyzer unavailable; /api/analyze will answer 503", zap.Error(err))
	}

	var pdf operator.ReportPDFRenderer
	if !*noPDF {
		pdf = operator.NewChromiumPDFRenderer()
	}

	handler := operator.NewServer(interp, operator.ServerOptions{
		AllowedOrigin: *allowedOrigin,
		Analyzer:      an,
		PDFRenderer:   pdf,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("dentalscan listening",
		zap.String("addr", *addr),
		zap.Int("conditions", len(cfg.Catalog)),
		zap.Bool("analyzer", an != nil),
		zap.Bool("pdf", pdf != nil),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func defaultAddr() string {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return ":5000"
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

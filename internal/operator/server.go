package operator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/joelkehle/dentalscan/internal/analyzer"
	"github.com/joelkehle/dentalscan/internal/interpret"
	"github.com/joelkehle/dentalscan/internal/report"
)

const maxReportBytes = 5 << 20

var tracer trace.Tracer = otel.Tracer("github.com/joelkehle/dentalscan/internal/operator")

type ServerOptions struct {
	// AllowedOrigin is echoed in Access-Control-Allow-Origin. Empty disables CORS.
	AllowedOrigin string
	// Analyzer may be nil, in which case /api/analyze answers 503.
	Analyzer    analyzer.Analyzer
	PDFRenderer ReportPDFRenderer
	Logger      *zap.Logger
}

type Server struct {
	interp        *interpret.Interpreter
	analyzer      analyzer.Analyzer
	pdfRenderer   ReportPDFRenderer
	logger        *zap.Logger
	allowedOrigin string
}

func NewServer(interp *interpret.Interpreter, opts ServerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		interp:        interp,
		analyzer:      opts.Analyzer,
		pdfRenderer:   opts.PDFRenderer,
		logger:        logger,
		allowedOrigin: strings.TrimSpace(opts.AllowedOrigin),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/interpret", s.handleInterpret)
	mux.HandleFunc("/api/report-pdf", s.handleReportPDF)
	return s.withCORS(s.withTracing(mux))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, report.ErrorEnvelope{Success: false, Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.status_code", rec.status),
		)
		if rec.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, 200, map[string]any{
		"status":   "ok",
		"analyzer": s.analyzer != nil,
		"pdf":      s.pdfRenderer != nil,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, 200, s.interp.Config())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, analyzer.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(analyzer.MaxImageBytes + (1 << 20)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, 400, analyzer.ErrImageTooLarge.Error())
			return
		}
		writeError(w, 400, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, 400, "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, analyzer.MaxImageBytes+1))
	if err != nil {
		writeError(w, 400, "failed to read uploaded image")
		return
	}
	img, err := analyzer.ValidateImage(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		s.logger.Info("rejected upload", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, 400, uploadErrorMessage(err))
		return
	}
	if s.analyzer == nil {
		writeError(w, 503, "image analyzer unavailable")
		return
	}

	text, err := s.analyzer.Analyze(r.Context(), img)
	if err != nil {
		s.logger.Error("analyze image", zap.String("filename", img.Filename), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, 502, "Failed to analyze image. Please try again.")
		return
	}

	a := s.interp.Interpret(text)
	env := report.BuildResponse(a, &report.ImageMetadata{
		Filename: img.Filename,
		Format:   img.Format,
		Width:    img.Width,
		Height:   img.Height,
		Bytes:    len(img.Data),
	})
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("analysis.id", env.AnalysisID),
		attribute.Int("analysis.insights", len(env.Insights)),
	)
	s.logger.Info("analysis complete",
		zap.String("analysis_id", env.AnalysisID),
		zap.String("filename", img.Filename),
		zap.Int("insights", len(env.Insights)),
		zap.Bool("raw_fallback", a.Sections.Empty()),
	)
	writeJSON(w, 200, env)
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrImageTooLarge):
		return analyzer.ErrImageTooLarge.Error()
	default:
		return analyzer.ErrInvalidImage.Error()
	}
}

var errReportTooLarge = errors.New("report must be less than 5MB")

// readReportBody reads at most maxReportBytes; larger bodies fail with errReportTooLarge.
func readReportBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errReportTooLarge
		}
		return nil, err
	}
	return body, nil
}

// readReportText accepts either a raw text body or {"analysis": "..."}.
func readReportText(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := readReportBody(w, r)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Analysis string `json:"analysis"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return "", err
		}
		return req.Analysis, nil
	}
	return string(body), nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errReportTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, 400, "invalid request body")
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	text, err := readReportText(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, 400, "report text is required")
		return
	}
	writeJSON(w, 200, report.BuildResponse(s.interp.Interpret(text), nil))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.pdfRenderer == nil {
		writeError(w, 503, "pdf renderer unavailable")
		return
	}
	body, err := readReportBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		writeError(w, 400, "report body is required")
		return
	}

	// A saved envelope is re-rendered as is; anything else is report text.
	var env report.ResponseEnvelope
	if json.Unmarshal(body, &env) == nil && (env.Analysis != "" || env.AnalysisID != "") {
		env = report.RebuildResponse(env)
	} else {
		env = report.BuildResponse(s.interp.Interpret(string(body)), nil)
	}

	pdf, err := s.pdfRenderer.Render(r.Context(), env)
	if err != nil {
		s.logger.Error("render report pdf", zap.String("analysis_id", env.AnalysisID), zap.Error(err))
		writeError(w, 500, "failed to render pdf")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename("dental-report-"+env.AnalysisID)+`.pdf"`)
	w.WriteHeader(200)
	_, _ = w.Write(pdf)
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "report"
	}
	v = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
	return v
}

type ReportPDFRenderer interface {
	Render(ctx context.Context, env report.ResponseEnvelope) ([]byte, error)
}

// Package analyzer sends a dental image to an inference provider and returns
// its free-text report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const systemPrompt = "You are a dental imaging assistant reviewing a dental X-ray or intraoral photo. " +
	"You provide educational observations, not a diagnosis."

const userPrompt = `Analyze this dental image and write a report with exactly these headings:

## DETECTED CONDITIONS
One bullet per condition, with its severity (mild, moderate or severe) and a confidence percentage such as "82% confidence".

## AFFECTED AREAS
One bullet per tooth or region involved.

## DETAILED FINDINGS
Numbered observations.

## RECOMMENDATIONS
Numbered next steps for the patient.

Use plain markdown, no tables.`

const maxAttempts = 3

var ErrAnalyzerDisabled = errors.New("image analyzer disabled")

var ErrEmptyReport = errors.New("analyzer returned an empty report")

// Analyzer produces a free-text report for one image.
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (string, error)
}

var tracer trace.Tracer = otel.Tracer("github.com/joelkehle/dentalscan/internal/analyzer")

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// sleep waits d or until ctx is done. Swapped out in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// generateFunc performs one provider call.
type generateFunc func(ctx context.Context, img Image) (string, error)

// runWithRetry calls gen up to maxAttempts times, retrying transient transport
// failures and empty reports.
func runWithRetry(ctx context.Context, provider string, img Image, gen generateFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "analyzer."+provider, trace.WithAttributes(
		attribute.String("image.format", img.Format),
		attribute.Int("image.bytes", len(img.Data)),
	))
	defer span.End()

	vision, err := img.ForVision()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "image conversion failed")
		return "", err
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		span.SetAttributes(attribute.Int("analyzer.attempts", attempt))
		raw, err := gen(ctx, vision)
		if err != nil {
			class := classifyTransportError(err)
			if (class == failureTimeout || class == failureRateLimit || class == failureServer) && attempt < maxAttempts && ctx.Err() == nil {
				if waitErr := sleep(ctx, backoffDelay(attempt)); waitErr == nil {
					continue
				}
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "transport failure")
			return "", fmt.Errorf("%s transport failure: %w", provider, err)
		}
		report := CleanReport(raw)
		if report == "" {
			if attempt < maxAttempts {
				continue
			}
			span.SetStatus(codes.Error, "empty report")
			return "", fmt.Errorf("%s: %w", provider, ErrEmptyReport)
		}
		span.SetAttributes(attribute.Int("report.chars", len(report)))
		return report, nil
	}
	return "", fmt.Errorf("%s failed after retries", provider)
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode)
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Code != 0 {
		return classifyStatus(genaiErr.Code)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "status=5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4") || strings.Contains(msg, "status=4") || strings.Contains(msg, `": 4`):
		return failureClient
	default:
		return failureServer
	}
}

func classifyStatus(code int) failureClass {
	switch {
	case code == 408:
		return failureTimeout
	case code == 429:
		return failureRateLimit
	case code >= 500:
		return failureServer
	case code >= 400:
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

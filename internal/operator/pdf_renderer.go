package operator

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/joelkehle/dentalscan/internal/interpret"
	"github.com/joelkehle/dentalscan/internal/report"
)

const reportCSS = `body{font-family:"Helvetica Neue",Arial,sans-serif;color:#1f2937;background:#fff;padding:0.6rem;font-size:13px;line-height:1.5;}
.pdf-wrap{max-width:900px;margin:0 auto;}
.report-header{display:flex;justify-content:space-between;align-items:flex-start;border-bottom:2px solid #00897B;margin-bottom:1rem;padding-bottom:0.5rem;}
.report-meta{color:#44403c;} .report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;border-radius:999px;padding:0.15rem 0.6rem;font-weight:700;font-size:0.75rem;margin-left:0.3rem;border:1px solid #d6d3d1;}
.report-html h2[data-section="true"]{border-left:4px solid #00897B;padding-left:0.5rem;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{@page{size:auto;margin:12mm;} body{padding:0;}}`

type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, env report.ResponseEnvelope) ([]byte, error) {
	htmlDoc, err := buildHTML(env)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("chromium print: %w", err)
	}
	return pdf, nil
}

func buildHTML(env report.ResponseEnvelope) (string, error) {
	contentHTML, err := report.RenderHTML(env.ReportMarkdown)
	if err != nil {
		return "", err
	}
	contentHTML = applyPrintLayoutHooks(contentHTML)
	return "<!doctype html><html><head><meta charset='utf-8'><title>Dental Scan Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='pdf-wrap'><section class='report-viewer'><div class='report-header'>" +
		"<div class='report-meta'>" + buildMetaHTML(env) + "</div>" +
		"<div class='report-badges'>" + buildBadgeHTML(env) + "</div>" +
		"</div><div class='report-html'>" + contentHTML + "</div></section></div>" +
		"</body></html>", nil
}

var (
	reMarkedAreas    = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Marked Areas\s*</h2>`)
	reSectionHeading = regexp.MustCompile(`(?i)<h2([^>]*)>\s*(Detected Conditions|Affected Areas|Detailed Findings|Professional Recommendations|Analysis Report)\s*</h2>`)
)

func applyPrintLayoutHooks(contentHTML string) string {
	out := reMarkedAreas.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Marked Areas</h2>`)
	return reSectionHeading.ReplaceAllString(out, `<h2$1 data-section="true">$2</h2>`)
}

func buildMetaHTML(env report.ResponseEnvelope) string {
	var out strings.Builder
	if env.AnalysisID != "" {
		out.WriteString("<div><strong>Reference:</strong> " + html.EscapeString(env.AnalysisID) + "</div>")
	}
	if env.Image != nil && env.Image.Filename != "" {
		out.WriteString("<div><strong>Image:</strong> " + html.EscapeString(env.Image.Filename) + "</div>")
	}
	if !env.GeneratedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(env.GeneratedAt.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	return out.String()
}

// buildBadgeHTML shows the most severe insight so the first page carries the headline.
func buildBadgeHTML(env report.ResponseEnvelope) string {
	if len(env.Insights) == 0 {
		return ""
	}
	top := env.Insights[0]
	for _, c := range env.Insights[1:] {
		if severityRank(c.Severity) > severityRank(top.Severity) {
			top = c
		}
	}
	color := top.ColorHex
	if color == "" {
		color = top.Color.Hex()
	}
	return fmt.Sprintf("<span class='report-badge' style='color:%s;border-color:%s'>%s: %s</span>",
		html.EscapeString(color), html.EscapeString(color), html.EscapeString(top.Condition), html.EscapeString(string(top.Severity)))
}

func severityRank(s interpret.Severity) int {
	switch s {
	case interpret.SeverityHigh:
		return 3
	case interpret.SeverityModerate:
		return 2
	case interpret.SeverityMild:
		return 1
	}
	return 0
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/business-scout/internal/scout"
)

const reportCSS = `
body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;margin:0;padding:0.6rem;line-height:1.45;}
.pdf-wrap{max-width:1000px;margin:0 auto;}
.report-header{border-bottom:2px solid #0f766e;margin-bottom:1rem;padding-bottom:0.5rem;}
.report-meta{color:#44403c;font-size:0.85rem;}
.report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;margin:0.2rem 0.3rem 0 0;padding:0.1rem 0.5rem;border-radius:0.6rem;font-size:0.75rem;font-weight:600;}
.verdict-PROMISING{background:#dcfce7;color:#14532d;border:1px solid #86efac;}
.verdict-NEEDS_WORK{background:#fef3c7;color:#78350f;border:1px solid #fcd34d;}
.verdict-NOT_VIABLE{background:#fee2e2;color:#7f1d1d;border:1px solid #fca5a5;}
.report-html a{color:#1d4ed8;text-decoration:underline;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
.report-html h3[data-idea-heading="true"]{border-top:1px solid #d6d3d1;padding-top:0.6rem;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .pdf-wrap{max-width:none;} }
`

var (
	reRankedIdeas = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Ranked Ideas\s*</h2>`)
	reIdeaHeading = regexp.MustCompile(`<h3([^>]*)>\s*([0-9]+\.\s[^<]*)\s*</h3>`)
)

// HTML renders a saved report artifact as a standalone HTML document.
func HTML(a scout.ReportArtifact) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(scout.BuildMarkdown(a)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Business Scout Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='pdf-wrap'><div class='report-header'>" +
		"<div class='report-meta'>" + buildMetaHTML(a) + "</div>" +
		"<div class='report-badges'>" + buildBadgeHTML(a) + "</div>" +
		"</div><div class='report-html'>" + applyPrintLayoutHooks(content.String()) + "</div></div>" +
		"</body></html>", nil
}

func applyPrintLayoutHooks(contentHTML string) string {
	out := reRankedIdeas.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Ranked Ideas</h2>`)
	return reIdeaHeading.ReplaceAllString(out, `<h3$1 data-idea-heading="true">$2</h3>`)
}

func buildMetaHTML(a scout.ReportArtifact) string {
	var out strings.Builder
	if a.RunID != "" {
		out.WriteString("<div><strong>Run:</strong> " + html.EscapeString(a.RunID) + "</div>")
	}
	if !a.GeneratedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(a.GeneratedAt.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	if a.Metadata.GeneratorMode != "" {
		out.WriteString("<div><strong>Generator:</strong> " + html.EscapeString(a.Metadata.GeneratorMode) + "</div>")
	}
	return out.String()
}

func buildBadgeHTML(a scout.ReportArtifact) string {
	counts := []struct {
		verdict scout.Verdict
		n       int
	}{
		{scout.VerdictPromising, a.Summary.PromisingCount},
		{scout.VerdictNeedsWork, a.Summary.NeedsWorkCount},
		{scout.VerdictNotViable, a.Summary.NotViableCount},
	}
	var out strings.Builder
	for _, c := range counts {
		if c.n == 0 {
			continue
		}
		fmt.Fprintf(&out, "<span class='report-badge verdict-%s'>%s: %d</span>", c.verdict, c.verdict, c.n)
	}
	return out.String()
}

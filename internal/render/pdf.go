package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PageSize is a paper size in inches.
type PageSize struct {
	Width  float64
	Height float64
}

var (
	PageA4     = PageSize{Width: 8.27, Height: 11.69}
	PageLetter = PageSize{Width: 8.5, Height: 11}
)

// ParsePageSize maps a flag value onto a paper size.
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return PageA4, nil
	case "letter":
		return PageLetter, nil
	default:
		return PageSize{}, fmt.Errorf("unknown paper size %q (want a4 or letter)", name)
	}
}

const pageFooter = `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
	`Business Scout report | Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// printFunc loads dataURL in a browser and prints it with params.
type printFunc func(ctx context.Context, chromePath, dataURL string, params *page.PrintToPDFParams) ([]byte, error)

// ChromiumPDFRenderer prints a standalone HTML report to PDF through headless Chromium.
type ChromiumPDFRenderer struct {
	chromePath string
	timeout    time.Duration
	paper      PageSize
	print      printFunc
}

type PDFOption func(*ChromiumPDFRenderer)

func WithPageSize(p PageSize) PDFOption {
	return func(r *ChromiumPDFRenderer) { r.paper = p }
}

func WithRenderTimeout(d time.Duration) PDFOption {
	return func(r *ChromiumPDFRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithChromePath overrides CHROME_PATH and the well-known install locations.
func WithChromePath(path string) PDFOption {
	return func(r *ChromiumPDFRenderer) { r.chromePath = path }
}

func NewChromiumPDFRenderer(opts ...PDFOption) *ChromiumPDFRenderer {
	r := &ChromiumPDFRenderer{
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
		paper:      PageA4,
		print:      chromiumPrint,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	if strings.TrimSpace(htmlDoc) == "" {
		return nil, errors.New("pdf: empty html document")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	out, err := r.print(ctx, r.chromePath, dataURL, r.printParams())
	if err != nil {
		return nil, fmt.Errorf("pdf: print: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("pdf: browser returned an empty document")
	}
	return out, nil
}

func (r *ChromiumPDFRenderer) printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(`<div></div>`).
		WithFooterTemplate(pageFooter).
		WithPaperWidth(r.paper.Width).
		WithPaperHeight(r.paper.Height).
		WithMarginTop(0.5).
		WithMarginBottom(0.75).
		WithMarginLeft(0.45).
		WithMarginRight(0.45)
}

func chromiumPrint(ctx context.Context, chromePath, dataURL string, params *page.PrintToPDFParams) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var out []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := params.Do(ctx)
			out = buf
			return err
		}),
	)
	return out, err
}

func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, p := range []string{"/usr/bin/chromium-browser", "/usr/bin/chromium", "/usr/bin/google-chrome"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

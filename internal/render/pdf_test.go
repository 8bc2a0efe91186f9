package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type printCall struct {
	chromePath string
	html       string
	params     *page.PrintToPDFParams
	deadline   time.Time
	hasDL      bool
}

func recordingPrinter(calls *[]printCall, out []byte, err error) printFunc {
	return func(ctx context.Context, chromePath, dataURL string, params *page.PrintToPDFParams) ([]byte, error) {
		raw, decodeErr := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:text/html;base64,"))
		if decodeErr != nil {
			return nil, decodeErr
		}
		dl, ok := ctx.Deadline()
		*calls = append(*calls, printCall{chromePath: chromePath, html: string(raw), params: params, deadline: dl, hasDL: ok})
		return out, err
	}
}

func TestRenderPassesDocumentAndLayout(t *testing.T) {
	var calls []printCall
	r := NewChromiumPDFRenderer(WithChromePath("/opt/chrome"), WithPageSize(PageLetter))
	r.print = recordingPrinter(&calls, []byte("%PDF-fake"), nil)

	doc, err := HTML(sampleArtifact())
	require.NoError(t, err)
	out, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), out)

	require.Len(t, calls, 1)
	c := calls[0]
	assert.Equal(t, "/opt/chrome", c.chromePath)
	assert.Equal(t, doc, c.html)
	assert.Equal(t, 8.5, c.params.PaperWidth)
	assert.Equal(t, 11.0, c.params.PaperHeight)
	assert.True(t, c.params.PrintBackground)
	assert.True(t, c.params.DisplayHeaderFooter)
	assert.Contains(t, c.params.FooterTemplate, `class="totalPages"`)
}

func TestRenderAppliesTimeout(t *testing.T) {
	var calls []printCall
	r := NewChromiumPDFRenderer(WithRenderTimeout(2 * time.Second))
	r.print = recordingPrinter(&calls, []byte("%PDF"), nil)

	start := time.Now()
	_, err := r.Render(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.True(t, calls[0].hasDL)
	assert.WithinDuration(t, start.Add(2*time.Second), calls[0].deadline, time.Second)
}

func TestRenderErrors(t *testing.T) {
	var calls []printCall
	r := NewChromiumPDFRenderer()

	r.print = recordingPrinter(&calls, nil, errors.New("chrome not found"))
	_, err := r.Render(context.Background(), "<p>x</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")

	r.print = recordingPrinter(&calls, nil, nil)
	_, err = r.Render(context.Background(), "<p>x</p>")
	assert.Error(t, err)

	_, err = r.Render(context.Background(), "  ")
	assert.Error(t, err)
	assert.Len(t, calls, 2, "blank documents never reach the browser")
}

func TestParsePageSize(t *testing.T) {
	p, err := ParsePageSize("")
	require.NoError(t, err)
	assert.Equal(t, PageA4, p)
	p, err = ParsePageSize("Letter")
	require.NoError(t, err)
	assert.Equal(t, PageLetter, p)
	_, err = ParsePageSize("tabloid")
	assert.Error(t, err)
}

func TestRenderWithChromium(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser render in short mode")
	}
	if detectChromePath() == "" {
		t.Skip("chromium not installed; set CHROME_PATH to run")
	}
	doc, err := HTML(sampleArtifact())
	require.NoError(t, err)
	out, err := NewChromiumPDFRenderer(WithRenderTimeout(time.Minute)).Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

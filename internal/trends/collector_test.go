package trends

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joelkehle/business-scout/internal/scout"
)

type fakeSource struct {
	name  string
	kind  scout.Source
	recs  []scout.RawTrend
	err   error
	block bool
}

func (f fakeSource) Name() string       { return f.name }
func (f fakeSource) Kind() scout.Source { return f.kind }

func (f fakeSource) Fetch(ctx context.Context) ([]scout.RawTrend, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.recs, f.err
}

func TestCollectorIsolatesFailingSources(t *testing.T) {
	c := NewCollector(zaptest.NewLogger(t), 50*time.Millisecond,
		fakeSource{name: "hn", kind: scout.SourceNews, recs: []scout.RawTrend{{"topic": "a", "source": "news"}}},
		fakeSource{name: "reddit", kind: scout.SourceReddit, err: errors.New("status 503")},
		fakeSource{name: "slow", kind: scout.SourceGitHub, block: true},
		fakeSource{name: "gh", kind: scout.SourceGitHub, recs: []scout.RawTrend{{"topic": "b", "source": "github"}, {"topic": "c", "source": "github"}}},
	)
	res, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "a", res.Records[0]["topic"])
	assert.Equal(t, "b", res.Records[1]["topic"])

	require.Len(t, res.Sources, 4)
	assert.Equal(t, scout.SourceStatus{Name: "hn", Source: scout.SourceNews, Records: 1}, res.Sources[0])
	assert.Equal(t, "status 503", res.Sources[1].Error)
	assert.Contains(t, res.Sources[2].Error, "deadline exceeded")
	assert.Equal(t, 2, res.Sources[3].Records)
}

func TestCollectorReturnsJoinedErrorWhenNothingCollected(t *testing.T) {
	c := NewCollector(nil, time.Second,
		fakeSource{name: "hn", err: errors.New("dns failure")},
		fakeSource{name: "reddit", err: errors.New("status 429")},
	)
	res, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hn: dns failure")
	assert.Contains(t, err.Error(), "reddit: status 429")
	assert.Empty(t, res.Records)
	assert.Len(t, res.Sources, 2)
}

func TestFileCollectorAcceptsArrayAndWrappedForms(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "arr.json")
	require.NoError(t, os.WriteFile(arr, []byte(`[{"topic":"AI coding","source":"news","engagement":15000,"discovered_at":1760000000}]`), 0o644))
	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"trends":[{"topic":"robotics","source":"github","engagement":8000}]}`), 0o644))

	res, err := NewFileCollector(arr).Collect(context.Background())
	require.NoError(t, err)
	trends, rejected := scout.NormalizeTrends(res.Records, testNow)
	require.Empty(t, rejected)
	require.Len(t, trends, 1)
	assert.Equal(t, 15000.0, trends[0].Engagement)
	assert.Equal(t, int64(1760000000), trends[0].DiscoveredAt.Unix())
	assert.Equal(t, 1, res.Sources[0].Records)

	res, err = NewFileCollector(wrapped).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
}

func TestFileCollectorReportsMissingFile(t *testing.T) {
	res, err := NewFileCollector(filepath.Join(t.TempDir(), "missing.json")).Collect(context.Background())
	require.Error(t, err)
	require.Len(t, res.Sources, 1)
	assert.NotEmpty(t, res.Sources[0].Error)
}

func TestStaticCollector(t *testing.T) {
	res, err := Static{Records: []scout.RawTrend{{"topic": "x", "source": "news"}}}.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Static{}.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

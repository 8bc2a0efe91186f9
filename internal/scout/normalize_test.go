package scout

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTrendAcceptsAliasesAndDefaults(t *testing.T) {
	got, err := NormalizeTrend(RawTrend{"title": "  Rust in the kernel ", "source": "HackerNews", "score": 420}, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, "Rust in the kernel", got.Topic)
	assert.Equal(t, SourceNews, got.Source)
	assert.Equal(t, 420.0, got.Engagement)
	assert.Equal(t, testEpoch, got.DiscoveredAt)
	assert.True(t, strings.HasPrefix(got.ID, "trend-"))
	assert.Equal(t, []string{"rust", "kernel"}, got.Keywords)
}

func TestNormalizeTrendParsesTimes(t *testing.T) {
	got, err := NormalizeTrend(RawTrend{"topic": "x", "source": "reddit", "discovered_at": "2026-01-02T03:04:05Z"}, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.DiscoveredAt)

	got, err = NormalizeTrend(RawTrend{"topic": "x", "source": "reddit", "timestamp": float64(1700000000)}, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.DiscoveredAt.Unix())

	got, err = NormalizeTrend(RawTrend{"topic": "x", "source": "reddit", "discovered_at": json.Number("1700000000.5")}, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.DiscoveredAt.Unix())

	got, err = NormalizeTrend(RawTrend{"topic": "x", "source": "reddit", "discovered_at": json.Number("1700000001")}, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000001), got.DiscoveredAt.Unix())

	_, err = NormalizeTrend(RawTrend{"topic": "x", "source": "reddit", "discovered_at": "yesterday"}, testEpoch)
	assert.ErrorIs(t, err, ErrInvalidTrend)
}

func TestNormalizeTrendRejects(t *testing.T) {
	cases := map[string]RawTrend{
		"missing topic":      {"source": "news"},
		"unknown source":     {"topic": "x", "source": "fax"},
		"negative":           {"topic": "x", "source": "news", "engagement": -1.0},
		"sentiment too high": {"topic": "x", "source": "news", "sentiment": 1.5},
		"bad number type":    {"topic": "x", "source": "news", "engagement": true},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeTrend(raw, testEpoch)
			assert.ErrorIs(t, err, ErrInvalidTrend)
		})
	}
}

func TestNormalizeTrendsDedupesIDsAndCountsRejects(t *testing.T) {
	records := []RawTrend{
		{"id": "dup", "topic": "a", "source": "news"},
		{"id": "dup", "topic": "b", "source": "news"},
		{"topic": "", "source": "news"},
		{"id": "dup", "topic": "c", "source": "news"},
	}
	trends, rejected := NormalizeTrends(records, testEpoch)
	require.Len(t, trends, 3)
	assert.Len(t, rejected, 1)
	assert.Equal(t, []string{"dup", "dup-2", "dup-3"}, []string{trends[0].ID, trends[1].ID, trends[2].ID})
}

func TestNormalizeTrendFromDecodedJSON(t *testing.T) {
	var raw RawTrend
	require.NoError(t, json.Unmarshal([]byte(`{"topic":"robotics","source":"github","engagement":8000,"keywords":["Robots"," arms "]}`), &raw))
	got, err := NormalizeTrend(raw, testEpoch)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, got.Engagement)
	assert.Equal(t, []string{"robots", "arms"}, got.Keywords)
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"remote", "work", "tools", "team"}, ExtractKeywords("Remote work tools for the remote team"))
	assert.Empty(t, ExtractKeywords("a an the"))
}

func TestValidateIdeaListsMissingFields(t *testing.T) {
	err := ValidateIdea(BusinessIdea{ID: "i", Title: "t"})
	require.ErrorIs(t, err, ErrInvalidIdea)
	assert.Contains(t, err.Error(), "description, target_market, value_proposition, revenue_model")
}

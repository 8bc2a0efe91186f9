package scout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// RawTrend is a loosely shaped record as produced by collectors or decoded from JSON.
type RawTrend map[string]any

var trendNamespace = uuid.MustParse("5b0c1f3e-8a4d-4c8e-9b7a-2f6d1e0c9a41")

var sourceAliases = map[string]Source{
	"news":          SourceNews,
	"hackernews":    SourceNews,
	"hacker_news":   SourceNews,
	"hn":            SourceNews,
	"newsapi":       SourceNews,
	"rss":           SourceNews,
	"reddit":        SourceReddit,
	"github":        SourceGitHub,
	"github_trend":  SourceGitHub,
	"search":        SourceSearch,
	"google_trends": SourceSearch,
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "had": true, "her": true, "was": true,
	"one": true, "our": true, "out": true, "day": true, "get": true, "has": true,
	"him": true, "his": true, "how": true, "its": true, "may": true, "new": true,
	"now": true, "old": true, "see": true, "two": true, "who": true, "boy": true,
	"did": true, "man": true, "way": true, "she": true, "use": true, "with": true,
	"from": true, "this": true, "that": true, "what": true, "when": true, "your": true,
	"will": true, "into": true, "about": true, "show": true, "ask": true, "why": true,
	"a": true, "an": true, "of": true, "to": true, "in": true, "on": true, "is": true,
	"at": true, "by": true, "or": true, "as": true, "be": true, "it": true, "my": true,
}

// NormalizeTrend validates a raw record and converts it into a TrendSignal.
// Records without a discovery time are stamped with now.
func NormalizeTrend(raw RawTrend, now time.Time) (TrendSignal, error) {
	topic := strings.TrimSpace(stringField(raw, "topic", "title", "keyword"))
	if topic == "" {
		return TrendSignal{}, fmt.Errorf("%w: missing topic", ErrInvalidTrend)
	}

	srcName := strings.ToLower(strings.TrimSpace(stringField(raw, "source")))
	source, ok := sourceAliases[srcName]
	if !ok {
		return TrendSignal{}, fmt.Errorf("%w: unknown source %q", ErrInvalidTrend, srcName)
	}

	engagement, err := numberField(raw, 0, "engagement", "engagement_score", "score")
	if err != nil {
		return TrendSignal{}, fmt.Errorf("%w: engagement: %v", ErrInvalidTrend, err)
	}
	if engagement < 0 || math.IsNaN(engagement) || math.IsInf(engagement, 0) {
		return TrendSignal{}, fmt.Errorf("%w: engagement %v out of range", ErrInvalidTrend, engagement)
	}

	sentiment, err := numberField(raw, 0, "sentiment", "sentiment_score")
	if err != nil {
		return TrendSignal{}, fmt.Errorf("%w: sentiment: %v", ErrInvalidTrend, err)
	}
	if sentiment < -1 || sentiment > 1 || math.IsNaN(sentiment) {
		return TrendSignal{}, fmt.Errorf("%w: sentiment %v outside [-1,1]", ErrInvalidTrend, sentiment)
	}

	discovered, err := timeField(raw, now, "discovered_at", "timestamp")
	if err != nil {
		return TrendSignal{}, fmt.Errorf("%w: discovered_at: %v", ErrInvalidTrend, err)
	}

	id := strings.TrimSpace(stringField(raw, "id"))
	if id == "" {
		id = "trend-" + uuid.NewSHA1(trendNamespace, []byte(string(source)+"|"+topic)).String()[:8]
	}

	keywords := stringSliceField(raw, "keywords")
	if len(keywords) == 0 {
		keywords = ExtractKeywords(topic + " " + stringField(raw, "description"))
	}

	return TrendSignal{
		ID:           id,
		Topic:        topic,
		Source:       source,
		Engagement:   engagement,
		Sentiment:    sentiment,
		DiscoveredAt: discovered.UTC(),
		Description:  strings.TrimSpace(stringField(raw, "description")),
		URL:          strings.TrimSpace(stringField(raw, "url")),
		Keywords:     keywords,
	}, nil
}

// NormalizeTrends keeps input order and drops records that fail validation.
func NormalizeTrends(records []RawTrend, now time.Time) ([]TrendSignal, []error) {
	out := make([]TrendSignal, 0, len(records))
	var rejected []error
	seen := map[string]int{}
	for i, raw := range records {
		t, err := NormalizeTrend(raw, now)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		base := t.ID
		if n := seen[base]; n > 0 {
			t.ID = fmt.Sprintf("%s-%d", base, n+1)
		}
		seen[base]++
		out = append(out, t)
	}
	return out, rejected
}

// ExtractKeywords returns lowercase alphanumeric tokens longer than three characters,
// minus stop-words, in first-seen order.
func ExtractKeywords(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range tokenize(text) {
		if len(tok) <= 3 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return fields
}

// ValidateIdea checks the fields every downstream stage relies on.
func ValidateIdea(idea BusinessIdea) error {
	missing := []string{}
	if strings.TrimSpace(idea.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(idea.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(idea.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(idea.TargetMarket) == "" {
		missing = append(missing, "target_market")
	}
	if strings.TrimSpace(idea.ValueProposition) == "" {
		missing = append(missing, "value_proposition")
	}
	if strings.TrimSpace(idea.RevenueModel) == "" {
		missing = append(missing, "revenue_model")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidIdea, strings.Join(missing, ", "))
	}
	return nil
}

func stringField(raw RawTrend, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			switch s := v.(type) {
			case string:
				return s
			case fmt.Stringer:
				return s.String()
			}
		}
	}
	return ""
}

func stringSliceField(raw RawTrend, key string) []string {
	var out []string
	switch v := raw[key].(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToLower(s))
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.ToLower(strings.TrimSpace(s)))
			}
		}
	}
	return out
}

func numberField(raw RawTrend, fallback float64, keys ...string) (float64, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(n), 64)
		default:
			return 0, fmt.Errorf("unsupported type %T", v)
		}
	}
	return fallback, nil
}

func timeField(raw RawTrend, fallback time.Time, keys ...string) (time.Time, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
			return time.Parse(time.RFC3339, strings.TrimSpace(t))
		case float64:
			return time.Unix(int64(t), 0), nil
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return time.Unix(n, 0), nil
			}
			f, err := t.Float64()
			if err != nil {
				return time.Time{}, err
			}
			return time.Unix(int64(f), 0), nil
		case int64:
			return time.Unix(t, 0), nil
		case int:
			return time.Unix(int64(t), 0), nil
		default:
			return time.Time{}, fmt.Errorf("unsupported type %T", v)
		}
	}
	return fallback, nil
}

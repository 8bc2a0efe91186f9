package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/business-scout/internal/scout"
)

const (
	HackerNewsBaseURL      = "https://hacker-news.firebaseio.com/v0"
	DefaultHackerNewsLimit = 10
	hackerNewsSentiment    = 0.7
)

type HackerNewsConfig struct {
	BaseURL    string
	Limit      int
	HTTPClient *http.Client
}

// HackerNews reads the current top stories. Engagement is points plus comments.
type HackerNews struct {
	cfg HackerNewsConfig
}

func NewHackerNews(cfg HackerNewsConfig) *HackerNews {
	if cfg.BaseURL == "" {
		cfg.BaseURL = HackerNewsBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultHackerNewsLimit
	}
	cfg.HTTPClient = defaultClient(cfg.HTTPClient)
	return &HackerNews{cfg: cfg}
}

func (h *HackerNews) Name() string       { return "hackernews" }
func (h *HackerNews) Kind() scout.Source { return scout.SourceNews }

type hnItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`
}

func (h *HackerNews) Fetch(ctx context.Context) ([]scout.RawTrend, error) {
	var ids []int64
	if err := getJSON(ctx, h.cfg.HTTPClient, h.cfg.BaseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > h.cfg.Limit {
		ids = ids[:h.cfg.Limit]
	}

	items := make([]*hnItem, len(ids))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(4)
	for i, id := range ids {
		grp.Go(func() error {
			var it hnItem
			if err := getJSON(gctx, h.cfg.HTTPClient, fmt.Sprintf("%s/item/%d.json", h.cfg.BaseURL, id), &it); err != nil {
				return err
			}
			items[i] = &it
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	out := make([]scout.RawTrend, 0, len(items))
	for _, it := range items {
		if it == nil || it.Dead || it.Deleted || strings.TrimSpace(it.Title) == "" {
			continue
		}
		link := it.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		}
		rec := scout.RawTrend{
			"id":         fmt.Sprintf("hn-%d", it.ID),
			"topic":      it.Title,
			"source":     "hackernews",
			"engagement": float64(it.Score + it.Descendants),
			"sentiment":  hackerNewsSentiment,
			"url":        link,
		}
		if it.Time > 0 {
			rec["discovered_at"] = it.Time
		}
		out = append(out, rec)
	}
	return out, nil
}

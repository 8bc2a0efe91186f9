package trends

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/joelkehle/business-scout/internal/scout"
)

const (
	DefaultRSSLimit = 5
	// Feeds carry no engagement figure; every headline gets the same nominal weight.
	rssEngagement = 1000.0
)

var DefaultRSSFeeds = []string{
	"https://techcrunch.com/feed/",
	"https://www.theverge.com/rss/index.xml",
}

type RSSConfig struct {
	Feeds      []string
	Limit      int
	HTTPClient *http.Client
}

// RSS reads headlines from tech news feeds.
type RSS struct {
	cfg RSSConfig
}

func NewRSS(cfg RSSConfig) *RSS {
	if len(cfg.Feeds) == 0 {
		cfg.Feeds = DefaultRSSFeeds
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRSSLimit
	}
	cfg.HTTPClient = defaultClient(cfg.HTTPClient)
	return &RSS{cfg: cfg}
}

func (r *RSS) Name() string       { return "rss" }
func (r *RSS) Kind() scout.Source { return scout.SourceNews }

func (r *RSS) Fetch(ctx context.Context) ([]scout.RawTrend, error) {
	parser := gofeed.NewParser()
	var out []scout.RawTrend
	var lastErr error
	answered := 0
	for _, feedURL := range r.cfg.Feeds {
		feed, err := r.fetchFeed(ctx, parser, feedURL)
		if err != nil {
			lastErr = err
			continue
		}
		answered++
		for i, it := range feed.Items {
			if i >= r.cfg.Limit {
				break
			}
			title := strings.TrimSpace(it.Title)
			if title == "" {
				continue
			}
			rec := scout.RawTrend{
				"topic":       title,
				"source":      "rss",
				"engagement":  rssEngagement,
				"description": truncate(it.Description, 200),
				"url":         strings.TrimSpace(it.Link),
			}
			if it.GUID != "" {
				rec["id"] = "rss-" + idSuffix(it.GUID)
			}
			switch {
			case it.PublishedParsed != nil:
				rec["discovered_at"] = *it.PublishedParsed
			case it.UpdatedParsed != nil:
				rec["discovered_at"] = *it.UpdatedParsed
			}
			if len(it.Categories) > 0 {
				rec["keywords"] = it.Categories
			}
			out = append(out, rec)
		}
	}
	if answered == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (r *RSS) fetchFeed(ctx context.Context, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	body, err := get(ctx, r.cfg.HTTPClient, feedURL, "application/rss+xml, application/atom+xml, application/xml")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	feed, err := parser.Parse(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}

// idSuffix keeps the last path-like segment of a GUID so ids stay short.
func idSuffix(guid string) string {
	guid = strings.TrimRight(strings.TrimSpace(guid), "/")
	if i := strings.LastIndexAny(guid, "/=?"); i >= 0 && i < len(guid)-1 {
		guid = guid[i+1:]
	}
	return truncate(guid, 40)
}

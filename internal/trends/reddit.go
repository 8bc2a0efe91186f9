package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/joelkehle/business-scout/internal/scout"
)

const (
	RedditBaseURL      = "https://www.reddit.com"
	DefaultRedditLimit = 5
)

var DefaultSubreddits = []string{"programming", "technology"}

type RedditConfig struct {
	BaseURL    string
	Subreddits []string
	Limit      int
	HTTPClient *http.Client
}

// Reddit reads hot posts from public subreddit listings. Sentiment is derived from
// the upvote ratio: 0.5 maps to neutral, 1.0 to fully positive.
type Reddit struct {
	cfg RedditConfig
}

func NewReddit(cfg RedditConfig) *Reddit {
	if cfg.BaseURL == "" {
		cfg.BaseURL = RedditBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRedditLimit
	}
	cfg.HTTPClient = defaultClient(cfg.HTTPClient)
	return &Reddit{cfg: cfg}
}

func (r *Reddit) Name() string       { return "reddit" }
func (r *Reddit) Kind() scout.Source { return scout.SourceReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Stickied    bool    `json:"stickied"`
	Subreddit   string  `json:"subreddit"`
}

// Fetch returns posts from every subreddit that answered. It fails only when none did.
func (r *Reddit) Fetch(ctx context.Context) ([]scout.RawTrend, error) {
	var out []scout.RawTrend
	var lastErr error
	answered := 0
	for _, sub := range r.cfg.Subreddits {
		var listing redditListing
		url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.cfg.BaseURL, sub, r.cfg.Limit+2)
		if err := getJSON(ctx, r.cfg.HTTPClient, url, &listing); err != nil {
			lastErr = err
			continue
		}
		answered++
		n := 0
		for _, child := range listing.Data.Children {
			p := child.Data
			if p.Stickied || strings.TrimSpace(p.Title) == "" {
				continue
			}
			if n >= r.cfg.Limit {
				break
			}
			n++
			rec := scout.RawTrend{
				"id":          "reddit-" + p.ID,
				"topic":       p.Title,
				"source":      "reddit",
				"engagement":  float64(max(p.Score, 0) + p.NumComments),
				"sentiment":   upvoteSentiment(p.UpvoteRatio),
				"description": truncate(p.Selftext, 200),
			}
			if p.Permalink != "" {
				rec["url"] = r.cfg.BaseURL + p.Permalink
			}
			if p.CreatedUTC > 0 {
				rec["discovered_at"] = p.CreatedUTC
			}
			out = append(out, rec)
		}
	}
	if answered == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func upvoteSentiment(ratio float64) float64 {
	if ratio <= 0 {
		return 0
	}
	s := 2*ratio - 1
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

package trends

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joelkehle/business-scout/internal/scout"
)

const (
	GitHubTrendingURL  = "https://github.com/trending"
	DefaultGitHubLimit = 5
	githubSentiment    = 0.8
)

type GitHubTrendingConfig struct {
	URL        string
	Limit      int
	HTTPClient *http.Client
}

// GitHubTrending scrapes the public trending page. Engagement is the total star count.
type GitHubTrending struct {
	cfg GitHubTrendingConfig
}

func NewGitHubTrending(cfg GitHubTrendingConfig) *GitHubTrending {
	if cfg.URL == "" {
		cfg.URL = GitHubTrendingURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultGitHubLimit
	}
	cfg.HTTPClient = defaultClient(cfg.HTTPClient)
	return &GitHubTrending{cfg: cfg}
}

func (g *GitHubTrending) Name() string       { return "github_trending" }
func (g *GitHubTrending) Kind() scout.Source { return scout.SourceGitHub }

func (g *GitHubTrending) Fetch(ctx context.Context) ([]scout.RawTrend, error) {
	body, err := get(ctx, g.cfg.HTTPClient, g.cfg.URL, "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", g.cfg.URL, err)
	}
	return parseTrendingRepos(doc, g.cfg.Limit), nil
}

func parseTrendingRepos(doc *goquery.Document, limit int) []scout.RawTrend {
	var out []scout.RawTrend
	doc.Find("article.Box-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(out) >= limit {
			return false
		}
		repo := strings.Join(strings.Fields(row.Find("h2").First().Text()), "")
		if repo == "" {
			return true
		}
		desc := strings.TrimSpace(row.Find("p.col-9").First().Text())
		stars := parseCount(row.Find(`a[href$="/stargazers"]`).First().Text())

		name := repo
		if i := strings.LastIndex(repo, "/"); i >= 0 {
			name = repo[i+1:]
		}
		topic := strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(name))
		out = append(out, scout.RawTrend{
			"id":          "gh-" + strings.ToLower(strings.ReplaceAll(repo, "/", "-")),
			"topic":       topic,
			"source":      "github",
			"engagement":  float64(stars),
			"sentiment":   githubSentiment,
			"description": truncate(fmt.Sprintf("GitHub: %s. %s", repo, desc), 200),
			"url":         "https://github.com/" + repo,
		})
		return true
	})
	return out
}

func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(n * mult)
}

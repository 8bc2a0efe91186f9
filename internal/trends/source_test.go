package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/business-scout/internal/scout"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func normalize(t *testing.T, recs []scout.RawTrend) []scout.TrendSignal {
	t.Helper()
	out, rejected := scout.NormalizeTrends(recs, testNow)
	require.Empty(t, rejected)
	return out
}

func TestHackerNewsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/topstories.json":
			fmt.Fprint(w, `[11, 12, 13, 14]`)
		case "/item/11.json":
			fmt.Fprint(w, `{"id":11,"type":"story","title":"AI coding agents","url":"https://example.com/a","score":300,"descendants":120,"time":1760000000}`)
		case "/item/12.json":
			fmt.Fprint(w, `{"id":12,"type":"story","title":"Ask HN: robotics kits","score":80,"descendants":20}`)
		case "/item/13.json":
			fmt.Fprint(w, `{"id":13,"dead":true,"title":"gone"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	hn := NewHackerNews(HackerNewsConfig{BaseURL: srv.URL, Limit: 3, HTTPClient: srv.Client()})
	recs, err := hn.Fetch(context.Background())
	require.NoError(t, err)
	trends := normalize(t, recs)
	require.Len(t, trends, 2)

	assert.Equal(t, "hn-11", trends[0].ID)
	assert.Equal(t, scout.SourceNews, trends[0].Source)
	assert.Equal(t, 420.0, trends[0].Engagement)
	assert.Equal(t, int64(1760000000), trends[0].DiscoveredAt.Unix())
	assert.Equal(t, "https://news.ycombinator.com/item?id=12", trends[1].URL)
	assert.Equal(t, testNow, trends[1].DiscoveredAt)
}

func TestHackerNewsItemFailureFailsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			fmt.Fprint(w, `[1]`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHackerNews(HackerNewsConfig{BaseURL: srv.URL, HTTPClient: srv.Client()}).Fetch(context.Background())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestRedditFetchDerivesSentimentFromUpvoteRatio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ai-business-scout/1.0", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/r/startups/hot.json":
			fmt.Fprint(w, `{"data":{"children":[
				{"data":{"id":"s0","title":"Weekly thread","stickied":true,"score":1}},
				{"data":{"id":"a1","title":"Remote work tooling is broken","selftext":"rant","score":900,"num_comments":100,"upvote_ratio":0.9,"created_utc":1760000000,"permalink":"/r/startups/a1"}},
				{"data":{"id":"a2","title":"Divisive take","score":10,"num_comments":5,"upvote_ratio":0.25}}
			]}}`)
		case "/r/private/hot.json":
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	rd := NewReddit(RedditConfig{BaseURL: srv.URL, Subreddits: []string{"private", "startups"}, HTTPClient: srv.Client()})
	recs, err := rd.Fetch(context.Background())
	require.NoError(t, err)
	trends := normalize(t, recs)
	require.Len(t, trends, 2)

	assert.Equal(t, "reddit-a1", trends[0].ID)
	assert.Equal(t, 1000.0, trends[0].Engagement)
	assert.InDelta(t, 0.8, trends[0].Sentiment, 1e-9)
	assert.Equal(t, srv.URL+"/r/startups/a1", trends[0].URL)
	assert.InDelta(t, -0.5, trends[1].Sentiment, 1e-9)
}

func TestRedditFailsWhenNoSubredditAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err := NewReddit(RedditConfig{BaseURL: srv.URL, HTTPClient: srv.Client()}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

const trendingHTML = `<html><body>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/acme/robo-arm-kit"> acme /
      robo-arm-kit </a></h2>
  <p class="col-9 color-fg-muted my-1 pr-4">Open source robotics arm controller</p>
  <div><a href="/acme/robo-arm-kit/stargazers"> 12,345 </a></div>
</article>
<article class="Box-row">
  <h2><a href="/foo/llm_router">foo / llm_router</a></h2>
  <div><a href="/foo/llm_router/stargazers">2.5k</a></div>
</article>
<article class="Box-row"><h2></h2></article>
</body></html>`

func TestGitHubTrendingParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, trendingHTML)
	}))
	defer srv.Close()

	gh := NewGitHubTrending(GitHubTrendingConfig{URL: srv.URL, HTTPClient: srv.Client()})
	recs, err := gh.Fetch(context.Background())
	require.NoError(t, err)
	trends := normalize(t, recs)
	require.Len(t, trends, 2)

	assert.Equal(t, "robo arm kit", trends[0].Topic)
	assert.Equal(t, "gh-acme-robo-arm-kit", trends[0].ID)
	assert.Equal(t, scout.SourceGitHub, trends[0].Source)
	assert.Equal(t, 12345.0, trends[0].Engagement)
	assert.Contains(t, trends[0].Description, "Open source robotics arm controller")
	assert.Equal(t, "https://github.com/acme/robo-arm-kit", trends[0].URL)
	assert.Equal(t, "llm router", trends[1].Topic)
	assert.Equal(t, 2500.0, trends[1].Engagement)
}

func TestParseTrendingReposRespectsLimit(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trendingHTML))
	require.NoError(t, err)
	assert.Len(t, parseTrendingRepos(doc, 1), 1)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 1234, parseCount(" 1,234 "))
	assert.Equal(t, 1500, parseCount("1.5k"))
	assert.Equal(t, 0, parseCount("n/a"))
}

const feedXML = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Tech</title>
<item><title>Climate tech funding surges</title><link>https://news.example/a</link>
<guid>https://news.example/?p=101</guid><pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
<category>Climate</category><description>VCs pour money into sustainability</description></item>
<item><title>  </title></item>
<item><title>Fintech layoffs</title><link>https://news.example/b</link></item>
</channel></rss>`

func TestRSSFetchSkipsFailingFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	rss := NewRSS(RSSConfig{Feeds: []string{srv.URL + "/broken", srv.URL + "/feed"}, HTTPClient: srv.Client()})
	recs, err := rss.Fetch(context.Background())
	require.NoError(t, err)
	trends := normalize(t, recs)
	require.Len(t, trends, 2)

	assert.Equal(t, "rss-101", trends[0].ID)
	assert.Equal(t, scout.SourceNews, trends[0].Source)
	assert.Equal(t, 1000.0, trends[0].Engagement)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), trends[0].DiscoveredAt)
	assert.Equal(t, []string{"climate"}, trends[0].Keywords)
	assert.Equal(t, "Fintech layoffs", trends[1].Topic)
}

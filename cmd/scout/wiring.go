package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/business-scout/internal/config"
	"github.com/joelkehle/business-scout/internal/notify"
	"github.com/joelkehle/business-scout/internal/scout"
	"github.com/joelkehle/business-scout/internal/trends"
)

type overrides struct {
	mode        string
	maxIdeas    int
	budget      float64
	duration    int
	outDir      string
	metricsAddr string
}

func (o overrides) apply(cfg *config.Config) error {
	if o.mode != "" {
		cfg.Pipeline.Mode = strings.ToLower(o.mode)
	}
	if o.maxIdeas > 0 {
		cfg.Pipeline.MaxIdeas = o.maxIdeas
	}
	if o.budget > 0 {
		cfg.Pipeline.BudgetPerIdea = o.budget
	}
	if o.duration > 0 {
		cfg.Pipeline.DurationDays = o.duration
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = o.metricsAddr
	}
	return cfg.Validate()
}

func buildCollector(cfg *config.Config, trendsFile string, demo bool, logger *zap.Logger) (scout.TrendCollector, error) {
	switch {
	case demo:
		return trends.Static{Records: demoTrends()}, nil
	case trendsFile != "":
		return trends.NewFileCollector(trendsFile), nil
	}

	var sources []trends.Source
	if cfg.Sources.HackerNews {
		sources = append(sources, trends.NewHackerNews(trends.HackerNewsConfig{}))
	}
	if cfg.Sources.Reddit {
		sources = append(sources, trends.NewReddit(trends.RedditConfig{Subreddits: cfg.Sources.Subreddits}))
	}
	if cfg.Sources.GitHub {
		sources = append(sources, trends.NewGitHubTrending(trends.GitHubTrendingConfig{}))
	}
	if cfg.Sources.RSS {
		sources = append(sources, trends.NewRSS(trends.RSSConfig{Feeds: cfg.Sources.RSSFeeds}))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no trend sources enabled; enable one under sources or pass -trends-file")
	}
	return trends.NewCollector(logger, config.GetDuration(cfg.Sources.Timeout), sources...), nil
}

func buildGenerator(cfg *config.Config, logger *zap.Logger) (scout.IdeaGenerator, error) {
	if scout.IdeaOrigin(cfg.Pipeline.Mode) != scout.OriginLLM {
		return scout.NewTemplateGenerator(logger), nil
	}
	caller, err := scout.NewAnthropicCaller(cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return nil, err
	}
	executor := scout.NewStageExecutor(caller, logger).WithMaxAttempts(cfg.LLM.MaxAttempts)
	return scout.NewLLMGenerator(executor, logger,
		scout.WithIdeaTimeout(config.GetDuration(cfg.LLM.Timeout)),
		scout.WithGeneratorConcurrency(cfg.Pipeline.Concurrency),
	), nil
}

func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	var out notify.Multi
	if cfg.Notify.SlackWebhookURL != "" {
		out = append(out, notify.NewSlack(notify.SlackConfig{WebhookURL: cfg.Notify.SlackWebhookURL}, logger))
	}
	if cfg.Notify.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	if len(out) == 0 {
		return notify.Nop{}, nil
	}
	return out, nil
}

// writeOutputs saves the JSON artifact and a markdown rendering next to it.
func writeOutputs(dir string, a scout.ReportArtifact, now time.Time) (jsonPath, mdPath string, err error) {
	jsonPath = filepath.Join(dir, scout.ArtifactFilename(now))
	if err := scout.SaveArtifact(jsonPath, a); err != nil {
		return "", "", fmt.Errorf("save artifact: %w", err)
	}
	mdPath = strings.TrimSuffix(jsonPath, ".json") + ".md"
	if err := os.WriteFile(mdPath, []byte(scout.BuildMarkdown(a)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown: %w", err)
	}
	return jsonPath, mdPath, nil
}

func demoTrends() []scout.RawTrend {
	return []scout.RawTrend{
		{
			"id": "demo-ai-coding", "source": "news", "topic": "AI Code Assistants Trending",
			"description": "Developers discussing increased productivity with AI coding tools",
			"engagement": 15000, "sentiment": 0.75,
			"keywords": []string{"ai", "coding", "productivity", "developers"},
		},
		{
			"id": "demo-remote-work", "source": "reddit", "topic": "Remote Work Tools Discussion",
			"description": "Users sharing frustrations with current remote collaboration tools",
			"engagement": 8500, "sentiment": 0.3,
			"keywords": []string{"remote work", "collaboration", "tools", "productivity"},
		},
		{
			"id": "demo-green-tech", "source": "news", "topic": "Sustainability in Tech",
			"description": "Growing demand for eco-friendly tech products and services",
			"engagement": 25000, "sentiment": 0.85,
			"keywords": []string{"sustainability", "green tech", "climate", "eco-friendly"},
		},
		{
			"id": "demo-finance-apps", "source": "search", "topic": "Personal Finance Apps Surging",
			"description": "Search interest in budgeting and personal finance tools increasing",
			"engagement": 50000, "sentiment": 0.65,
			"keywords": []string{"personal finance", "budgeting", "money management", "apps"},
		},
	}
}

package config

import (
	"time"

	"github.com/joelkehle/business-scout/internal/scout"
)

// Config is the full scout configuration.
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Output    OutputConfig    `mapstructure:"output"`
}

type PipelineConfig struct {
	Mode           string  `mapstructure:"mode"` // template | llm
	MaxIdeas       int     `mapstructure:"max_ideas"`
	BudgetPerIdea  float64 `mapstructure:"budget_per_idea"`
	DurationDays   int     `mapstructure:"duration_days"`
	Concurrency    int     `mapstructure:"concurrency"`
	SimulationSeed int64   `mapstructure:"simulation_seed"`
}

type LLMConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxAttempts int    `mapstructure:"max_attempts"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds per idea
}

type SourcesConfig struct {
	Timeout    int      `mapstructure:"timeout"` // milliseconds per source
	HackerNews bool     `mapstructure:"hackernews"`
	Reddit     bool     `mapstructure:"reddit"`
	GitHub     bool     `mapstructure:"github"`
	RSS        bool     `mapstructure:"rss"`
	Subreddits []string `mapstructure:"subreddits"`
	RSSFeeds   []string `mapstructure:"rss_feeds"`
}

type NotifyConfig struct {
	SlackWebhookURL  string `mapstructure:"slack_webhook_url"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   int64  `mapstructure:"telegram_chat_id"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

func (c *Config) RunOptions() scout.RunOptions {
	return scout.RunOptions{
		MaxIdeas:      c.Pipeline.MaxIdeas,
		BudgetPerIdea: c.Pipeline.BudgetPerIdea,
		DurationDays:  c.Pipeline.DurationDays,
	}
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

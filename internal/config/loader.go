package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joelkehle/business-scout/internal/scout"
)

const envPrefix = "SCOUT"

// plainEnv maps the unprefixed variable names used by existing deployments onto
// config keys. Prefixed SCOUT_* variables win when both are set.
var plainEnv = map[string]string{
	"llm.api_key":               "ANTHROPIC_API_KEY",
	"llm.model":                 "ANTHROPIC_MODEL",
	"pipeline.max_ideas":        "MAX_IDEAS_PER_RUN",
	"notify.slack_webhook_url":  "SLACK_WEBHOOK_URL",
	"notify.telegram_bot_token": "TELEGRAM_BOT_TOKEN",
	"notify.telegram_chat_id":   "TELEGRAM_CHAT_ID",
	"sources.rss_feeds":         "NEWS_RSS_FEEDS",
	"telemetry.otlp_endpoint":   "OTEL_EXPORTER_OTLP_ENDPOINT",
	"logging.level":             "LOG_LEVEL",
}

// Load reads .env (if present), an optional YAML config file, then environment
// overrides. An empty path searches ./configs and the working directory for
// config.yaml. The result is not validated; callers apply their own overrides
// and then call Validate.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if err := bindPlainEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.mode", string(scout.OriginTemplate))
	v.SetDefault("pipeline.max_ideas", scout.DefaultMaxIdeas)
	v.SetDefault("pipeline.budget_per_idea", scout.DefaultBudget)
	v.SetDefault("pipeline.duration_days", scout.DefaultDurationDays)
	v.SetDefault("pipeline.concurrency", scout.DefaultConcurrency)
	v.SetDefault("pipeline.simulation_seed", scout.DefaultSimulationSeed)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", scout.DefaultLLMModel)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.timeout", 60000)
	v.SetDefault("sources.timeout", 15000)
	v.SetDefault("sources.hackernews", true)
	v.SetDefault("sources.reddit", true)
	v.SetDefault("sources.github", true)
	v.SetDefault("sources.rss", false)
	v.SetDefault("sources.subreddits", []string{})
	v.SetDefault("sources.rss_feeds", []string{})
	v.SetDefault("notify.slack_webhook_url", "")
	v.SetDefault("notify.telegram_bot_token", "")
	v.SetDefault("notify.telegram_chat_id", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "business-scout")
	v.SetDefault("telemetry.metrics_addr", "")
	v.SetDefault("output.dir", "reports")
}

// bindPlainEnv applies unprefixed variables for keys whose SCOUT_* form is unset.
func bindPlainEnv(v *viper.Viper) error {
	for key, name := range plainEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if _, ok := os.LookupEnv(prefixed); ok {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		raw = strings.TrimSpace(raw)
		switch key {
		case "pipeline.max_ideas":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			v.Set(key, n)
		case "notify.telegram_chat_id":
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			v.Set(key, n)
		case "sources.rss_feeds":
			v.Set(key, splitList(raw))
		default:
			v.Set(key, raw)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	cfg.Pipeline.Mode = strings.ToLower(strings.TrimSpace(cfg.Pipeline.Mode))
	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = string(scout.OriginTemplate)
	}
	if cfg.Pipeline.Concurrency <= 0 {
		cfg.Pipeline.Concurrency = scout.DefaultConcurrency
	}
	if cfg.LLM.MaxAttempts <= 0 {
		cfg.LLM.MaxAttempts = 3
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 60000
	}
	if cfg.Sources.Timeout <= 0 {
		cfg.Sources.Timeout = 15000
	}
	// A single comma-separated string from YAML or SCOUT_SOURCES_RSS_FEEDS.
	if len(cfg.Sources.RSSFeeds) == 1 && strings.ContainsAny(cfg.Sources.RSSFeeds[0], ", ") {
		cfg.Sources.RSSFeeds = splitList(cfg.Sources.RSSFeeds[0])
	}
	if len(cfg.Sources.RSSFeeds) > 0 {
		cfg.Sources.RSS = true
	}
}

// Validate rejects values no run could succeed with.
func (c *Config) Validate() error {
	switch scout.IdeaOrigin(c.Pipeline.Mode) {
	case scout.OriginTemplate:
	case scout.OriginLLM:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm mode requires ANTHROPIC_API_KEY (llm.api_key)")
		}
	default:
		return fmt.Errorf("pipeline.mode must be %q or %q, got %q", scout.OriginTemplate, scout.OriginLLM, c.Pipeline.Mode)
	}
	if c.Pipeline.MaxIdeas <= 0 {
		return fmt.Errorf("pipeline.max_ideas must be positive, got %d", c.Pipeline.MaxIdeas)
	}
	if c.Pipeline.BudgetPerIdea <= 0 {
		return fmt.Errorf("pipeline.budget_per_idea must be positive, got %v", c.Pipeline.BudgetPerIdea)
	}
	if c.Pipeline.DurationDays <= 0 {
		return fmt.Errorf("pipeline.duration_days must be positive, got %d", c.Pipeline.DurationDays)
	}
	if c.Notify.TelegramBotToken != "" && c.Notify.TelegramChatID == 0 {
		return errors.New("notify.telegram_chat_id is required when a Telegram bot token is set")
	}
	return nil
}

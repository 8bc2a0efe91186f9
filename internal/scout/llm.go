package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const DefaultLLMModel = "claude-sonnet-4-5"

const systemPrompt = "You are a startup analyst who turns market trend signals into concrete, testable business ideas. " +
	"You stay grounded in the trend you are given and do not invent statistics. Return strict JSON only."

const defaultMaxAttempts = 3

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type llmFailureClass int

const (
	failureNone llmFailureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

func (c llmFailureClass) String() string {
	switch c {
	case failureTimeout:
		return "timeout"
	case failureRateLimit:
		return "rate_limit"
	case failureServer:
		return "server"
	case failureClient:
		return "client"
	default:
		return "none"
	}
}

type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCaller(apiKey, model string) (*AnthropicCaller, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultLLMModel
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey), model: model}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   2048,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

type StageAttemptMetrics struct {
	Attempts       int
	ContentRetries int
}

// StageExecutor runs one structured-output prompt with bounded retries. Content
// problems are retried with feedback appended to the prompt; transient transport
// failures are retried after a backoff.
type StageExecutor struct {
	caller      LLMCaller
	logger      *zap.Logger
	maxAttempts int
	sleep       func(context.Context, time.Duration) error
}

func NewStageExecutor(caller LLMCaller, logger *zap.Logger) *StageExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageExecutor{caller: caller, logger: logger, maxAttempts: defaultMaxAttempts, sleep: sleepCtx}
}

func (e *StageExecutor) WithMaxAttempts(n int) *StageExecutor {
	if n > 0 {
		e.maxAttempts = n
	}
	return e
}

func (e *StageExecutor) ModelName() string {
	if e == nil || e.caller == nil {
		return DefaultLLMModel
	}
	return e.caller.ModelName()
}

func (e *StageExecutor) Run(ctx context.Context, stageName, prompt string, out any, validate func() error) (StageAttemptMetrics, error) {
	metrics := StageAttemptMetrics{}
	feedback := ""
	log := e.logger.With(zap.String("stage", stageName))
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		metrics.Attempts = attempt
		last := attempt == e.maxAttempts
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		attemptStart := time.Now()
		log.Debug("llm_attempt_start", zap.Int("attempt", attempt))
		raw, err := e.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			class := classifyTransportError(err)
			log.Warn("llm_attempt_transport_error",
				zap.Int("attempt", attempt),
				zap.Stringer("class", class),
				zap.Int64("elapsed_ms", time.Since(attemptStart).Milliseconds()),
				zap.Error(err))
			if ctx.Err() == nil && !last && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				if err := e.sleep(ctx, backoffDelay(attempt)); err != nil {
					return metrics, fmt.Errorf("%s cancelled: %w", stageName, err)
				}
				continue
			}
			return metrics, fmt.Errorf("%s transport failure: %w", stageName, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			log.Warn("llm_attempt_empty", zap.Int("attempt", attempt))
			if !last {
				metrics.ContentRetries++
				feedback = "Your previous response was empty. Return valid JSON only."
				continue
			}
			return metrics, fmt.Errorf("%s failed: empty response", stageName)
		}

		clean := stripCodeFences(raw)
		resetValue(out)
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			log.Warn("llm_attempt_json_error", zap.Int("attempt", attempt), zap.Error(err))
			if !last {
				metrics.ContentRetries++
				feedback = "Your previous response was not valid JSON. Return valid JSON only."
				continue
			}
			return metrics, fmt.Errorf("%s failed json parse: %w", stageName, err)
		}
		if err := validate(); err != nil {
			log.Warn("llm_attempt_validation_error", zap.Int("attempt", attempt), zap.Error(err))
			if !last {
				metrics.ContentRetries++
				feedback = fmt.Sprintf("Your response failed validation: %s. Fix and return valid JSON only.", err)
				continue
			}
			return metrics, fmt.Errorf("%s failed validation: %w", stageName, err)
		}
		log.Debug("llm_attempt_success",
			zap.Int("attempt", attempt),
			zap.Int64("elapsed_ms", time.Since(attemptStart).Milliseconds()),
			zap.Int("response_chars", len(clean)))
		return metrics, nil
	}
	return metrics, fmt.Errorf("%s failed after retries", stageName)
}

// resetValue zeroes the decode target so fields from a rejected attempt never leak
// into the next one.
func resetValue(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) llmFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	m := statusCodeRe.FindStringSubmatch(msg)
	if len(m) == 2 {
		switch {
		case strings.HasPrefix(m[1], "429"):
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"):
		return failureRateLimit
	case strings.Contains(msg, "server error"):
		return failureServer
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

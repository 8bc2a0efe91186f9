package scout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ideaSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"title", "description", "target_market", "value_proposition", "revenue_model", "problem_solved", "key_features"},
	"properties": map[string]any{
		"title":             map[string]any{"type": "string", "minLength": 3},
		"description":       map[string]any{"type": "string", "minLength": 10},
		"target_market":     map[string]any{"type": "string", "minLength": 3},
		"value_proposition": map[string]any{"type": "string", "minLength": 5},
		"revenue_model":     map[string]any{"type": "string", "minLength": 3},
		"problem_solved":    map[string]any{"type": "string", "minLength": 5},
		"key_features": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
	},
})

type ideaPayload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	TargetMarket     string   `json:"target_market"`
	ValueProposition string   `json:"value_proposition"`
	RevenueModel     string   `json:"revenue_model"`
	ProblemSolved    string   `json:"problem_solved"`
	KeyFeatures      []string `json:"key_features"`
}

// validateIdeaPayload checks a decoded model response against the idea schema.
func validateIdeaPayload(p *ideaPayload) error {
	trimmed := *p
	trimmed.Title = strings.TrimSpace(p.Title)
	trimmed.Description = strings.TrimSpace(p.Description)
	trimmed.TargetMarket = strings.TrimSpace(p.TargetMarket)
	trimmed.ValueProposition = strings.TrimSpace(p.ValueProposition)
	trimmed.RevenueModel = strings.TrimSpace(p.RevenueModel)
	trimmed.ProblemSolved = strings.TrimSpace(p.ProblemSolved)
	if trimmed.KeyFeatures == nil {
		trimmed.KeyFeatures = []string{}
	}
	res, err := gojsonschema.Validate(ideaSchema, gojsonschema.NewGoLoader(trimmed))
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	*p = trimmed
	return nil
}

// LLMGenerator asks the model for one idea per selected trend. A response that never
// passes the schema check drops that idea; the rest of the batch is unaffected.
type LLMGenerator struct {
	executor    *StageExecutor
	logger      *zap.Logger
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

type LLMGeneratorOption func(*LLMGenerator)

func WithIdeaTimeout(d time.Duration) LLMGeneratorOption {
	return func(g *LLMGenerator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithGeneratorConcurrency(n int) LLMGeneratorOption {
	return func(g *LLMGenerator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

func NewLLMGenerator(executor *StageExecutor, logger *zap.Logger, opts ...LLMGeneratorOption) *LLMGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &LLMGenerator{
		executor:    executor,
		logger:      logger,
		timeout:     60 * time.Second,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LLMGenerator) Mode() string { return string(OriginLLM) }

func (g *LLMGenerator) Generate(ctx context.Context, trends []TrendSignal, maxIdeas int) (GenerationResult, error) {
	selected := SelectTrends(trends, maxIdeas)
	result := GenerationResult{Attempted: len(selected)}
	if len(selected) == 0 {
		return result, nil
	}

	ideas := make([]*BusinessIdea, len(selected))
	failures := make([]*IdeaFailure, len(selected))
	createdAt := g.now().UTC()

	grp := errgroup.Group{}
	grp.SetLimit(g.concurrency)
	for i, t := range selected {
		grp.Go(func() error {
			idea, err := g.generateOne(ctx, i, t, createdAt)
			if err != nil {
				g.logger.Warn("idea_generation_failed",
					zap.String("trend_id", t.ID),
					zap.String("topic", t.Topic),
					zap.Error(err))
				failures[i] = &IdeaFailure{Kind: FailureGeneration, TrendID: t.ID, Reason: err.Error()}
				return nil
			}
			ideas[i] = &idea
			return nil
		})
	}
	_ = grp.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for i := range selected {
		if ideas[i] != nil {
			result.Ideas = append(result.Ideas, *ideas[i])
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
		}
	}
	g.logger.Info("ideas_generated",
		zap.String("mode", g.Mode()),
		zap.String("model", g.executor.ModelName()),
		zap.Int("attempted", result.Attempted),
		zap.Int("generated", len(result.Ideas)),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}

func (g *LLMGenerator) generateOne(ctx context.Context, ordinal int, t TrendSignal, createdAt time.Time) (BusinessIdea, error) {
	ideaCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var payload ideaPayload
	stage := fmt.Sprintf("idea_generation[%s]", t.ID)
	if _, err := g.executor.Run(ideaCtx, stage, BuildIdeaPrompt(t), &payload, func() error {
		return validateIdeaPayload(&payload)
	}); err != nil {
		return BusinessIdea{}, err
	}
	idea := BusinessIdea{
		ID:               IdeaID(ordinal, t),
		Title:            payload.Title,
		Description:      payload.Description,
		TargetMarket:     payload.TargetMarket,
		ValueProposition: payload.ValueProposition,
		RevenueModel:     payload.RevenueModel,
		ProblemSolved:    payload.ProblemSolved,
		KeyFeatures:      payload.KeyFeatures,
		Keyword:          strings.ToLower(SignificantToken(t.Topic)),
		Origin:           OriginLLM,
		SourceTrends:     []TrendSignal{t},
		CreatedAt:        createdAt,
	}
	if err := ValidateIdea(idea); err != nil {
		return BusinessIdea{}, err
	}
	return idea, nil
}

func BuildIdeaPrompt(t TrendSignal) string {
	var b strings.Builder
	b.WriteString("Generate one business idea that capitalizes on the following trend.\n\n")
	fmt.Fprintf(&b, "Trend: %s\n", t.Topic)
	fmt.Fprintf(&b, "Source: %s\n", t.Source)
	fmt.Fprintf(&b, "Engagement: %.0f\n", t.Engagement)
	fmt.Fprintf(&b, "Sentiment: %.2f\n", t.Sentiment)
	if t.Description != "" {
		fmt.Fprintf(&b, "Context: %s\n", t.Description)
	}
	if len(t.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(t.Keywords, ", "))
	}
	b.WriteString(`
Return a JSON object with exactly these fields:
{
  "title": "catchy business name",
  "description": "2-3 sentence description",
  "target_market": "specific customer segment",
  "value_proposition": "unique value offered",
  "revenue_model": "how it makes money",
  "problem_solved": "the specific pain point",
  "key_features": ["feature 1", "feature 2", "feature 3"]
}`)
	return b.String()
}

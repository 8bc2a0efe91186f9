package scout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdeaGenerator turns ranked trend signals into at most maxIdeas ideas.
type IdeaGenerator interface {
	Generate(ctx context.Context, trends []TrendSignal, maxIdeas int) (GenerationResult, error)
	Mode() string
}

type GenerationResult struct {
	Ideas     []BusinessIdea
	Attempted int
	Failures  []IdeaFailure
}

var ideaNamespace = uuid.MustParse("a3e1c6d2-4f7b-4b1a-8d2e-6c9f0b7a5e13")

type ideaTemplate struct {
	Title            string
	Description      string
	ValueProposition string
	TargetMarket     string
	ProblemSolved    string
	RevenueModel     string
	KeyFeatures      []string
}

var themedTemplates = map[string]ideaTemplate{
	"ai": {
		Title:            "AI-Powered Code Review Assistant",
		Description:      "An intelligent code review tool that helps developers write better code faster",
		ValueProposition: "Reduce code review time by 50% and catch bugs before they reach production",
		TargetMarket:     "Software development teams at startups and mid-size companies",
		ProblemSolved:    "Manual code reviews are time-consuming and inconsistent",
		RevenueModel:     "SaaS subscription: $50/developer/month",
		KeyFeatures:      []string{"Automated code quality analysis", "AI-powered bug detection", "Best practice recommendations", "Integration with GitHub/GitLab"},
	},
	"remote": {
		Title:            "Hybrid Team Sync Platform",
		Description:      "A platform designed specifically for hybrid teams to stay connected and productive",
		ValueProposition: "Bridge the gap between remote and in-office workers with seamless collaboration",
		TargetMarket:     "Companies with 50-500 employees adopting hybrid work models",
		ProblemSolved:    "Hybrid teams struggle with communication gaps and unequal access to information",
		RevenueModel:     "Freemium: free for up to 10 users, $15/user/month for teams",
		KeyFeatures:      []string{"Office presence dashboard", "Asynchronous standup meetings", "Team availability calendar", "Context-aware notifications"},
	},
	"sustainability": {
		Title:            "Carbon Footprint Tracker for Developers",
		Description:      "Help developers understand and reduce the environmental impact of their code",
		ValueProposition: "Make your codebase more efficient and reduce cloud costs while helping the planet",
		TargetMarket:     "Environmentally conscious tech companies and open source projects",
		ProblemSolved:    "Developers lack visibility into the energy consumption of their applications",
		RevenueModel:     "Usage-based: free tier + $0.10 per 1000 analysis runs",
		KeyFeatures:      []string{"Real-time energy consumption metrics", "Optimization recommendations", "Carbon offset calculations", "CI/CD integration"},
	},
	"finance": {
		Title:            "AI Budget Coach",
		Description:      "A conversational assistant that helps people stick to their budgets and reach financial goals",
		ValueProposition: "Get personalized financial guidance without an expensive advisor",
		TargetMarket:     "Consumers looking to improve their financial health",
		ProblemSolved:    "Traditional budgeting apps are passive and give no actionable coaching",
		RevenueModel:     "Subscription: $9.99/month or $89/year",
		KeyFeatures:      []string{"Chat interface for financial questions", "Automatic spending categorization", "Personalized savings goals", "Bill negotiation assistance"},
	},
	"security": {
		Title:            "Developer Security Monitoring Platform",
		Description:      "Real-time security vulnerability monitoring and automated patching for development teams",
		ValueProposition: "Catch security issues before they reach production",
		TargetMarket:     "Development teams and DevOps engineers",
		ProblemSolved:    "Vulnerabilities in dependencies ship unnoticed until an incident",
		RevenueModel:     "SaaS: $99/month per team",
		KeyFeatures:      []string{"Automated vulnerability scanning", "Real-time alerts", "One-click patching", "Compliance reporting"},
	},
}

func genericTemplate(display, keyword, topic string) ideaTemplate {
	return ideaTemplate{
		Title:            display + " Solution Platform",
		Description:      fmt.Sprintf("A platform for %s-related challenges, built around the rising interest in %q", keyword, topic),
		ValueProposition: fmt.Sprintf("Solve %s problems faster and more efficiently", keyword),
		TargetMarket:     fmt.Sprintf("Teams and companies working with %s", keyword),
		ProblemSolved:    fmt.Sprintf("Current %s solutions are fragmented and slow to adopt", keyword),
		RevenueModel:     "SaaS subscription: $49-199/month based on team size",
		KeyFeatures:      []string{"Automated workflows", "Team collaboration", "Analytics dashboard", "API access"},
	}
}

type TemplateGenerator struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewTemplateGenerator(logger *zap.Logger) *TemplateGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateGenerator{logger: logger, now: time.Now}
}

func (g *TemplateGenerator) Mode() string { return string(OriginTemplate) }

func (g *TemplateGenerator) Generate(ctx context.Context, trends []TrendSignal, maxIdeas int) (GenerationResult, error) {
	selected := SelectTrends(trends, maxIdeas)
	result := GenerationResult{Attempted: len(selected)}
	createdAt := g.now().UTC()
	for i, t := range selected {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		idea, err := ideaFromTemplate(i, t, createdAt)
		if err != nil {
			g.logger.Warn("idea_generation_skipped", zap.String("trend_id", t.ID), zap.Error(err))
			result.Failures = append(result.Failures, IdeaFailure{Kind: FailureGeneration, TrendID: t.ID, Reason: err.Error()})
			continue
		}
		result.Ideas = append(result.Ideas, idea)
	}
	g.logger.Info("ideas_generated",
		zap.String("mode", g.Mode()),
		zap.Int("attempted", result.Attempted),
		zap.Int("generated", len(result.Ideas)))
	return result, nil
}

func ideaFromTemplate(ordinal int, t TrendSignal, createdAt time.Time) (BusinessIdea, error) {
	token := SignificantToken(t.Topic)
	if token == "" {
		return BusinessIdea{}, fmt.Errorf("topic %q has no significant token", t.Topic)
	}
	keyword := strings.ToLower(token)
	tmpl, ok := themedTemplates[keyword]
	if !ok {
		tmpl = genericTemplate(displayToken(token), keyword, t.Topic)
	}
	return BusinessIdea{
		ID:               IdeaID(ordinal, t),
		Title:            tmpl.Title,
		Description:      tmpl.Description,
		TargetMarket:     tmpl.TargetMarket,
		ValueProposition: tmpl.ValueProposition,
		RevenueModel:     tmpl.RevenueModel,
		ProblemSolved:    tmpl.ProblemSolved,
		KeyFeatures:      append([]string(nil), tmpl.KeyFeatures...),
		Keyword:          keyword,
		Origin:           OriginTemplate,
		SourceTrends:     []TrendSignal{t},
		CreatedAt:        createdAt,
	}, nil
}

// SelectTrends ranks by engagement descending, earlier discovery first on ties,
// and returns at most limit trends. The input slice is not modified.
func SelectTrends(trends []TrendSignal, limit int) []TrendSignal {
	if limit <= 0 || len(trends) == 0 {
		return nil
	}
	ranked := append([]TrendSignal(nil), trends...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Engagement != b.Engagement {
			return a.Engagement > b.Engagement
		}
		if !a.DiscoveredAt.Equal(b.DiscoveredAt) {
			return a.DiscoveredAt.Before(b.DiscoveredAt)
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		return a.ID < b.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// IdeaID is stable for the same trend at the same rank. The ordinal prefix keeps ids
// unique within a run even when two trends share a topic.
func IdeaID(ordinal int, t TrendSignal) string {
	sum := uuid.NewSHA1(ideaNamespace, []byte(t.ID+"|"+t.Topic)).String()
	return fmt.Sprintf("idea-%02d-%s", ordinal+1, sum[:8])
}

// SignificantToken returns the first topic token that is not a stop-word, in its original case.
func SignificantToken(topic string) string {
	fields := strings.FieldsFunc(topic, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) < 2 || stopWords[strings.ToLower(f)] {
			continue
		}
		return f
	}
	return ""
}

func displayToken(token string) string {
	if strings.ToUpper(token) == token {
		return token
	}
	runes := []rune(strings.ToLower(token))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

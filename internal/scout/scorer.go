package scout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

const (
	baseMarketSize = 1_000_000.0
	minMarketSize  = 500_000.0
	maxMarketSize  = 5_000_000_000.0

	strongEngagement = 5000.0
	hotEngagement    = 10000.0
	weakEngagement   = 500.0

	threatAICommoditization = "Rapid commoditization of AI capabilities"
)

type trendAggregate struct {
	count           int
	totalEngagement float64
	meanSentiment   float64
	sentimentSpread float64
	sources         []Source
}

func aggregateTrends(trends []TrendSignal) trendAggregate {
	agg := trendAggregate{count: len(trends)}
	if len(trends) == 0 {
		return agg
	}
	engagement := make(stats.Float64Data, 0, len(trends))
	sentiment := make(stats.Float64Data, 0, len(trends))
	seen := map[Source]bool{}
	for _, t := range trends {
		engagement = append(engagement, t.Engagement)
		sentiment = append(sentiment, t.Sentiment)
		if !seen[t.Source] {
			seen[t.Source] = true
			agg.sources = append(agg.sources, t.Source)
		}
	}
	agg.totalEngagement, _ = engagement.Sum()
	agg.meanSentiment, _ = sentiment.Mean()
	if len(sentiment) > 1 {
		agg.sentimentSpread, _ = sentiment.StandardDeviation()
	}
	return agg
}

// Scorer derives a ViabilityAssessment from an idea and the trends it came from.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

func (s *Scorer) Assess(idea BusinessIdea) (ViabilityAssessment, error) {
	if err := ValidateIdea(idea); err != nil {
		return ViabilityAssessment{}, err
	}
	agg := aggregateTrends(idea.SourceTrends)
	swot := buildSWOT(idea, agg)
	market := estimateMarketSize(agg)
	competition := competitionLevel(idea, swot)
	score := viabilityScore(swot, market, agg, competition)
	if score < 0 || score > 10 || math.IsNaN(score) {
		return ViabilityAssessment{}, fmt.Errorf("viability score %v out of range", score)
	}
	return ViabilityAssessment{
		IdeaID:             idea.ID,
		SWOT:               swot,
		MarketSizeEstimate: market,
		ViabilityScore:     score,
		Confidence:         confidence(agg.count),
		RiskLevel:          riskLevel(swot),
		KeyAssumptions:     keyAssumptions(idea),
		NextSteps:          nextSteps(score),

		CompetitionLevel:     competition,
		CompetitiveLandscape: competitiveLandscape(idea, competition),
		RevenuePotential:     estimateRevenuePotential(market),
	}, nil
}

func buildSWOT(idea BusinessIdea, agg trendAggregate) SWOT {
	text := strings.ToLower(strings.Join([]string{idea.Title, idea.Description, idea.ValueProposition}, " "))
	market := strings.ToLower(idea.TargetMarket)
	revenue := strings.ToLower(idea.RevenueModel)

	strengths := newStringSet()
	weaknesses := newStringSet()
	opportunities := newStringSet()
	threats := newStringSet()

	switch {
	case agg.count == 0:
		weaknesses.add("No corroborating trend signals")
	case agg.totalEngagement >= strongEngagement:
		strengths.add("Strong initial market pull")
	case agg.totalEngagement < weakEngagement:
		weaknesses.add("Weak demand signal")
	}
	if agg.count > 0 && agg.meanSentiment >= 0.3 {
		strengths.add("Positive market sentiment")
	}
	if agg.count > 0 && agg.meanSentiment < 0 {
		weaknesses.add("Market skepticism around the underlying trend")
	}
	if agg.count >= 2 {
		strengths.add("Corroborated by multiple trend signals")
	}
	if agg.count == 1 {
		weaknesses.add("Demand inferred from a single signal")
	}
	if containsAny(revenue, "subscription", "saas", "recurring", "/month") {
		strengths.add("Recurring revenue model")
	}
	if containsAny(revenue, "usage", "per ") {
		strengths.add("Revenue scales with customer usage")
	}
	if containsAny(revenue, "freemium", "free tier") {
		weaknesses.add("Free tier delays monetization")
	}
	if hasToken(text, "ai", "ai-powered", "automated", "automation", "automatic", "intelligent") {
		strengths.add("Leverages automation for scalable delivery")
	}
	if containsAny(text, "platform", "marketplace") {
		strengths.add("Platform model with network effects")
		weaknesses.add("Requires critical mass before value is visible")
	}
	if containsAny(market, "enterprise", "b2b") {
		weaknesses.add("Long enterprise sales cycles")
	}
	if containsAny(market, "consumer", "individuals", "millennials") {
		weaknesses.add("High customer acquisition cost in consumer markets")
	}

	for _, src := range agg.sources {
		switch src {
		case SourceNews:
			opportunities.add("Media attention opens an awareness window")
		case SourceReddit:
			opportunities.add("Engaged communities for early adopter recruitment")
		case SourceGitHub:
			opportunities.add("Developer ecosystem for bottom-up distribution")
		case SourceSearch:
			opportunities.add("Active search demand for paid acquisition")
		}
	}
	if agg.totalEngagement >= hotEngagement {
		opportunities.add("Rapidly growing audience")
		threats.add("Established competitors may enter the space")
	}
	if containsAny(market, "startup", "small", "mid-size", "teams") {
		opportunities.add("Underserved small and mid-size segment")
	}
	if agg.sentimentSpread > 0.5 {
		threats.add("Volatile market opinion")
	}
	if containsAny(text+" "+market, "financ", "health", "medical", "payment", "privacy") {
		threats.add("Regulatory and compliance exposure")
	}
	if len(agg.sources) <= 1 {
		threats.add("Trend may prove short-lived")
	}
	if hasToken(text, "ai", "ai-powered", "llm", "gpt") {
		threats.add(threatAICommoditization)
	}

	return SWOT{
		Strengths:     strengths.sorted(),
		Weaknesses:    weaknesses.sorted(),
		Opportunities: opportunities.sorted(),
		Threats:       threats.sorted(),
	}
}

// estimateMarketSize grows logarithmically with engagement so one viral signal cannot
// dominate, and is clamped to a fixed band.
func estimateMarketSize(agg trendAggregate) float64 {
	size := baseMarketSize * (1 + math.Log10(1+agg.totalEngagement))
	if agg.count > 1 {
		size *= 1 + 0.25*float64(agg.count-1)
	}
	return math.Round(clamp(size, minMarketSize, maxMarketSize))
}

func viabilityScore(swot SWOT, market float64, agg trendAggregate, competition CompetitionLevel) float64 {
	marketFactor := math.Log10(market/minMarketSize) / math.Log10(maxMarketSize/minMarketSize)
	balance := clamp(float64(len(swot.Strengths)-len(swot.Weaknesses)), -4, 4)
	balanceNorm := (balance + 4) / 8
	sentimentNorm := (clamp(agg.meanSentiment, -1, 1) + 1) / 2
	raw := 10 * (0.35*clamp(marketFactor, 0, 1) + 0.35*balanceNorm + 0.2*sentimentNorm + 0.1*competitionOpenness(competition))
	return round1(clamp(raw, 0, 10))
}

// competitionLevel counts structural signs of a crowded space. It ignores engagement
// and sentiment so the viability score stays monotone in both.
func competitionLevel(idea BusinessIdea, swot SWOT) CompetitionLevel {
	text := strings.ToLower(strings.Join([]string{idea.Title, idea.Description, idea.ValueProposition}, " "))
	market := strings.ToLower(idea.TargetMarket)
	pressure := 0
	for _, th := range swot.Threats {
		if th == threatAICommoditization {
			pressure++
		}
	}
	if containsAny(market, "enterprise", "b2b") {
		pressure++
	}
	if containsAny(text, "platform", "marketplace") {
		pressure++
	}
	switch {
	case pressure >= 2:
		return CompetitionHigh
	case pressure == 1:
		return CompetitionModerate
	default:
		return CompetitionLow
	}
}

func competitionOpenness(c CompetitionLevel) float64 {
	switch c {
	case CompetitionLow:
		return 1
	case CompetitionModerate:
		return 0.5
	default:
		return 0
	}
}

func competitiveLandscape(idea BusinessIdea, c CompetitionLevel) string {
	var level string
	switch c {
	case CompetitionLow:
		level = "low, an emerging space with few direct competitors"
	case CompetitionModerate:
		level = "moderate, several established players but no dominant leader"
	default:
		level = "high, a crowded market that requires strong differentiation"
	}
	market := strings.ToLower(idea.TargetMarket)
	var angle string
	switch {
	case containsAny(market, "enterprise", "b2b"):
		angle = "Incumbents sell long-cycle enterprise suites; faster time-to-value is the opening."
	case containsAny(market, "startup", "small", "mid-size", "teams"):
		angle = "Incumbents focus on enterprise, leaving the small and mid-size segment underserved."
	default:
		angle = "Existing solutions are fragmented; a focused, easy-to-adopt product can consolidate demand."
	}
	return fmt.Sprintf("Competition level: %s. %s", level, angle)
}

// estimateRevenuePotential treats the market estimate as TAM: 10% serviceable, 1%
// obtainable by year three, ramping 10%/40%/100% of that share.
func estimateRevenuePotential(market float64) RevenuePotential {
	som := math.Round(market * 0.01)
	rp := RevenuePotential{
		ServiceableMarket: math.Round(market * 0.10),
		ObtainableMarket:  som,
		Year1ARR:          math.Round(som * 0.10),
		Year2ARR:          math.Round(som * 0.40),
		Year3ARR:          som,
	}
	switch {
	case market >= 1_000_000_000:
		rp.Band = "large"
	case market >= 10_000_000:
		rp.Band = "mid-market"
	default:
		rp.Band = "niche"
	}
	return rp
}

func confidence(trendCount int) float64 {
	n := float64(trendCount)
	return math.Round(clamp(0.1+0.9*n/(n+2), 0, 1)*100) / 100
}

func riskLevel(swot SWOT) RiskLevel {
	risks := len(swot.Weaknesses) + len(swot.Threats)
	switch {
	case risks >= 6:
		return RiskHigh
	case risks >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

func keyAssumptions(idea BusinessIdea) []string {
	return []string{
		fmt.Sprintf("Target market (%s) has budget for this solution", idea.TargetMarket),
		"Customers will switch from existing solutions",
		"Product can be built with reasonable resources",
		fmt.Sprintf("Revenue model (%s) is acceptable to customers", idea.RevenueModel),
	}
}

func nextSteps(score float64) []string {
	if score >= 7.0 {
		return []string{
			"Run a paid validation campaign",
			"Build a landing page with waitlist",
			"Interview 10-15 potential customers",
			"Prototype the core feature set",
		}
	}
	return []string{
		"Refine the value proposition",
		"Research competitors in depth",
		"Validate the problem with customer interviews",
		"Reassess the target market",
	}
}

type stringSet map[string]struct{}

func newStringSet() stringSet { return stringSet{} }

func (s stringSet) add(v string) { s[v] = struct{}{} }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func hasToken(s string, tokens ...string) bool {
	want := map[string]bool{}
	for _, t := range tokens {
		want[t] = true
	}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '.' || r == ';' }) {
		if want[f] {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package scout

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	MinCTR = 0.001
	MaxCTR = 0.10

	minConversionRate = 0.005
	maxConversionRate = 0.25

	baseCPM            = 12.0
	baseCTR            = 0.02
	baseConversionRate = 0.03

	// maxImpressions caps simulated reach so huge budgets cannot overflow the
	// integer counters.
	maxImpressions = math.MaxInt32

	PromisingThreshold = 7.0
	NeedsWorkThreshold = 5.0
)

// Validator simulates a small paid-acquisition campaign for an idea. Each call draws
// from its own generator seeded by the configured seed and the idea id, so results do
// not depend on call order or concurrency.
type Validator struct {
	seed uint64
}

func NewValidator(seed int64) *Validator {
	return &Validator{seed: uint64(seed)}
}

func (v *Validator) Validate(idea BusinessIdea, assessment ViabilityAssessment, budget float64, durationDays int) (ValidationResult, error) {
	if err := ValidateIdea(idea); err != nil {
		return ValidationResult{}, err
	}
	if assessment.IdeaID != idea.ID {
		return ValidationResult{}, fmt.Errorf("assessment %q does not belong to idea %q", assessment.IdeaID, idea.ID)
	}
	if budget <= 0 || math.IsNaN(budget) || math.IsInf(budget, 0) {
		return ValidationResult{}, fmt.Errorf("budget must be positive, got %v", budget)
	}
	if durationDays <= 0 {
		return ValidationResult{}, fmt.Errorf("duration must be positive, got %d days", durationDays)
	}

	rng := rand.New(rand.NewPCG(v.seed, ideaHash(idea.ID)))
	jitter := func(lo, hi float64) float64 {
		return distuv.Uniform{Min: lo, Max: hi}.Quantile(rng.Float64())
	}

	perf := clamp(assessment.ViabilityScore/10, 0, 1)
	balance := clamp(float64(len(assessment.SWOT.Strengths)-len(assessment.SWOT.Weaknesses)), -4, 4)

	budgetDec := decimal.NewFromFloat(budget)
	cpm := baseCPM * (1.5 - perf) * jitter(0.9, 1.1)
	impressions := int(math.Min(math.Floor(budget/cpm*1000), maxImpressions))

	ctr := baseCTR * (0.5 + perf) * (1 + 0.08*balance) * adFatigue(durationDays) * jitter(0.85, 1.15)
	ctr = clamp(ctr, MinCTR, MaxCTR)
	clicks := clampClicks(int(math.Round(float64(impressions)*ctr)), impressions)

	convRate := clamp(baseConversionRate*(0.5+perf)*jitter(0.85, 1.15), minConversionRate, maxConversionRate)
	conversions := int(math.Round(float64(clicks) * convRate))
	if conversions > clicks {
		conversions = clicks
	}

	spend := decimal.NewFromInt(int64(impressions)).
		Mul(decimal.NewFromFloat(cpm)).
		Div(decimal.NewFromInt(1000)).
		RoundDown(2)
	if spend.GreaterThan(budgetDec) {
		spend = budgetDec
	}
	cpc := decimal.Zero
	if clicks > 0 {
		cpc = spend.Div(decimal.NewFromInt(int64(clicks))).Round(2)
	}

	observedCTR := ctr
	if impressions > 0 {
		observedCTR = clamp(float64(clicks)/float64(impressions), MinCTR, MaxCTR)
	}
	observedConv := 0.0
	if clicks > 0 {
		observedConv = float64(conversions) / float64(clicks)
	}

	score := EngagementScore(observedCTR, observedConv, perf)
	spendF, _ := spend.Float64()
	cpcF, _ := cpc.Float64()
	platform := SelectPlatform(idea.TargetMarket)
	verdict := Classify(score)

	result := ValidationResult{
		IdeaID:          idea.ID,
		Platform:        platform,
		Budget:          budget,
		DurationDays:    durationDays,
		Impressions:     impressions,
		Clicks:          clicks,
		Conversions:     conversions,
		CTR:             observedCTR,
		ConversionRate:  observedConv,
		CPC:             cpcF,
		Spend:           spendF,
		EngagementScore: score,
		Verdict:         verdict,
		ConfidenceLevel: campaignConfidence(clicks, conversions),
		AdHeadline:      adHeadline(idea),
		AdCopy:          adCopy(idea),
		Targeting:       campaignTargeting(idea),
	}
	result.Insights = campaignInsights(result)
	result.Recommendations = campaignRecommendations(result)
	return result, nil
}

// EngagementScore blends click-through, conversion and the prior viability into [0,10].
func EngagementScore(ctr, conversionRate, viability float64) float64 {
	ctrNorm := clamp(ctr/0.05, 0, 1)
	convNorm := clamp(conversionRate/0.06, 0, 1)
	raw := 10 * (0.35*ctrNorm + 0.35*convNorm + 0.30*clamp(viability, 0, 1))
	return round1(clamp(raw, 0, 10))
}

func Classify(engagement float64) Verdict {
	switch {
	case engagement >= PromisingThreshold:
		return VerdictPromising
	case engagement >= NeedsWorkThreshold:
		return VerdictNeedsWork
	default:
		return VerdictNotViable
	}
}

func SelectPlatform(targetMarket string) Platform {
	target := strings.ToLower(targetMarket)
	switch {
	case containsAny(target, "developer", "software", "tech", "devops", "engineer"):
		return PlatformGoogle
	case containsAny(target, "b2b", "enterprise", "business", "companies"):
		return PlatformLinkedIn
	default:
		return PlatformMeta
	}
}

// clampClicks keeps clicks/impressions inside the CTR band whenever an integer click
// count allows it.
func clampClicks(clicks, impressions int) int {
	if impressions <= 0 {
		return 0
	}
	lo := int(math.Ceil(float64(impressions) * MinCTR))
	hi := int(math.Floor(float64(impressions) * MaxCTR))
	if lo > hi {
		return hi
	}
	return max(lo, min(hi, clicks))
}

// adFatigue dampens click-through for campaigns that run past two weeks.
func adFatigue(days int) float64 {
	return clamp(1-0.01*float64(days-14), 0.7, 1)
}

func campaignConfidence(clicks, conversions int) ConfidenceLevel {
	switch {
	case conversions >= 50 && clicks >= 500:
		return ConfidenceHigh
	case conversions >= 20 && clicks >= 200:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func adHeadline(idea BusinessIdea) string {
	return fmt.Sprintf("%s: %s", idea.Title, idea.ValueProposition)
}

// adCopy is the simulated ad body: value proposition plus up to three key features.
func adCopy(idea BusinessIdea) string {
	var b strings.Builder
	b.WriteString(idea.Title + "\n\n" + idea.ValueProposition + "\n")
	features := idea.KeyFeatures
	if len(features) > 3 {
		features = features[:3]
	}
	if len(features) > 0 {
		b.WriteString("\nKey benefits:\n")
		for _, f := range features {
			b.WriteString("- " + f + "\n")
		}
	}
	b.WriteString("\nLearn more: limited early access")
	return b.String()
}

var (
	targetLocations = []string{"US", "CA", "UK", "AU"}
	targetDevices   = []string{"mobile", "desktop"}
)

const maxInterests = 5

func campaignTargeting(idea BusinessIdea) Targeting {
	seen := map[string]bool{}
	interests := []string{}
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] || len(interests) >= maxInterests {
			return
		}
		seen[k] = true
		interests = append(interests, k)
	}
	add(idea.Keyword)
	for _, t := range idea.SourceTrends {
		for _, k := range t.Keywords {
			add(k)
		}
	}
	return Targeting{
		Interests: interests,
		AgeMin:    25,
		AgeMax:    55,
		Locations: append([]string(nil), targetLocations...),
		Devices:   append([]string(nil), targetDevices...),
	}
}

func campaignInsights(r ValidationResult) []string {
	var insights []string
	switch {
	case r.CTR > 0.04:
		insights = append(insights, fmt.Sprintf("Strong CTR of %.2f%% indicates a compelling value proposition", r.CTR*100))
	case r.CTR < 0.01:
		insights = append(insights, fmt.Sprintf("Low CTR of %.2f%% suggests messaging needs improvement", r.CTR*100))
	}
	switch {
	case r.ConversionRate > 0.08:
		insights = append(insights, fmt.Sprintf("High conversion rate of %.1f%% shows strong market interest", r.ConversionRate*100))
	case r.ConversionRate < 0.03:
		insights = append(insights, "Low conversion rate may indicate the landing page or offer needs work")
	}
	switch {
	case r.Clicks == 0:
		insights = append(insights, "No clicks recorded; cost per click is undefined")
	case r.CPC < 1.0:
		insights = append(insights, fmt.Sprintf("Low CPC of $%.2f suggests efficient targeting", r.CPC))
	case r.CPC > 5.0:
		insights = append(insights, fmt.Sprintf("High CPC of $%.2f may impact profitability", r.CPC))
	}
	insights = append(insights, fmt.Sprintf("%s campaign reached an engagement score of %.1f/10", platformLabel(r.Platform), r.EngagementScore))
	return insights
}

func campaignRecommendations(r ValidationResult) []string {
	if r.Verdict == VerdictPromising {
		return []string{
			"Proceed with MVP development",
			"Scale ad spend gradually to acquire early users",
			"A/B test messaging to optimize conversion rate",
			"Set up an email nurture sequence for leads",
		}
	}
	recs := []string{"Results inconclusive; consider a pivot or another iteration"}
	if r.CTR < 0.015 {
		recs = append(recs, "Improve ad copy and creative to increase CTR")
	}
	if r.ConversionRate < 0.03 {
		recs = append(recs, "Redesign the landing page to better communicate value")
	}
	recs = append(recs,
		"Conduct user interviews to understand hesitation",
		"Test alternative value propositions",
	)
	return recs
}

func platformLabel(p Platform) string {
	switch p {
	case PlatformGoogle:
		return "Google Ads"
	case PlatformLinkedIn:
		return "LinkedIn"
	default:
		return "Meta"
	}
}

func ideaHash(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

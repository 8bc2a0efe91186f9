package scout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assessedIdea(t *testing.T, trend TrendSignal) (BusinessIdea, ViabilityAssessment) {
	t.Helper()
	idea := templateIdea(t, trend)
	a, err := NewScorer().Assess(idea)
	require.NoError(t, err)
	return idea, a
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, VerdictPromising, Classify(7.0))
	assert.Equal(t, VerdictPromising, Classify(10))
	assert.Equal(t, VerdictNeedsWork, Classify(6.999))
	assert.Equal(t, VerdictNeedsWork, Classify(5.0))
	assert.Equal(t, VerdictNotViable, Classify(4.999))
	assert.Equal(t, VerdictNotViable, Classify(0))
}

func TestValidateCampaignInvariants(t *testing.T) {
	v := NewValidator(DefaultSimulationSeed)
	budgets := []float64{0.01, 1, 50, 500, 12345.67, 1e17}
	for _, tr := range threeTrends() {
		idea, a := assessedIdea(t, tr)
		for _, budget := range budgets {
			for _, days := range []int{1, 7, 30, 90} {
				r, err := v.Validate(idea, a, budget, days)
				require.NoError(t, err)
				assert.Equal(t, idea.ID, r.IdeaID)
				assert.GreaterOrEqual(t, r.CTR, MinCTR)
				assert.LessOrEqual(t, r.CTR, MaxCTR)
				assert.LessOrEqual(t, r.Spend, budget)
				assert.GreaterOrEqual(t, r.Spend, 0.0)
				assert.LessOrEqual(t, r.Clicks, r.Impressions)
				assert.LessOrEqual(t, r.Conversions, r.Clicks)
				if r.Clicks == 0 {
					assert.Zero(t, r.CPC)
				}
				assert.GreaterOrEqual(t, r.EngagementScore, 0.0)
				assert.LessOrEqual(t, r.EngagementScore, 10.0)
				assert.Equal(t, Classify(r.EngagementScore), r.Verdict)
				assert.False(t, math.IsNaN(r.ConversionRate))
			}
		}
	}
}

func TestValidateTinyBudgetHasNoClicks(t *testing.T) {
	idea, a := assessedIdea(t, threeTrends()[1])
	r, err := NewValidator(1).Validate(idea, a, 0.01, 7)
	require.NoError(t, err)
	assert.Zero(t, r.Clicks)
	assert.Zero(t, r.CPC)
	assert.Zero(t, r.ConversionRate)
	assert.Contains(t, r.Insights, "No clicks recorded; cost per click is undefined")
}

func TestValidateHugeBudgetSaturates(t *testing.T) {
	for _, tr := range threeTrends() {
		idea, a := assessedIdea(t, tr)
		r, err := NewValidator(DefaultSimulationSeed).Validate(idea, a, 1e17, 30)
		require.NoError(t, err)
		assert.Positive(t, r.Impressions)
		assert.LessOrEqual(t, r.Impressions, math.MaxInt32)
		assert.GreaterOrEqual(t, r.Spend, 0.0)
		assert.LessOrEqual(t, r.Spend, 1e17)
		assert.LessOrEqual(t, r.Clicks, r.Impressions)
		assert.GreaterOrEqual(t, r.Clicks, 0)
		assert.LessOrEqual(t, r.Conversions, r.Clicks)
		assert.GreaterOrEqual(t, r.CTR, MinCTR)
		assert.LessOrEqual(t, r.CTR, MaxCTR)
	}
}

func TestValidateFewImpressionsReportsFloorCTR(t *testing.T) {
	v := NewValidator(DefaultSimulationSeed)
	for _, tr := range threeTrends() {
		idea, a := assessedIdea(t, tr)
		r, err := v.Validate(idea, a, 0.05, 7)
		require.NoError(t, err)
		require.Positive(t, r.Impressions)
		require.Less(t, r.Impressions, 10)
		assert.Zero(t, r.Clicks)
		assert.Equal(t, MinCTR, r.CTR)
	}
}

func TestAdCopyListsTopThreeFeatures(t *testing.T) {
	idea, _ := assessedIdea(t, threeTrends()[0])
	require.Greater(t, len(idea.KeyFeatures), 3)
	body := adCopy(idea)
	assert.Contains(t, body, idea.Title)
	assert.Contains(t, body, idea.ValueProposition)
	assert.Contains(t, body, "Key benefits:")
	for _, f := range idea.KeyFeatures[:3] {
		assert.Contains(t, body, "- "+f)
	}
	assert.NotContains(t, body, idea.KeyFeatures[3])

	idea.KeyFeatures = nil
	assert.NotContains(t, adCopy(idea), "Key benefits:")
}

func TestCampaignTargeting(t *testing.T) {
	idea := BusinessIdea{
		Keyword: "AI",
		SourceTrends: []TrendSignal{
			{Keywords: []string{"ai", "Coding", "productivity"}},
			{Keywords: []string{"coding", "developers", "tools", "ides"}},
		},
	}
	tg := campaignTargeting(idea)
	assert.Equal(t, []string{"ai", "coding", "productivity", "developers", "tools"}, tg.Interests)
	assert.Equal(t, 25, tg.AgeMin)
	assert.Equal(t, 55, tg.AgeMax)
	assert.Equal(t, []string{"US", "CA", "UK", "AU"}, tg.Locations)
	assert.Equal(t, []string{"mobile", "desktop"}, tg.Devices)

	tg.Locations[0] = "FR"
	assert.Equal(t, "US", campaignTargeting(idea).Locations[0])
}

func TestValidateAttachesCreative(t *testing.T) {
	idea, a := assessedIdea(t, threeTrends()[2])
	r, err := NewValidator(1).Validate(idea, a, 500, 7)
	require.NoError(t, err)
	assert.Equal(t, adCopy(idea), r.AdCopy)
	assert.Equal(t, campaignTargeting(idea), r.Targeting)
}

func TestValidateDeterministicPerSeed(t *testing.T) {
	idea, a := assessedIdea(t, threeTrends()[0])
	r1, err := NewValidator(7).Validate(idea, a, 500, 7)
	require.NoError(t, err)
	r2, err := NewValidator(7).Validate(idea, a, 500, 7)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestValidateRejectsBadInput(t *testing.T) {
	idea, a := assessedIdea(t, threeTrends()[0])
	v := NewValidator(1)

	_, err := v.Validate(idea, a, 0, 7)
	assert.Error(t, err)
	_, err = v.Validate(idea, a, math.Inf(1), 7)
	assert.Error(t, err)
	_, err = v.Validate(idea, a, 100, 0)
	assert.Error(t, err)

	other := a
	other.IdeaID = "someone-else"
	_, err = v.Validate(idea, other, 100, 7)
	assert.Error(t, err)

	_, err = v.Validate(BusinessIdea{}, a, 100, 7)
	assert.ErrorIs(t, err, ErrInvalidIdea)
}

func TestEngagementScoreRange(t *testing.T) {
	assert.Equal(t, 0.0, EngagementScore(0, 0, 0))
	assert.Equal(t, 10.0, EngagementScore(1, 1, 1))
	assert.Equal(t, 10.0, EngagementScore(0.05, 0.06, 1))
	assert.Equal(t, 3.5, EngagementScore(0.05, 0, 0))
}

func TestSelectPlatform(t *testing.T) {
	assert.Equal(t, PlatformGoogle, SelectPlatform("Software development teams"))
	assert.Equal(t, PlatformLinkedIn, SelectPlatform("Companies with 50-500 employees"))
	assert.Equal(t, PlatformMeta, SelectPlatform("Consumers"))
}

func TestClampClicks(t *testing.T) {
	assert.Equal(t, 0, clampClicks(5, 0))
	assert.Equal(t, 1, clampClicks(0, 1000))
	assert.Equal(t, 100, clampClicks(500, 1000))
	assert.Equal(t, 37, clampClicks(37, 1000))
}

func TestCampaignRecommendationsByVerdict(t *testing.T) {
	promising := campaignRecommendations(ValidationResult{Verdict: VerdictPromising, CTR: 0.05, ConversionRate: 0.1})
	assert.Equal(t, "Proceed with MVP development", promising[0])

	weak := campaignRecommendations(ValidationResult{Verdict: VerdictNotViable, CTR: 0.005, ConversionRate: 0.01})
	assert.Contains(t, weak, "Improve ad copy and creative to increase CTR")
	assert.Contains(t, weak, "Redesign the landing page to better communicate value")
}

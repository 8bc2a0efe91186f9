package scout

import "time"

const Disclaimer = "Campaign metrics are simulated from viability scores and do not reflect real ad-platform data. " +
	"Treat verdicts as a prioritization aid, not market evidence."

const (
	DefaultMaxIdeas       = 5
	DefaultBudget         = 500.0
	DefaultDurationDays   = 7
	DefaultConcurrency    = 4
	DefaultSimulationSeed = 42
)

type Source string

const (
	SourceNews   Source = "news"
	SourceReddit Source = "reddit"
	SourceGitHub Source = "github"
	SourceSearch Source = "search"
)

func (s Source) Valid() bool {
	switch s {
	case SourceNews, SourceReddit, SourceGitHub, SourceSearch:
		return true
	}
	return false
}

type Verdict string

const (
	VerdictPromising Verdict = "PROMISING"
	VerdictNeedsWork Verdict = "NEEDS_WORK"
	VerdictNotViable Verdict = "NOT_VIABLE"
)

type IdeaOrigin string

const (
	OriginTemplate IdeaOrigin = "template"
	OriginLLM      IdeaOrigin = "llm"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type CompetitionLevel string

const (
	CompetitionLow      CompetitionLevel = "low"
	CompetitionModerate CompetitionLevel = "moderate"
	CompetitionHigh     CompetitionLevel = "high"
)

type Platform string

const (
	PlatformMeta     Platform = "meta"
	PlatformGoogle   Platform = "google"
	PlatformLinkedIn Platform = "linkedin"
)

type TrendSignal struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Source       Source    `json:"source"`
	Engagement   float64   `json:"engagement"`
	Sentiment    float64   `json:"sentiment"`
	DiscoveredAt time.Time `json:"discovered_at"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url,omitempty"`
	Keywords     []string  `json:"keywords,omitempty"`
}

type BusinessIdea struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	TargetMarket     string        `json:"target_market"`
	ValueProposition string        `json:"value_proposition"`
	RevenueModel     string        `json:"revenue_model"`
	ProblemSolved    string        `json:"problem_solved,omitempty"`
	KeyFeatures      []string      `json:"key_features,omitempty"`
	Keyword          string        `json:"keyword,omitempty"`
	Origin           IdeaOrigin    `json:"origin"`
	SourceTrends     []TrendSignal `json:"source_trends"`
	CreatedAt        time.Time     `json:"created_at"`
}

type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

type ViabilityAssessment struct {
	IdeaID             string    `json:"idea_id"`
	SWOT               SWOT      `json:"swot"`
	MarketSizeEstimate float64   `json:"market_size_estimate"`
	ViabilityScore     float64   `json:"viability_score"`
	Confidence         float64   `json:"confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
	KeyAssumptions     []string  `json:"key_assumptions,omitempty"`
	NextSteps          []string  `json:"next_steps,omitempty"`

	CompetitionLevel     CompetitionLevel `json:"competition_level"`
	CompetitiveLandscape string           `json:"competitive_landscape"`
	RevenuePotential     RevenuePotential `json:"revenue_potential"`
}

// RevenuePotential sizes the serviceable and obtainable share of the estimated market
// and a three-year ARR ramp that reaches the obtainable share in year three.
type RevenuePotential struct {
	Band              string  `json:"band"`
	ServiceableMarket float64 `json:"serviceable_market"`
	ObtainableMarket  float64 `json:"obtainable_market"`
	Year1ARR          float64 `json:"year1_arr"`
	Year2ARR          float64 `json:"year2_arr"`
	Year3ARR          float64 `json:"year3_arr"`
}

// Targeting is the audience definition for a simulated campaign.
type Targeting struct {
	Interests []string `json:"interests"`
	AgeMin    int      `json:"age_min"`
	AgeMax    int      `json:"age_max"`
	Locations []string `json:"locations"`
	Devices   []string `json:"devices"`
}

type ValidationResult struct {
	IdeaID          string          `json:"idea_id"`
	Platform        Platform        `json:"platform"`
	Budget          float64         `json:"budget"`
	DurationDays    int             `json:"duration_days"`
	Impressions     int             `json:"impressions"`
	Clicks          int             `json:"clicks"`
	Conversions     int             `json:"conversions"`
	CTR             float64         `json:"ctr"`
	ConversionRate  float64         `json:"conversion_rate"`
	CPC             float64         `json:"cpc"`
	Spend           float64         `json:"spend"`
	EngagementScore float64         `json:"engagement_score"`
	Verdict         Verdict         `json:"verdict"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	AdHeadline      string          `json:"ad_headline,omitempty"`
	AdCopy          string          `json:"ad_copy,omitempty"`
	Targeting       Targeting       `json:"targeting"`
	Insights        []string        `json:"insights,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

type RunOptions struct {
	MaxIdeas      int
	BudgetPerIdea float64
	DurationDays  int
}

func DefaultRunOptions() RunOptions {
	return RunOptions{MaxIdeas: DefaultMaxIdeas, BudgetPerIdea: DefaultBudget, DurationDays: DefaultDurationDays}
}

type State string

const (
	StateScanning   State = "SCANNING"
	StateGenerating State = "GENERATING"
	StateAnalyzing  State = "ANALYZING"
	StateValidating State = "VALIDATING"
	StateReporting  State = "REPORTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

type StageCount struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

type SourceStatus struct {
	Name    string `json:"name"`
	Source  Source `json:"source"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

type ReportSummary struct {
	TrendsAnalyzed     int                  `json:"trends_analyzed"`
	TrendsRejected     int                  `json:"trends_rejected"`
	IdeasGenerated     int                  `json:"ideas_generated"`
	IdeasValidated     int                  `json:"ideas_validated"`
	PromisingCount     int                  `json:"promising_count"`
	NeedsWorkCount     int                  `json:"needs_work_count"`
	NotViableCount     int                  `json:"not_viable_count"`
	GenerationFailures int                  `json:"generation_failures"`
	ScoringFailures    int                  `json:"scoring_failures"`
	ValidationFailures int                  `json:"validation_failures"`
	Stages             map[State]StageCount `json:"stages"`
	Sources            []SourceStatus       `json:"sources,omitempty"`
}

// ScoredIdea is one fully processed idea with both downstream records attached.
type ScoredIdea struct {
	Rank       int                 `json:"rank"`
	Composite  float64             `json:"composite_score"`
	Idea       BusinessIdea        `json:"idea"`
	Assessment ViabilityAssessment `json:"assessment"`
	Validation ValidationResult    `json:"validation"`
}

type RunMetadata struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	StatesVisited  []State   `json:"states_visited"`
	GeneratorMode  string    `json:"generator_mode"`
	BudgetPerIdea  float64   `json:"budget_per_idea"`
	DurationDays   int       `json:"duration_days"`
	MaxIdeas       int       `json:"max_ideas"`
	SimulationSeed int64     `json:"simulation_seed"`
}

type ScoutReport struct {
	Summary            ReportSummary `json:"summary"`
	Ideas              []ScoredIdea  `json:"ideas"`
	Failures           []IdeaFailure `json:"failures"`
	TopRecommendations []string      `json:"top_recommendations"`
	Metadata           RunMetadata   `json:"metadata"`
}

package scout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IdeaRecord is one idea flattened together with its assessment and campaign result.
type IdeaRecord struct {
	Rank             int        `json:"rank"`
	CompositeScore   float64    `json:"composite_score"`
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TargetMarket     string     `json:"target_market"`
	ValueProposition string     `json:"value_proposition"`
	RevenueModel     string     `json:"revenue_model"`
	ProblemSolved    string     `json:"problem_solved,omitempty"`
	KeyFeatures      []string   `json:"key_features,omitempty"`
	Origin           IdeaOrigin `json:"origin"`
	SourceTrendIDs   []string   `json:"source_trend_ids"`
	SourceTopics     []string   `json:"source_topics"`
	CreatedAt        time.Time  `json:"created_at"`

	SWOT               SWOT      `json:"swot"`
	MarketSizeEstimate float64   `json:"market_size_estimate"`
	ViabilityScore     float64   `json:"viability_score"`
	Confidence         float64   `json:"confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
	NextSteps          []string  `json:"next_steps,omitempty"`

	CompetitionLevel     CompetitionLevel `json:"competition_level"`
	CompetitiveLandscape string           `json:"competitive_landscape"`
	RevenuePotential     RevenuePotential `json:"revenue_potential"`

	Platform        Platform        `json:"platform"`
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
	AdCopy          string          `json:"ad_copy,omitempty"`
	Targeting       Targeting       `json:"targeting"`
	Insights        []string        `json:"insights,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

type ReportArtifact struct {
	RunID              string        `json:"run_id"`
	GeneratedAt        time.Time     `json:"generated_at"`
	Summary            ReportSummary `json:"summary"`
	Ideas              []IdeaRecord  `json:"ideas"`
	Failures           []IdeaFailure `json:"failures"`
	TopRecommendations []string      `json:"top_recommendations"`
	Metadata           RunMetadata   `json:"metadata"`
	Disclaimer         string        `json:"disclaimer"`
}

func (r ScoutReport) Artifact() ReportArtifact {
	ideas := make([]IdeaRecord, 0, len(r.Ideas))
	for _, s := range r.Ideas {
		ideas = append(ideas, flattenIdea(s))
	}
	failures := r.Failures
	if failures == nil {
		failures = []IdeaFailure{}
	}
	return ReportArtifact{
		RunID:              r.Metadata.RunID,
		GeneratedAt:        r.Metadata.CompletedAt,
		Summary:            r.Summary,
		Ideas:              ideas,
		Failures:           failures,
		TopRecommendations: r.TopRecommendations,
		Metadata:           r.Metadata,
		Disclaimer:         Disclaimer,
	}
}

func flattenIdea(s ScoredIdea) IdeaRecord {
	rec := IdeaRecord{
		Rank:             s.Rank,
		CompositeScore:   s.Composite,
		ID:               s.Idea.ID,
		Title:            s.Idea.Title,
		Description:      s.Idea.Description,
		TargetMarket:     s.Idea.TargetMarket,
		ValueProposition: s.Idea.ValueProposition,
		RevenueModel:     s.Idea.RevenueModel,
		ProblemSolved:    s.Idea.ProblemSolved,
		KeyFeatures:      s.Idea.KeyFeatures,
		Origin:           s.Idea.Origin,
		SourceTrendIDs:   []string{},
		SourceTopics:     []string{},
		CreatedAt:        s.Idea.CreatedAt,

		SWOT:               s.Assessment.SWOT,
		MarketSizeEstimate: s.Assessment.MarketSizeEstimate,
		ViabilityScore:     s.Assessment.ViabilityScore,
		Confidence:         s.Assessment.Confidence,
		RiskLevel:          s.Assessment.RiskLevel,
		NextSteps:          s.Assessment.NextSteps,

		CompetitionLevel:     s.Assessment.CompetitionLevel,
		CompetitiveLandscape: s.Assessment.CompetitiveLandscape,
		RevenuePotential:     s.Assessment.RevenuePotential,

		Platform:        s.Validation.Platform,
		Impressions:     s.Validation.Impressions,
		Clicks:          s.Validation.Clicks,
		Conversions:     s.Validation.Conversions,
		CTR:             s.Validation.CTR,
		ConversionRate:  s.Validation.ConversionRate,
		CPC:             s.Validation.CPC,
		Spend:           s.Validation.Spend,
		EngagementScore: s.Validation.EngagementScore,
		Verdict:         s.Validation.Verdict,
		ConfidenceLevel: s.Validation.ConfidenceLevel,
		AdCopy:          s.Validation.AdCopy,
		Targeting:       s.Validation.Targeting,
		Insights:        s.Validation.Insights,
		Recommendations: s.Validation.Recommendations,
	}
	for _, t := range s.Idea.SourceTrends {
		rec.SourceTrendIDs = append(rec.SourceTrendIDs, t.ID)
		rec.SourceTopics = append(rec.SourceTopics, t.Topic)
	}
	return rec
}

func ArtifactFilename(t time.Time) string {
	return fmt.Sprintf("scout_report_%s.json", t.UTC().Format("20060102_150405"))
}

// SaveArtifact writes the report atomically via a temp file and rename.
func SaveArtifact(path string, a ReportArtifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func LoadArtifact(path string) (ReportArtifact, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return ReportArtifact{}, err
	}
	var a ReportArtifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return ReportArtifact{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return a, nil
}

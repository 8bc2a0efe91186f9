package scout

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

func (p *Pipeline) buildReport(rc *runContext) ScoutReport {
	var scored []ScoredIdea
	for _, slot := range rc.slots {
		if slot.assessment == nil || slot.validation == nil {
			continue
		}
		scored = append(scored, ScoredIdea{
			Idea:       slot.idea,
			Assessment: *slot.assessment,
			Validation: *slot.validation,
		})
	}
	scored = RankIdeas(scored)

	summary := ReportSummary{
		TrendsAnalyzed: len(rc.trends),
		TrendsRejected: rc.rejected,
		IdeasGenerated: len(rc.slots),
		IdeasValidated: len(scored),
		Stages:         rc.stages,
		Sources:        rc.sources,
	}
	for _, s := range scored {
		switch s.Validation.Verdict {
		case VerdictPromising:
			summary.PromisingCount++
		case VerdictNeedsWork:
			summary.NeedsWorkCount++
		default:
			summary.NotViableCount++
		}
	}
	for _, f := range rc.failures {
		switch f.Kind {
		case FailureGeneration:
			summary.GenerationFailures++
		case FailureScoring:
			summary.ScoringFailures++
		case FailureValidation:
			summary.ValidationFailures++
		}
	}
	if scored == nil {
		scored = []ScoredIdea{}
	}
	failures := append([]IdeaFailure{}, rc.failures...)

	return ScoutReport{
		Summary:            summary,
		Ideas:              scored,
		Failures:           failures,
		TopRecommendations: TopRecommendations(scored),
		Metadata: RunMetadata{
			RunID:          rc.id,
			StartedAt:      rc.startedAt,
			CompletedAt:    p.now().UTC(),
			GeneratorMode:  p.generator.Mode(),
			BudgetPerIdea:  rc.opts.BudgetPerIdea,
			DurationDays:   rc.opts.DurationDays,
			MaxIdeas:       rc.opts.MaxIdeas,
			SimulationSeed: p.seed,
		},
	}
}

// CompositeScore weighs prior viability and simulated engagement equally.
func CompositeScore(viability, engagement float64) float64 {
	return math.Round((0.5*viability+0.5*engagement)*100) / 100
}

// RankIdeas orders by composite score descending. Ties keep generation order.
func RankIdeas(ideas []ScoredIdea) []ScoredIdea {
	out := append([]ScoredIdea(nil), ideas...)
	for i := range out {
		out[i].Composite = CompositeScore(out[i].Assessment.ViabilityScore, out[i].Validation.EngagementScore)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Composite > out[j].Composite
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func TopRecommendations(ranked []ScoredIdea) []string {
	var promising []ScoredIdea
	for _, s := range ranked {
		if s.Validation.Verdict == VerdictPromising {
			promising = append(promising, s)
		}
	}
	if len(promising) == 0 {
		if len(ranked) == 0 {
			return []string{"No ideas completed validation; widen trend sources or adjust the generator"}
		}
		best := ranked[0]
		return []string{
			"No ideas achieved strong validation; consider refining the approach",
			fmt.Sprintf("Closest candidate: '%s' (viability %.1f/10, engagement %.1f/10)",
				best.Idea.Title, best.Assessment.ViabilityScore, best.Validation.EngagementScore),
		}
	}
	recs := []string{fmt.Sprintf("%d out of %d ideas show strong market validation", len(promising), len(ranked))}
	for _, s := range promising {
		recs = append(recs, fmt.Sprintf("'%s': viability %.1f/10, engagement %.1f/10",
			s.Idea.Title, s.Assessment.ViabilityScore, s.Validation.EngagementScore))
	}
	return recs
}

func BuildMarkdown(a ReportArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Business Scout Report\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", a.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", a.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Generator: %s\n", a.Metadata.GeneratorMode)
	fmt.Fprintf(&b, "- Budget per idea: $%.2f over %d days\n\n", a.Metadata.BudgetPerIdea, a.Metadata.DurationDays)
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Trends analyzed | %d |\n", a.Summary.TrendsAnalyzed)
	fmt.Fprintf(&b, "| Ideas generated | %d |\n", a.Summary.IdeasGenerated)
	fmt.Fprintf(&b, "| Ideas validated | %d |\n", a.Summary.IdeasValidated)
	fmt.Fprintf(&b, "| Promising | %d |\n", a.Summary.PromisingCount)
	fmt.Fprintf(&b, "| Needs work | %d |\n", a.Summary.NeedsWorkCount)
	fmt.Fprintf(&b, "| Not viable | %d |\n", a.Summary.NotViableCount)
	if n := a.Summary.GenerationFailures + a.Summary.ScoringFailures + a.Summary.ValidationFailures; n > 0 {
		fmt.Fprintf(&b, "| Failed ideas | %d |\n", n)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Top Recommendations\n\n")
	for _, r := range a.TopRecommendations {
		fmt.Fprintf(&b, "- %s\n", sanitize(r))
	}
	b.WriteString("\n")

	if len(a.Ideas) > 0 {
		fmt.Fprintf(&b, "## Ranked Ideas\n\n")
		fmt.Fprintf(&b, "| Rank | Idea | Viability | Engagement | Verdict | CTR | CPC |\n")
		fmt.Fprintf(&b, "|------|------|-----------|------------|---------|-----|-----|\n")
		for _, idea := range a.Ideas {
			fmt.Fprintf(&b, "| %d | %s | %.1f | %.1f | `%s` | %.2f%% | $%.2f |\n",
				idea.Rank, sanitizeCell(idea.Title), idea.ViabilityScore, idea.EngagementScore, idea.Verdict, idea.CTR*100, idea.CPC)
		}
		b.WriteString("\n")
	}

	for _, idea := range a.Ideas {
		fmt.Fprintf(&b, "### %d. %s\n\n", idea.Rank, sanitize(idea.Title))
		fmt.Fprintf(&b, "%s\n\n", sanitize(idea.Description))
		fmt.Fprintf(&b, "- Target market: %s\n", sanitize(idea.TargetMarket))
		fmt.Fprintf(&b, "- Value proposition: %s\n", sanitize(idea.ValueProposition))
		fmt.Fprintf(&b, "- Revenue model: %s\n", sanitize(idea.RevenueModel))
		fmt.Fprintf(&b, "- Market size estimate: $%s\n", fmtUSD(int64(idea.MarketSizeEstimate)))
		fmt.Fprintf(&b, "- Risk level: %s, confidence %.2f\n", idea.RiskLevel, idea.Confidence)
		fmt.Fprintf(&b, "- Competition: %s\n", idea.CompetitionLevel)
		rp := idea.RevenuePotential
		fmt.Fprintf(&b, "- Revenue potential (%s): SAM $%s, SOM $%s; ARR $%s / $%s / $%s over years 1-3\n\n",
			rp.Band, fmtUSD(int64(rp.ServiceableMarket)), fmtUSD(int64(rp.ObtainableMarket)),
			fmtUSD(int64(rp.Year1ARR)), fmtUSD(int64(rp.Year2ARR)), fmtUSD(int64(rp.Year3ARR)))
		if idea.CompetitiveLandscape != "" {
			fmt.Fprintf(&b, "%s\n\n", sanitize(idea.CompetitiveLandscape))
		}
		writeList(&b, "Strengths", idea.SWOT.Strengths)
		writeList(&b, "Weaknesses", idea.SWOT.Weaknesses)
		writeList(&b, "Opportunities", idea.SWOT.Opportunities)
		writeList(&b, "Threats", idea.SWOT.Threats)
		fmt.Fprintf(&b, "**Campaign (%s)**: %d impressions, %d clicks, %d conversions, spend $%.2f\n\n",
			idea.Platform, idea.Impressions, idea.Clicks, idea.Conversions, idea.Spend)
		if len(idea.Targeting.Interests) > 0 {
			fmt.Fprintf(&b, "Targeting: %s; ages %d-%d; %s\n\n", strings.Join(idea.Targeting.Interests, ", "),
				idea.Targeting.AgeMin, idea.Targeting.AgeMax, strings.Join(idea.Targeting.Locations, ", "))
		}
		if idea.AdCopy != "" {
			b.WriteString("```text\n" + idea.AdCopy + "\n```\n\n")
		}
		writeList(&b, "Insights", idea.Insights)
		writeList(&b, "Recommendations", idea.Recommendations)
	}

	if len(a.Failures) > 0 {
		fmt.Fprintf(&b, "## Failures\n\n")
		for _, f := range a.Failures {
			fmt.Fprintf(&b, "- `%s` %s\n", f.Kind, sanitize(f.Error()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteConsoleSummary prints the executive summary and the top three ideas.
func WriteConsoleSummary(w io.Writer, a ReportArtifact) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "METRIC\tVALUE\n")
	fmt.Fprintf(tw, "Trends analyzed\t%d\n", a.Summary.TrendsAnalyzed)
	fmt.Fprintf(tw, "Ideas generated\t%d\n", a.Summary.IdeasGenerated)
	fmt.Fprintf(tw, "Ideas validated\t%d\n", a.Summary.IdeasValidated)
	fmt.Fprintf(tw, "Promising ideas\t%d\n", a.Summary.PromisingCount)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top recommendations:")
	for _, r := range a.TopRecommendations {
		fmt.Fprintf(w, "  %s\n", r)
	}
	top := a.Ideas
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) > 0 {
		fmt.Fprintln(w)
	}
	for _, idea := range top {
		fmt.Fprintf(w, "%d. %s [%s]\n", idea.Rank, idea.Title, idea.Verdict)
		fmt.Fprintf(w, "   viability %.1f/10  engagement %.1f/10\n", idea.ViabilityScore, idea.EngagementScore)
		fmt.Fprintf(w, "   CTR %.2f%% | conversions %d | CPC $%.2f\n", idea.CTR*100, idea.Conversions, idea.CPC)
		fmt.Fprintf(w, "   %s\n", idea.ValueProposition)
	}
	return nil
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", sanitize(it))
	}
	b.WriteString("\n")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}

// fmtUSD formats a whole-dollar amount with comma separators.
func fmtUSD(n int64) string {
	if n < 0 {
		return "-" + fmtUSD(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

package scout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCollector struct {
	result ScanResult
	err    error
}

func (c staticCollector) Collect(context.Context) (ScanResult, error) {
	return c.result, c.err
}

func threeTrendRecords() []RawTrend {
	return []RawTrend{
		{"id": "t1", "topic": "AI coding", "source": "news", "engagement": 15000.0, "sentiment": 0.6},
		{"id": "t2", "topic": "quantum", "source": "reddit", "engagement": 200.0, "sentiment": 0.1},
		{"id": "t3", "topic": "robotics", "source": "github", "engagement": 8000.0, "sentiment": 0.4},
	}
}

type flakyAssessor struct {
	inner  Assessor
	failOn map[string]bool
	panics map[string]bool
}

func (f flakyAssessor) Assess(idea BusinessIdea) (ViabilityAssessment, error) {
	title := idea.Title
	if f.panics[title] {
		panic("boom")
	}
	if f.failOn[title] {
		return ViabilityAssessment{}, errors.New("scoring backend unavailable")
	}
	return f.inner.Assess(idea)
}

type recordingProgress struct {
	mu     sync.Mutex
	states []State
}

func (r *recordingProgress) fn(s State, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func newTestPipeline(c TrendCollector, g IdeaGenerator, a Assessor) *Pipeline {
	return NewPipeline(c, g, a, NewValidator(DefaultSimulationSeed),
		WithClock(func() time.Time { return testEpoch }),
		WithConcurrency(2))
}

func TestPipelineThreeTrendScenario(t *testing.T) {
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), NewScorer())
	progress := &recordingProgress{}
	opts := DefaultRunOptions()
	opts.MaxIdeas = 2

	report, err := p.RunWithProgress(context.Background(), opts, progress.fn)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.TrendsAnalyzed)
	assert.Equal(t, 2, report.Summary.IdeasGenerated)
	assert.Equal(t, 2, report.Summary.IdeasValidated)
	assert.Equal(t, 2, report.Summary.PromisingCount+report.Summary.NeedsWorkCount+report.Summary.NotViableCount)
	assert.Empty(t, report.Failures)

	topics := map[string]bool{}
	for _, s := range report.Ideas {
		require.Len(t, s.Idea.SourceTrends, 1)
		topics[s.Idea.SourceTrends[0].Topic] = true
		assert.Equal(t, s.Idea.ID, s.Assessment.IdeaID)
		assert.Equal(t, s.Idea.ID, s.Validation.IdeaID)
	}
	assert.Equal(t, map[string]bool{"AI coding": true, "robotics": true}, topics)
	assert.Equal(t, 1, report.Ideas[0].Rank)
	assert.GreaterOrEqual(t, report.Ideas[0].Composite, report.Ideas[1].Composite)

	want := []State{StateScanning, StateGenerating, StateAnalyzing, StateValidating, StateReporting, StateDone}
	assert.Equal(t, want, report.Metadata.StatesVisited)
	assert.Equal(t, want, progress.states)
	assert.Equal(t, "template", report.Metadata.GeneratorMode)
	assert.NotEmpty(t, report.Metadata.RunID)
	assert.NotEmpty(t, report.TopRecommendations)
}

func TestPipelineEmptyTrendsIsFatal(t *testing.T) {
	p := newTestPipeline(staticCollector{}, fixedTemplateGenerator(), NewScorer())
	progress := &recordingProgress{}
	_, err := p.RunWithProgress(context.Background(), DefaultRunOptions(), progress.fn)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTrends)
	assert.Equal(t, StateScanning, FailedState(err))
	assert.Equal(t, []State{StateScanning, StateFailed}, progress.states)
}

func TestPipelineAllRecordsRejectedIsFatal(t *testing.T) {
	records := []RawTrend{{"topic": "x", "source": "carrier-pigeon"}, {"source": "news"}}
	p := newTestPipeline(staticCollector{result: ScanResult{Records: records}}, fixedTemplateGenerator(), NewScorer())
	_, err := p.Run(context.Background(), DefaultRunOptions())
	assert.ErrorIs(t, err, ErrNoTrends)
}

func TestPipelineZeroIdeasIsFatal(t *testing.T) {
	records := []RawTrend{{"topic": "the of and", "source": "news", "engagement": 10.0}}
	p := newTestPipeline(staticCollector{result: ScanResult{Records: records}}, fixedTemplateGenerator(), NewScorer())
	_, err := p.Run(context.Background(), DefaultRunOptions())
	assert.ErrorIs(t, err, ErrNoIdeas)
	assert.Equal(t, StateGenerating, FailedState(err))
}

func TestPipelineLLMPartialFailure(t *testing.T) {
	caller := &topicCaller{answers: map[string]string{
		"AI coding": validIdeaJSON("CodePilot"),
		"robotics":  validIdeaJSON("RoboOps"),
		"quantum":   "not json at all",
	}}
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, newTestLLMGenerator(caller), NewScorer())
	opts := DefaultRunOptions()
	opts.MaxIdeas = 3

	report, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.IdeasGenerated)
	assert.Equal(t, 1, report.Summary.GenerationFailures)
	assert.Equal(t, 2, report.Summary.IdeasValidated)
	assert.Equal(t, StageCount{Attempted: 3, Succeeded: 2}, report.Summary.Stages[StateGenerating])
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "t2", report.Failures[0].TrendID)
	assert.Equal(t, "llm", report.Metadata.GeneratorMode)
}

func TestPipelineScoringFailureIsIsolated(t *testing.T) {
	assessor := flakyAssessor{
		inner:  NewScorer(),
		failOn: map[string]bool{"Robotics Solution Platform": true},
		panics: map[string]bool{"Quantum Solution Platform": true},
	}
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), assessor)
	opts := DefaultRunOptions()
	opts.MaxIdeas = 3

	report, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.IdeasGenerated)
	assert.Equal(t, 1, report.Summary.IdeasValidated)
	assert.Equal(t, 2, report.Summary.ScoringFailures)
	assert.Equal(t, StageCount{Attempted: 3, Succeeded: 1}, report.Summary.Stages[StateAnalyzing])
	assert.Equal(t, StageCount{Attempted: 1, Succeeded: 1}, report.Summary.Stages[StateValidating])
	require.Len(t, report.Ideas, 1)
	assert.Equal(t, "AI-Powered Code Review Assistant", report.Ideas[0].Idea.Title)
}

func TestPipelineSourceFailuresAreRecorded(t *testing.T) {
	c := staticCollector{result: ScanResult{
		Records: threeTrendRecords(),
		Sources: []SourceStatus{
			{Name: "hackernews", Source: SourceNews, Records: 3},
			{Name: "reddit", Source: SourceReddit, Error: "status 503"},
		},
	}}
	report, err := newTestPipeline(c, fixedTemplateGenerator(), NewScorer()).Run(context.Background(), DefaultRunOptions())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, FailureSourceUnavailable, report.Failures[0].Kind)
	assert.Len(t, report.Summary.Sources, 2)
}

func TestPipelineRejectsInvalidOptions(t *testing.T) {
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), NewScorer())
	for _, opts := range []RunOptions{
		{MaxIdeas: 0, BudgetPerIdea: 10, DurationDays: 1},
		{MaxIdeas: 1, BudgetPerIdea: 0, DurationDays: 1},
		{MaxIdeas: 1, BudgetPerIdea: 10, DurationDays: 0},
	} {
		_, err := p.Run(context.Background(), opts)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), NewScorer())
	_, err := p.Run(ctx, DefaultRunOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateScanning, FailedState(err))
}

func TestRunContextRejectsBackwardTransitions(t *testing.T) {
	rc := &runContext{id: "r"}
	require.NoError(t, rc.enter(StateScanning))
	require.NoError(t, rc.enter(StateGenerating))
	assert.Error(t, rc.enter(StateScanning))
	require.NoError(t, rc.enter(StateFailed))
	assert.Error(t, rc.enter(StateAnalyzing))
}

func TestPipelineRunsAreIndependent(t *testing.T) {
	p := newTestPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), NewScorer())
	opts := DefaultRunOptions()
	opts.MaxIdeas = 2
	r1, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	r2, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Metadata.RunID, r2.Metadata.RunID)
	assert.Equal(t, r1.Summary, r2.Summary)
	for i := range r1.Ideas {
		assert.Equal(t, r1.Ideas[i].Validation, r2.Ideas[i].Validation)
	}
}

func TestPipelineResultsIndependentOfConcurrency(t *testing.T) {
	run := func(workers int) ScoutReport {
		p := NewPipeline(staticCollector{result: ScanResult{Records: threeTrendRecords()}}, fixedTemplateGenerator(), NewScorer(),
			NewValidator(DefaultSimulationSeed),
			WithClock(func() time.Time { return testEpoch }),
			WithConcurrency(workers))
		report, err := p.Run(context.Background(), DefaultRunOptions())
		require.NoError(t, err)
		return report
	}
	serial, parallel := run(1), run(8)
	require.NotEmpty(t, serial.Ideas)
	assert.Equal(t, serial.Ideas, parallel.Ideas)
	assert.Equal(t, serial.Summary, parallel.Summary)
	assert.Equal(t, serial.TopRecommendations, parallel.TopRecommendations)
}

package scout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/business-scout/internal/metrics"
)

const tracerName = "github.com/joelkehle/business-scout/internal/scout"

type TrendCollector interface {
	Collect(ctx context.Context) (ScanResult, error)
}

type ScanResult struct {
	Records []RawTrend
	Sources []SourceStatus
}

type Assessor interface {
	Assess(idea BusinessIdea) (ViabilityAssessment, error)
}

type CampaignValidator interface {
	Validate(idea BusinessIdea, assessment ViabilityAssessment, budget float64, durationDays int) (ValidationResult, error)
}

type StageProgressFn func(state State, message string)

// Pipeline runs one scout pass: scan, generate, analyze, validate, report.
type Pipeline struct {
	collector   TrendCollector
	generator   IdeaGenerator
	assessor    Assessor
	validator   CampaignValidator
	logger      *zap.Logger
	tracer      trace.Tracer
	concurrency int
	seed        int64
	now         func() time.Time
}

type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithSimulationSeed records the validator seed in run metadata.
func WithSimulationSeed(seed int64) Option {
	return func(p *Pipeline) { p.seed = seed }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPipeline(collector TrendCollector, generator IdeaGenerator, assessor Assessor, validator CampaignValidator, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector:   collector,
		generator:   generator,
		assessor:    assessor,
		validator:   validator,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer(tracerName),
		concurrency: DefaultConcurrency,
		seed:        DefaultSimulationSeed,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ideaSlot struct {
	idea       BusinessIdea
	assessment *ViabilityAssessment
	validation *ValidationResult
}

// runContext carries everything one run accumulates. Nothing outlives the run.
type runContext struct {
	id        string
	opts      RunOptions
	state     State
	visited   []State
	startedAt time.Time

	rawCount int
	rejected int
	trends   []TrendSignal
	sources  []SourceStatus

	genAttempted int
	slots        []ideaSlot
	failures     []IdeaFailure
	stages       map[State]StageCount
}

var stateOrder = map[State]int{
	StateScanning:   1,
	StateGenerating: 2,
	StateAnalyzing:  3,
	StateValidating: 4,
	StateReporting:  5,
	StateDone:       6,
}

func (rc *runContext) enter(s State) error {
	if rc.state == StateDone || rc.state == StateFailed {
		return fmt.Errorf("run %s already terminal in %s", rc.id, rc.state)
	}
	if s != StateFailed && stateOrder[s] <= stateOrder[rc.state] {
		return fmt.Errorf("illegal transition %s -> %s", rc.state, s)
	}
	rc.state = s
	rc.visited = append(rc.visited, s)
	return nil
}

func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (ScoutReport, error) {
	return p.RunWithProgress(ctx, opts, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, opts RunOptions, progress StageProgressFn) (ScoutReport, error) {
	rc := &runContext{
		id:        uuid.NewString(),
		opts:      opts,
		startedAt: p.now().UTC(),
		stages:    map[State]StageCount{},
	}
	log := p.logger.With(zap.String("run_id", rc.id))
	ctx, span := p.tracer.Start(ctx, "scout.run", trace.WithAttributes(
		attribute.String("run_id", rc.id),
		attribute.Int("max_ideas", opts.MaxIdeas),
		attribute.Float64("budget_per_idea", opts.BudgetPerIdea),
		attribute.Int("duration_days", opts.DurationDays),
	))
	defer span.End()

	report, err := p.run(ctx, rc, log, progress)
	if err != nil {
		_ = rc.enter(StateFailed)
		emit(progress, StateFailed, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.Error("pipeline_failed", zap.String("state", string(FailedState(err))), zap.Error(err))
		return report, err
	}
	metrics.RunsTotal.WithLabelValues("done").Inc()
	log.Info("pipeline_done",
		zap.Int("trends", report.Summary.TrendsAnalyzed),
		zap.Int("ideas_generated", report.Summary.IdeasGenerated),
		zap.Int("ideas_validated", report.Summary.IdeasValidated),
		zap.Int("promising", report.Summary.PromisingCount))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, rc *runContext, log *zap.Logger, progress StageProgressFn) (ScoutReport, error) {
	if err := validateRunOptions(rc.opts); err != nil {
		rc.state = StateScanning
		return ScoutReport{}, &PipelineFailure{State: StateScanning, Err: err}
	}
	steps := []struct {
		state State
		msg   string
		fn    func(context.Context, *runContext, *zap.Logger) error
	}{
		{StateScanning, "Scanning trend sources...", p.scan},
		{StateGenerating, "Generating business ideas...", p.generate},
		{StateAnalyzing, "Assessing idea viability...", p.analyze},
		{StateValidating, "Simulating validation campaigns...", p.validate},
	}
	for _, step := range steps {
		if err := p.stage(ctx, rc, log, progress, step.state, step.msg, step.fn); err != nil {
			return ScoutReport{}, err
		}
	}

	if err := rc.enter(StateReporting); err != nil {
		return ScoutReport{}, &PipelineFailure{State: rc.state, Err: err}
	}
	emit(progress, StateReporting, "Compiling report...")
	report := p.buildReport(rc)
	if err := rc.enter(StateDone); err != nil {
		return ScoutReport{}, &PipelineFailure{State: StateReporting, Err: err}
	}
	report.Metadata.StatesVisited = append([]State(nil), rc.visited...)
	emit(progress, StateDone, fmt.Sprintf("%d ideas validated, %d promising", report.Summary.IdeasValidated, report.Summary.PromisingCount))
	return report, nil
}

func (p *Pipeline) stage(ctx context.Context, rc *runContext, log *zap.Logger, progress StageProgressFn, s State, msg string, fn func(context.Context, *runContext, *zap.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return &PipelineFailure{State: s, Err: err}
	}
	if err := rc.enter(s); err != nil {
		return &PipelineFailure{State: rc.state, Err: err}
	}
	emit(progress, s, msg)
	stageCtx, span := p.tracer.Start(ctx, "scout."+string(s))
	defer span.End()
	start := time.Now()
	err := fn(stageCtx, rc, log.With(zap.String("state", string(s))))
	metrics.StageDuration.WithLabelValues(string(s)).Observe(time.Since(start).Seconds())
	count := rc.stages[s]
	span.SetAttributes(attribute.Int("attempted", count.Attempted), attribute.Int("succeeded", count.Succeeded))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var pf *PipelineFailure
		if errors.As(err, &pf) {
			return err
		}
		return &PipelineFailure{State: s, Err: err}
	}
	log.Info("stage_complete",
		zap.String("state", string(s)),
		zap.Int("attempted", count.Attempted),
		zap.Int("succeeded", count.Succeeded),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return nil
}

func (p *Pipeline) scan(ctx context.Context, rc *runContext, log *zap.Logger) error {
	result, err := p.collector.Collect(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	rc.sources = result.Sources
	for _, src := range result.Sources {
		if src.Error != "" {
			rc.failures = append(rc.failures, IdeaFailure{Kind: FailureSourceUnavailable, Reason: fmt.Sprintf("%s: %s", src.Name, src.Error)})
		}
	}
	if err != nil {
		log.Warn("trend_collection_error", zap.Error(err))
	}
	trends, rejected := NormalizeTrends(result.Records, p.now())
	for _, r := range rejected {
		log.Debug("trend_record_rejected", zap.Error(r))
	}
	rc.rawCount = len(result.Records)
	rc.rejected = len(rejected)
	rc.trends = trends
	rc.stages[StateScanning] = StageCount{Attempted: len(result.Records), Succeeded: len(trends)}
	if len(trends) == 0 {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoTrends, err)
		}
		return ErrNoTrends
	}
	return nil
}

func (p *Pipeline) generate(ctx context.Context, rc *runContext, log *zap.Logger) error {
	result, err := p.generator.Generate(ctx, rc.trends, rc.opts.MaxIdeas)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	rc.genAttempted = result.Attempted
	rc.failures = append(rc.failures, result.Failures...)

	seen := map[string]bool{}
	for _, idea := range result.Ideas {
		if len(rc.slots) >= rc.opts.MaxIdeas {
			log.Warn("idea_over_limit_dropped", zap.String("idea_id", idea.ID))
			break
		}
		if verr := ValidateIdea(idea); verr != nil {
			rc.failures = append(rc.failures, IdeaFailure{Kind: FailureGeneration, IdeaID: idea.ID, Reason: verr.Error()})
			continue
		}
		if seen[idea.ID] {
			rc.failures = append(rc.failures, IdeaFailure{Kind: FailureGeneration, IdeaID: idea.ID, Reason: "duplicate idea id"})
			continue
		}
		seen[idea.ID] = true
		rc.slots = append(rc.slots, ideaSlot{idea: idea})
	}
	if rc.genAttempted < len(rc.slots) {
		rc.genAttempted = len(rc.slots)
	}
	rc.stages[StateGenerating] = StageCount{Attempted: rc.genAttempted, Succeeded: len(rc.slots)}
	recordStage(StateGenerating, len(rc.slots), rc.genAttempted-len(rc.slots))
	if len(rc.slots) == 0 {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoIdeas, err)
		}
		return ErrNoIdeas
	}
	if err != nil {
		log.Warn("idea_generation_error", zap.Error(err))
	}
	return nil
}

func (p *Pipeline) analyze(ctx context.Context, rc *runContext, log *zap.Logger) error {
	errs, err := p.fanOut(ctx, len(rc.slots), func(i int) error {
		a, err := p.assessor.Assess(rc.slots[i].idea)
		if err != nil {
			return err
		}
		if a.IdeaID != rc.slots[i].idea.ID {
			return fmt.Errorf("assessment references %q", a.IdeaID)
		}
		rc.slots[i].assessment = &a
		return nil
	})
	if err != nil {
		return err
	}
	ok := 0
	for i, slot := range rc.slots {
		if errs[i] != nil {
			log.Warn("idea_scoring_failed", zap.String("idea_id", slot.idea.ID), zap.Error(errs[i]))
			rc.failures = append(rc.failures, IdeaFailure{Kind: FailureScoring, IdeaID: slot.idea.ID, Reason: errs[i].Error()})
			continue
		}
		ok++
	}
	rc.stages[StateAnalyzing] = StageCount{Attempted: len(rc.slots), Succeeded: ok}
	recordStage(StateAnalyzing, ok, len(rc.slots)-ok)
	return nil
}

func (p *Pipeline) validate(ctx context.Context, rc *runContext, log *zap.Logger) error {
	errs, err := p.fanOut(ctx, len(rc.slots), func(i int) error {
		slot := rc.slots[i]
		if slot.assessment == nil {
			return nil
		}
		v, err := p.validator.Validate(slot.idea, *slot.assessment, rc.opts.BudgetPerIdea, rc.opts.DurationDays)
		if err != nil {
			return err
		}
		if v.IdeaID != slot.idea.ID {
			return fmt.Errorf("validation references %q", v.IdeaID)
		}
		rc.slots[i].validation = &v
		return nil
	})
	if err != nil {
		return err
	}
	attempted, ok := 0, 0
	for i, slot := range rc.slots {
		if slot.assessment == nil {
			continue
		}
		attempted++
		if errs[i] != nil {
			log.Warn("idea_validation_failed", zap.String("idea_id", slot.idea.ID), zap.Error(errs[i]))
			rc.failures = append(rc.failures, IdeaFailure{Kind: FailureValidation, IdeaID: slot.idea.ID, Reason: errs[i].Error()})
			continue
		}
		ok++
		metrics.Verdicts.WithLabelValues(string(slot.validation.Verdict)).Inc()
	}
	rc.stages[StateValidating] = StageCount{Attempted: attempted, Succeeded: ok}
	recordStage(StateValidating, ok, attempted-ok)
	return nil
}

// fanOut runs fn for each index with bounded parallelism and returns per-index errors.
// Each call owns slot i only; a panic becomes that slot's error.
func (p *Pipeline) fanOut(ctx context.Context, n int, fn func(i int) error) ([]error, error) {
	errs := make([]error, n)
	grp := errgroup.Group{}
	grp.SetLimit(p.concurrency)
	for i := 0; i < n; i++ {
		grp.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			errs[i] = fn(i)
			return nil
		})
	}
	_ = grp.Wait()
	return errs, ctx.Err()
}

func validateRunOptions(opts RunOptions) error {
	switch {
	case opts.MaxIdeas <= 0:
		return fmt.Errorf("%w: max_ideas must be positive, got %d", ErrInvalidOptions, opts.MaxIdeas)
	case opts.BudgetPerIdea <= 0:
		return fmt.Errorf("%w: budget_per_idea must be positive, got %v", ErrInvalidOptions, opts.BudgetPerIdea)
	case opts.DurationDays <= 0:
		return fmt.Errorf("%w: duration_days must be positive, got %d", ErrInvalidOptions, opts.DurationDays)
	}
	return nil
}

func recordStage(s State, ok, failed int) {
	metrics.StageIdeas.WithLabelValues(string(s), "ok").Add(float64(ok))
	if failed > 0 {
		metrics.StageIdeas.WithLabelValues(string(s), "failed").Add(float64(failed))
	}
}

func emit(progress StageProgressFn, s State, msg string) {
	if progress != nil {
		progress(s, msg)
	}
}

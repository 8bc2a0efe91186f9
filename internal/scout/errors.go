package scout

import (
	"errors"
	"fmt"
)

var (
	ErrNoTrends       = errors.New("no valid trend signals collected")
	ErrNoIdeas        = errors.New("idea generation produced zero ideas")
	ErrInvalidOptions = errors.New("invalid run options")
	ErrInvalidIdea    = errors.New("invalid business idea")
	ErrInvalidTrend   = errors.New("invalid trend record")
)

type FailureKind string

const (
	FailureSourceUnavailable FailureKind = "SOURCE_UNAVAILABLE"
	FailureGeneration        FailureKind = "GENERATION_FAILURE"
	FailureScoring           FailureKind = "SCORING_FAILURE"
	FailureValidation        FailureKind = "VALIDATION_FAILURE"
)

// IdeaFailure records one per-idea (or per-source) error that the run absorbed.
type IdeaFailure struct {
	Kind    FailureKind `json:"kind"`
	IdeaID  string      `json:"idea_id,omitempty"`
	TrendID string      `json:"trend_id,omitempty"`
	Reason  string      `json:"reason"`
}

func (f IdeaFailure) Error() string {
	switch {
	case f.IdeaID != "":
		return fmt.Sprintf("%s idea=%s: %s", f.Kind, f.IdeaID, f.Reason)
	case f.TrendID != "":
		return fmt.Sprintf("%s trend=%s: %s", f.Kind, f.TrendID, f.Reason)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
	}
}

// PipelineFailure aborts a run. State is the stage that was active when it failed.
type PipelineFailure struct {
	State State
	Err   error
}

func (e *PipelineFailure) Error() string {
	return fmt.Sprintf("pipeline failed in %s: %v", e.State, e.Err)
}

func (e *PipelineFailure) Unwrap() error {
	return e.Err
}

func FailedState(err error) State {
	var pf *PipelineFailure
	if errors.As(err, &pf) {
		return pf.State
	}
	return ""
}

// Package notify posts pipeline progress and finished reports to chat channels.
// Delivery failures are logged and never returned to the caller.
package notify

import (
	"context"
	"fmt"

	"github.com/joelkehle/business-scout/internal/scout"
)

// Notifier receives run lifecycle events.
type Notifier interface {
	RunStarted(ctx context.Context)
	Phase(ctx context.Context, state scout.State, detail string)
	Report(ctx context.Context, a scout.ReportArtifact)
	Error(ctx context.Context, err error)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RunStarted(context.Context) {}
func (Nop) Phase(context.Context, scout.State, string) {}
func (Nop) Report(context.Context, scout.ReportArtifact) {}
func (Nop) Error(context.Context, error) {}

// Multi fans each event out to every notifier in order.
type Multi []Notifier

func (m Multi) RunStarted(ctx context.Context) {
	for _, n := range m {
		n.RunStarted(ctx)
	}
}

func (m Multi) Phase(ctx context.Context, state scout.State, detail string) {
	for _, n := range m {
		n.Phase(ctx, state, detail)
	}
}

func (m Multi) Report(ctx context.Context, a scout.ReportArtifact) {
	for _, n := range m {
		n.Report(ctx, a)
	}
}

func (m Multi) Error(ctx context.Context, err error) {
	for _, n := range m {
		n.Error(ctx, err)
	}
}

// ProgressFunc adapts a notifier to the pipeline progress callback.
func ProgressFunc(ctx context.Context, n Notifier) scout.StageProgressFn {
	return func(state scout.State, message string) {
		n.Phase(ctx, state, message)
	}
}

var phaseNumbers = map[scout.State]int{
	scout.StateScanning:   1,
	scout.StateGenerating: 2,
	scout.StateAnalyzing:  3,
	scout.StateValidating: 4,
	scout.StateReporting:  5,
}

func phaseTitle(state scout.State) string {
	if n, ok := phaseNumbers[state]; ok {
		return fmt.Sprintf("Phase %d: %s", n, state)
	}
	return string(state)
}

func headline(a scout.ReportArtifact) string {
	return fmt.Sprintf("Trends: %d | Ideas: %d | Promising: %d/%d",
		a.Summary.TrendsAnalyzed, a.Summary.IdeasGenerated, a.Summary.PromisingCount, a.Summary.IdeasValidated)
}

func topIdeas(a scout.ReportArtifact, n int) []scout.IdeaRecord {
	if len(a.Ideas) < n {
		return a.Ideas
	}
	return a.Ideas[:n]
}

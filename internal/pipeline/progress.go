package pipeline

import "context"

// Stage names reported while a run progresses.
const (
	StageValidate  = "validate"
	StageRegistry  = "registry"
	StageFetch     = "fetch"
	StageAggregate = "aggregate"
	StageExport    = "export"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// Progress is one event of a pipeline run.
type Progress struct {
	RunID  string `json:"run_id"`
	Stage  string `json:"stage"`
	Ticker string `json:"ticker,omitempty"`
	Done   int    `json:"done"`
	Total  int    `json:"total"`
	Err    string `json:"error,omitempty"`
}

// ProgressReporter receives run events. Report is called from worker
// goroutines and must be safe for concurrent use.
type ProgressReporter interface {
	Report(ctx context.Context, p Progress)
}

// ReporterFunc adapts a function to ProgressReporter.
type ReporterFunc func(ctx context.Context, p Progress)

// Report implements ProgressReporter
func (f ReporterFunc) Report(ctx context.Context, p Progress) { f(ctx, p) }

type nopReporter struct{}

func (nopReporter) Report(context.Context, Progress) {}

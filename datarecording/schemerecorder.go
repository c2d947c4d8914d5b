package datarecording

import (
	"context"

	"github.com/ArminHamedi/precice/cplscheme"
)

// Table names used by the SchemeRecorder.
const (
	TimestepTable  = "coupling_timesteps"
	IterationTable = "coupling_iterations"
)

// TimestepEntry is recorded whenever a coupling timestep completes.
type TimestepEntry struct {
	RunID           string
	Scheme          string
	Participant     string
	Timestep        int
	Time            float64
	TotalIterations int
}

// IterationEntry is recorded after each implicit iteration.
type IterationEntry struct {
	RunID       string
	Scheme      string
	Participant string
	Timestep    int
	Iteration   int
	Converged   bool
}

type recordedScheme interface {
	Name() string
	LocalParticipant() string
	Time() float64
	TotalIterations() int
}

// A SchemeRecorder is a hook that records the progress of coupling schemes.
type SchemeRecorder struct {
	recorder DataRecorder
	runID    string
}

// NewSchemeRecorder creates the progress tables and returns a hook that fills
// them. Attach it to a scheme with AcceptHook.
func NewSchemeRecorder(recorder DataRecorder, runID string) *SchemeRecorder {
	recorder.CreateTable(TimestepTable, TimestepEntry{})
	recorder.CreateTable(IterationTable, IterationEntry{})

	return &SchemeRecorder{
		recorder: recorder,
		runID:    runID,
	}
}

// Func records timestep and iteration completion.
func (r *SchemeRecorder) Func(ctx cplscheme.HookCtx) {
	scheme, ok := ctx.Domain.(recordedScheme)
	if !ok {
		return
	}

	switch ctx.Pos {
	case cplscheme.HookPosTimestepComplete:
		r.recorder.InsertData(TimestepTable, TimestepEntry{
			RunID:           r.runID,
			Scheme:          scheme.Name(),
			Participant:     scheme.LocalParticipant(),
			Timestep:        ctx.Item.(int),
			Time:            scheme.Time(),
			TotalIterations: scheme.TotalIterations(),
		})
	case cplscheme.HookPosIterationComplete:
		info := ctx.Item.(cplscheme.IterationInfo)
		r.recorder.InsertData(IterationTable, IterationEntry{
			RunID:       r.runID,
			Scheme:      scheme.Name(),
			Participant: scheme.LocalParticipant(),
			Timestep:    info.Timestep,
			Iteration:   info.Iteration,
			Converged:   info.Converged,
		})
	}
}

// NewProgressReader opens a recording written by a SchemeRecorder with both
// progress tables mapped.
func NewProgressReader(path string) (DataReader, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}

	r.MapTable(TimestepTable, TimestepEntry{})
	r.MapTable(IterationTable, IterationEntry{})

	return r, nil
}

// ReadTimesteps returns the completed timesteps of a run in order. An empty
// run id returns the timesteps of all runs.
func ReadTimesteps(
	ctx context.Context,
	r DataReader,
	runID string,
) ([]TimestepEntry, error) {
	params := QueryParams{OrderBy: "RunID, Participant, Timestep"}
	if runID != "" {
		params.Where = "RunID = ?"
		params.Args = []any{runID}
	}

	rows, _, err := r.Query(ctx, TimestepTable, params)
	if err != nil {
		return nil, err
	}

	entries := make([]TimestepEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row.(*TimestepEntry))
	}

	return entries, nil
}

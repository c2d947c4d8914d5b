package simulation

import (
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/datarecording"
	"github.com/ArminHamedi/precice/monitoring"
)

// Builder can be used to build a simulation.
type Builder struct {
	scheme        cplscheme.CouplingScheme
	solver        Solver
	store         *datarecording.CheckpointStore
	restart       *restart
	monitor       *monitoring.Monitor
	recorder      datarecording.DataRecorder
	logger        *logrus.Logger
	startTime     float64
	startTimestep int
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithScheme sets the coupling scheme the simulation drives.
func (b Builder) WithScheme(s cplscheme.CouplingScheme) Builder {
	b.scheme = s
	return b
}

// WithSolver sets the solver of the local participant.
func (b Builder) WithSolver(s Solver) Builder {
	b.solver = s
	return b
}

// WithCheckpointStore sets the store that receives simulation checkpoints.
// Without a store, simulation checkpoints are acknowledged but not written.
func (b Builder) WithCheckpointStore(st *datarecording.CheckpointStore) Builder {
	b.store = st
	return b
}

// WithRestart resumes the coupling from the simulation checkpoint that the
// local participant wrote in the given run and timestep. The start set with
// WithStart is replaced by the one of the checkpoint.
func (b Builder) WithRestart(
	store *datarecording.CheckpointStore,
	runID string,
	timestep int,
) Builder {
	b.restart = &restart{store: store, runID: runID, timestep: timestep}
	return b
}

// WithMonitor registers the scheme with a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithDataRecorder records the progress of the scheme.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithStart sets the time and the timestep the coupling starts at.
func (b Builder) WithStart(t float64, timestep int) Builder {
	b.startTime = t
	b.startTimestep = timestep

	return b
}

// WithLogger sets the logger. The standard logger is used by default.
func (b Builder) WithLogger(l *logrus.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.scheme == nil {
		panic("a simulation needs a coupling scheme")
	}

	if b.solver == nil {
		panic("a simulation needs a solver")
	}

	if b.restart != nil && b.restart.store == nil {
		panic("a restart needs a checkpoint store")
	}
}

// Build builds the simulation.
func (b Builder) Build(name string) *Simulation {
	b.parametersMustBeValid()

	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Simulation{
		id:            xid.New().String(),
		name:          name,
		scheme:        b.scheme,
		solver:        b.solver,
		store:         b.store,
		restart:       b.restart,
		monitor:       b.monitor,
		recorder:      b.recorder,
		startTime:     b.startTime,
		startTimestep: b.startTimestep,
	}

	s.log = logger.WithFields(logrus.Fields{
		"simulation":  name,
		"participant": b.scheme.LocalParticipant(),
	})

	if s.monitor != nil {
		s.monitor.RegisterScheme(s.scheme)
	}

	if s.recorder != nil {
		runID := s.id
		if s.store != nil {
			runID = s.store.RunID()
		}

		s.scheme.AcceptHook(datarecording.NewSchemeRecorder(s.recorder, runID))
	}

	return s
}

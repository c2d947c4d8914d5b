// Package simulation drives one participant of a coupled run: it advances a
// solver under the control of a coupling scheme and takes the actions the
// scheme requires.
package simulation

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ArminHamedi/precice/cplscheme"
	"github.com/ArminHamedi/precice/datarecording"
	"github.com/ArminHamedi/precice/monitoring"
)

// Solver is the application code of a participant. It owns the values of the
// data items registered with the scheme.
type Solver interface {
	// TimestepLength returns the length of the next step the solver wants to
	// take.
	TimestepLength() float64

	// Solve advances the solver by dt, reading the received data and
	// writing the data to send.
	Solve(ctx context.Context, dt float64) error

	// WriteInitialData fills the data to send before the first exchange.
	WriteInitialData() error

	// WriteIterationCheckpoint saves the solver state of the current
	// timestep.
	WriteIterationCheckpoint() error

	// ReadIterationCheckpoint restores the state saved last.
	ReadIterationCheckpoint() error
}

// ActionHandler is implemented by solvers that take actions beyond the
// well-known ones.
type ActionHandler interface {
	// HandleAction takes an action. The action is marked as performed when
	// no error is returned.
	HandleAction(a cplscheme.Action) error
}

// SimulationCheckpointReader is implemented by solvers that restore their own
// state when a run resumes from a simulation checkpoint.
type SimulationCheckpointReader interface {
	// ReadSimulationCheckpoint restores the solver state at the end of the
	// given timestep.
	ReadSimulationCheckpoint(t float64, timestep int) error
}

type restart struct {
	store    *datarecording.CheckpointStore
	runID    string
	timestep int
}

// A Simulation couples a solver to the remote participant.
type Simulation struct {
	id   string
	name string
	log  *logrus.Entry

	scheme   cplscheme.CouplingScheme
	solver   Solver
	store    *datarecording.CheckpointStore
	restart  *restart
	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder

	startTime     float64
	startTimestep int
}

// ID returns the unique id of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Name returns the name of the simulation.
func (s *Simulation) Name() string {
	return s.name
}

// Scheme returns the driven coupling scheme.
func (s *Simulation) Scheme() cplscheme.CouplingScheme {
	return s.scheme
}

// GetMonitor returns the monitor used in the simulation.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Run drives the coupling to its end. The context is checked between solver
// steps. The scheme is finalized only if the coupling ends regularly.
func (s *Simulation) Run(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	for s.scheme.IsCouplingOngoing() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simulation %s: %w", s.name, err)
		}

		if err := s.step(ctx); err != nil {
			return err
		}
	}

	if err := s.takeActions(ctx); err != nil {
		return err
	}

	if err := s.scheme.Finalize(); err != nil {
		return err
	}

	s.updateMonitor()

	s.log.WithFields(logrus.Fields{
		"timesteps":  s.scheme.Timesteps(),
		"time":       s.scheme.Time(),
		"iterations": s.scheme.TotalIterations(),
	}).Info("coupling finished")

	return nil
}

func (s *Simulation) initialize(ctx context.Context) error {
	startTime, startTimestep := s.startTime, s.startTimestep

	if s.restart != nil {
		st, err := s.restart.store.RestoreScheme(ctx, s.restart.runID,
			s.restart.timestep, s.scheme)
		if err != nil {
			return fmt.Errorf("simulation %s: %w", s.name, err)
		}

		startTime, startTimestep = st.Time, st.Timesteps
	}

	if err := s.scheme.Initialize(startTime, startTimestep); err != nil {
		return err
	}

	if s.scheme.IsActionRequired(cplscheme.ActionWriteInitialData) {
		if err := s.solver.WriteInitialData(); err != nil {
			return fmt.Errorf("simulation %s: write initial data: %w",
				s.name, err)
		}

		s.scheme.PerformedAction(cplscheme.ActionWriteInitialData)
	}

	if err := s.scheme.InitializeData(); err != nil {
		return err
	}

	s.updateMonitor()

	return ctx.Err()
}

func (s *Simulation) step(ctx context.Context) error {
	if err := s.takeActions(ctx); err != nil {
		return err
	}

	dt := math.Min(s.solver.TimestepLength(), s.scheme.NextTimestepMaxLength())

	if err := s.solver.Solve(ctx, dt); err != nil {
		return fmt.Errorf("simulation %s: solve at t=%g: %w",
			s.name, s.scheme.Time(), err)
	}

	if err := s.scheme.AddComputedTime(dt); err != nil {
		return err
	}

	if err := s.scheme.Advance(); err != nil {
		return err
	}

	s.updateMonitor()

	s.log.Debug(s.scheme.PrintBasicState())

	return nil
}

// takeActions discharges the actions the scheme requires. Simulation
// checkpoints are written last, so that the stored state does not ask for
// iteration checkpoints that have already been taken.
func (s *Simulation) takeActions(ctx context.Context) error {
	if s.scheme.IsActionRequired(cplscheme.ActionReadSimulationCheckpoint) {
		if err := s.readSimulationCheckpoint(); err != nil {
			return err
		}

		s.scheme.PerformedAction(cplscheme.ActionReadSimulationCheckpoint)
	}

	if s.scheme.IsActionRequired(cplscheme.ActionWriteIterationCheckpoint) {
		if err := s.solver.WriteIterationCheckpoint(); err != nil {
			return fmt.Errorf("simulation %s: write iteration checkpoint: %w",
				s.name, err)
		}

		s.scheme.PerformedAction(cplscheme.ActionWriteIterationCheckpoint)
	}

	if s.scheme.IsActionRequired(cplscheme.ActionReadIterationCheckpoint) {
		if err := s.solver.ReadIterationCheckpoint(); err != nil {
			return fmt.Errorf("simulation %s: read iteration checkpoint: %w",
				s.name, err)
		}

		s.scheme.PerformedAction(cplscheme.ActionReadIterationCheckpoint)
	}

	if err := s.takeExtensionActions(); err != nil {
		return err
	}

	if s.scheme.IsActionRequired(cplscheme.ActionWriteSimulationCheckpoint) {
		s.scheme.PerformedAction(cplscheme.ActionWriteSimulationCheckpoint)

		if err := s.writeSimulationCheckpoint(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Simulation) takeExtensionActions() error {
	handler, ok := s.solver.(ActionHandler)
	if !ok {
		return nil
	}

	for _, a := range s.scheme.RequiredActions() {
		if !a.IsExtension() {
			continue
		}

		if err := handler.HandleAction(a); err != nil {
			return fmt.Errorf("simulation %s: action %s: %w", s.name, a, err)
		}

		s.scheme.PerformedAction(a)
	}

	return nil
}

func (s *Simulation) readSimulationCheckpoint() error {
	reader, ok := s.solver.(SimulationCheckpointReader)
	if !ok {
		s.log.Warn("the solver cannot read simulation checkpoints, " +
			"resuming with its current state")

		return nil
	}

	err := reader.ReadSimulationCheckpoint(s.scheme.Time(), s.scheme.Timesteps())
	if err != nil {
		return fmt.Errorf("simulation %s: read simulation checkpoint: %w",
			s.name, err)
	}

	return nil
}

func (s *Simulation) writeSimulationCheckpoint(ctx context.Context) error {
	if s.store == nil {
		s.log.WithField("timestep", s.scheme.Timesteps()).
			Debug("no checkpoint store, simulation checkpoint skipped")

		return nil
	}

	if err := s.store.SaveScheme(ctx, s.scheme); err != nil {
		return fmt.Errorf("simulation %s: %w", s.name, err)
	}

	s.log.WithField("timestep", s.scheme.Timesteps()).
		Info("simulation checkpoint written")

	return nil
}

func (s *Simulation) updateMonitor() {
	if s.monitor != nil {
		s.monitor.Update(s.scheme)
	}
}

// Terminate releases the recorder and the checkpoint store.
func (s *Simulation) Terminate() error {
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			return err
		}
	}

	if s.store != nil {
		return s.store.Close()
	}

	return nil
}

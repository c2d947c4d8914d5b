package cmd

import (
	"context"

	"github.com/ArminHamedi/precice/config"
	"github.com/ArminHamedi/precice/mesh"
)

// relaxationSolver is the built-in solver of the command line. Every value it
// sends is an affine function of the mean of the values it receives, so that
// the fixed-point iteration of two such solvers converges.
type relaxationSolver struct {
	dt     float64
	gain   float64
	offset float64

	send []*mesh.Data
	recv []*mesh.Data

	time      float64
	savedTime float64
	saved     [][]float64
}

func newRelaxationSolver(
	cfg *config.Config,
	local string,
	data *mesh.Set,
	dt float64,
) *relaxationSolver {
	s := &relaxationSolver{
		dt:     dt,
		gain:   0.5,
		offset: 1,
	}

	if local == cfg.Participants.Second {
		s.offset = 2
	}

	if cfg.TimestepLength != nil {
		s.dt = *cfg.TimestepLength
	}

	for _, d := range cfg.Data {
		if d.From == local {
			s.send = append(s.send, data.ByName(d.Name))
		} else {
			s.recv = append(s.recv, data.ByName(d.Name))
		}
	}

	return s
}

func (s *relaxationSolver) TimestepLength() float64 {
	return s.dt
}

func (s *relaxationSolver) Solve(_ context.Context, dt float64) error {
	s.time += dt
	s.fill(s.offset*(1+s.time) + s.gain*s.meanReceived())

	return nil
}

func (s *relaxationSolver) WriteInitialData() error {
	s.fill(s.offset)
	return nil
}

func (s *relaxationSolver) WriteIterationCheckpoint() error {
	s.savedTime = s.time
	s.saved = s.saved[:0]

	for _, d := range s.send {
		s.saved = append(s.saved, append([]float64(nil), d.Values()...))
	}

	return nil
}

func (s *relaxationSolver) ReadIterationCheckpoint() error {
	s.time = s.savedTime

	for i, d := range s.send {
		copy(d.Values(), s.saved[i])
	}

	return nil
}

// ReadSimulationCheckpoint resumes the solver at the end of a checkpointed
// timestep.
func (s *relaxationSolver) ReadSimulationCheckpoint(t float64, _ int) error {
	s.time = t
	s.savedTime = t

	return nil
}

func (s *relaxationSolver) fill(v float64) {
	for _, d := range s.send {
		for i := range d.Values() {
			d.Values()[i] = v
		}
	}
}

func (s *relaxationSolver) meanReceived() float64 {
	sum, n := 0.0, 0

	for _, d := range s.recv {
		for _, v := range d.Values() {
			sum += v
			n++
		}
	}

	if n == 0 {
		return 0
	}

	return sum / float64(n)
}

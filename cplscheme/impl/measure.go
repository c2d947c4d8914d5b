// Package impl provides convergence measures for implicit coupling schemes.
package impl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AbsoluteMeasure converges when the L2 norm of the difference of two
// iterates is at most the limit.
type AbsoluteMeasure struct {
	limit    float64
	norm     float64
	converge bool
}

// NewAbsoluteMeasure creates an absolute measure.
func NewAbsoluteMeasure(limit float64) *AbsoluteMeasure {
	if limit <= 0 {
		panic("convergence limit must be positive")
	}

	return &AbsoluteMeasure{limit: limit}
}

// NewMeasurementSeries does nothing, the measure has no history.
func (m *AbsoluteMeasure) NewMeasurementSeries() {}

// Measure compares two iterates.
func (m *AbsoluteMeasure) Measure(oldValues, newValues []float64) {
	m.norm = diffNorm(oldValues, newValues)
	m.converge = m.norm <= m.limit
}

// IsConvergence reports the last result.
func (m *AbsoluteMeasure) IsConvergence() bool {
	return m.converge
}

// Norm returns the last measured norm.
func (m *AbsoluteMeasure) Norm() float64 {
	return m.norm
}

func (m *AbsoluteMeasure) String() string {
	return fmt.Sprintf("absolute convergence measure: two-norm diff = %g, "+
		"limit = %g, conv = %t", m.norm, m.limit, m.converge)
}

// RelativeMeasure converges when the L2 norm of the difference of two
// iterates, relative to the norm of the new iterate, is at most the limit.
type RelativeMeasure struct {
	limit    float64
	norm     float64
	ratio    float64
	converge bool
}

// NewRelativeMeasure creates a relative measure. The limit must be in (0, 1].
func NewRelativeMeasure(limit float64) *RelativeMeasure {
	if limit <= 0 || limit > 1 {
		panic("relative convergence limit must be in (0, 1]")
	}

	return &RelativeMeasure{limit: limit}
}

// NewMeasurementSeries does nothing, the measure has no history.
func (m *RelativeMeasure) NewMeasurementSeries() {}

// Measure compares two iterates.
func (m *RelativeMeasure) Measure(oldValues, newValues []float64) {
	m.norm = floats.Norm(newValues, 2)
	diff := diffNorm(oldValues, newValues)

	switch {
	case m.norm > 0:
		m.ratio = diff / m.norm
	case diff == 0:
		m.ratio = 0
	default:
		m.ratio = math.Inf(1)
	}

	m.converge = m.ratio <= m.limit
}

// IsConvergence reports the last result.
func (m *RelativeMeasure) IsConvergence() bool {
	return m.converge
}

// Ratio returns the last measured relative difference.
func (m *RelativeMeasure) Ratio() float64 {
	return m.ratio
}

func (m *RelativeMeasure) String() string {
	return fmt.Sprintf("relative convergence measure: relative two-norm "+
		"diff = %g, limit = %g, conv = %t", m.ratio, m.limit, m.converge)
}

// MinIterationMeasure converges once a number of iterations has been measured
// in the current timestep.
type MinIterationMeasure struct {
	min        int
	iterations int
}

// NewMinIterationMeasure creates a measure that needs min iterations.
func NewMinIterationMeasure(min int) *MinIterationMeasure {
	if min < 1 {
		panic("minimal iteration count must be positive")
	}

	return &MinIterationMeasure{min: min}
}

// NewMeasurementSeries restarts counting.
func (m *MinIterationMeasure) NewMeasurementSeries() {
	m.iterations = 0
}

// Measure counts an iteration.
func (m *MinIterationMeasure) Measure(_, _ []float64) {
	m.iterations++
}

// IsConvergence tells if enough iterations were measured.
func (m *MinIterationMeasure) IsConvergence() bool {
	return m.iterations >= m.min
}

func (m *MinIterationMeasure) String() string {
	return fmt.Sprintf("min iteration convergence measure: iterations = %d, "+
		"min iterations = %d, conv = %t",
		m.iterations, m.min, m.IsConvergence())
}

func diffNorm(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("iterates differ in length")
	}

	if len(a) == 0 {
		return 0
	}

	return floats.Distance(a, b, 2)
}

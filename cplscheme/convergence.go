package cplscheme

// A ConvergenceMeasure decides from two successive iterates of one data item
// whether an implicit iteration has converged.
type ConvergenceMeasure interface {
	// NewMeasurementSeries resets the measure when a new timestep starts.
	NewMeasurementSeries()

	// Measure compares the iterate of the last iteration with the current
	// one.
	Measure(oldValues, newValues []float64)

	// IsConvergence reports the result of the last Measure call.
	IsConvergence() bool

	String() string
}

// ConvergenceMeasureBinding attaches a measure to a data id. A measure that
// suffices ends the iteration on its own, without waiting for the other
// measures.
type ConvergenceMeasureBinding struct {
	DataID   int
	Suffices bool
	Measure  ConvergenceMeasure

	data *CouplingData
}

// Data returns the coupling data the measure was resolved to, or nil before
// initialization.
func (c *ConvergenceMeasureBinding) Data() *CouplingData {
	return c.data
}

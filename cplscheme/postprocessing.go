package cplscheme

// PostProcessing computes improved iterates from the convergence history of an
// implicit coupling. Only the second participant runs it.
type PostProcessing interface {
	// DataIDs returns the ids of the data the post-processing modifies.
	DataIDs() []int

	// Initialize reserves the storage needed for the data.
	Initialize(data *DataMap) error

	// PerformPostProcessing replaces the values of the data with the next
	// iterate after an iteration that did not converge.
	PerformPostProcessing(data *DataMap) error

	// IterationsConverged is called when the timestep has converged.
	IterationsConverged(data *DataMap) error
}

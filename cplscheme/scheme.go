// Package cplscheme implements coupling schemes that coordinate the time
// stepping and the data exchange of two coupled participants.
//
// A scheme is driven by the application of one participant. The application
// initializes the scheme, adds the time computed by its solver, and advances
// the scheme. The scheme decides when data is exchanged with the remote
// participant and tells the application which actions it has to take, such as
// writing an iteration checkpoint.
package cplscheme

import "github.com/ArminHamedi/precice/com"

// CouplingScheme is the interface the driving application uses.
type CouplingScheme interface {
	Hookable

	Name() string
	LocalParticipant() string
	CouplingPartners() []string

	Initialize(startTime float64, startTimestep int) error
	InitializeData() error
	AddComputedTime(dt float64) error
	Advance() error
	Finalize() error

	WillDataBeExchanged(dt float64) bool
	IsCouplingOngoing() bool
	IsCouplingTimestepComplete() bool
	HasDataBeenExchanged() bool

	IsActionRequired(a Action) bool
	PerformedAction(a Action)
	RequiredActions() []Action

	Time() float64
	Timesteps() int
	MaxTime() float64
	MaxTimesteps() int
	ThisTimestepRemainder() float64
	NextTimestepMaxLength() float64
	CheckpointTimestepInterval() int
	ValidDigits() int
	Iterations() int
	TotalIterations() int

	State() State
	SetState(st State) error
	Restore(st State) error
	SendState(comm com.Communication) error
	ReceiveState(comm com.Communication) error

	PrintBasicState() string
	PrintActionsState() string
}

var (
	_ CouplingScheme = (*SerialExplicit)(nil)
	_ CouplingScheme = (*SerialImplicit)(nil)
)

package cplscheme

import (
	"math"
)

// Sentinels for values that are not set.
const (
	UndefinedTime           = -1.0
	UndefinedTimesteps      = -1
	UndefinedTimestepLength = -1.0
	UndefinedMaxIterations  = -1
)

// DtMethod selects how the timestep length is determined.
type DtMethod int

const (
	// DtMethodFixed uses a configured constant timestep length.
	DtMethodFixed DtMethod = iota
	// DtMethodFirstParticipant lets the first participant choose the
	// timestep length in every timestep.
	DtMethodFirstParticipant
)

func (m DtMethod) String() string {
	switch m {
	case DtMethodFixed:
		return "fixed"
	case DtMethodFirstParticipant:
		return "first-participant"
	default:
		return "unknown"
	}
}

// DtPolicy is the timestep length policy of the local participant.
type DtPolicy int

const (
	// DtPolicyFixed uses the configured timestep length.
	DtPolicyFixed DtPolicy = iota
	// DtPolicyFirstSets means the local participant is first and sends the
	// timestep length it computed.
	DtPolicyFirstSets
	// DtPolicyFirstReceives means the local participant is second and
	// receives the timestep length from the first participant.
	DtPolicyFirstReceives
)

func (p DtPolicy) String() string {
	switch p {
	case DtPolicyFixed:
		return "fixed"
	case DtPolicyFirstSets:
		return "first-sets"
	case DtPolicyFirstReceives:
		return "first-receives"
	default:
		return "unknown"
	}
}

// ResolveDtPolicy determines the policy of a participant once.
func ResolveDtPolicy(method DtMethod, doesFirstStep bool) DtPolicy {
	if method != DtMethodFirstParticipant {
		return DtPolicyFixed
	}

	if doesFirstStep {
		return DtPolicyFirstSets
	}

	return DtPolicyFirstReceives
}

// TimestepController owns the simulated time and the timestep length.
type TimestepController struct {
	policy       DtPolicy
	maxTime      float64
	maxTimesteps int
	length       float64
	validDigits  int
	eps          float64

	time         float64
	timesteps    int
	computedPart float64
}

// NewTimestepController validates the bounds and creates a controller.
func NewTimestepController(
	policy DtPolicy,
	maxTime float64,
	maxTimesteps int,
	timestepLength float64,
	validDigits int,
) (*TimestepController, error) {
	const op = "BaseCouplingScheme()"

	if maxTime != UndefinedTime && maxTime < 0 {
		return nil, newError(op, KindConfig, V{"maxTime": maxTime},
			"maximum time has to be larger than zero")
	}

	if maxTimesteps != UndefinedTimesteps && maxTimesteps < 0 {
		return nil, newError(op, KindConfig, V{"maxTimesteps": maxTimesteps},
			"maximum timestep number has to be larger than zero")
	}

	if timestepLength != UndefinedTimestepLength && timestepLength < 0 {
		return nil, newError(op, KindConfig,
			V{"timestepLength": timestepLength},
			"timestep length has to be larger than zero")
	}

	if validDigits < 1 || validDigits > 16 {
		return nil, newError(op, KindConfig, V{"validDigits": validDigits},
			"valid digits of timestep length has to be between 1 and 16")
	}

	if policy == DtPolicyFixed && timestepLength == UndefinedTimestepLength {
		return nil, newError(op, KindConfig, nil,
			"timestep length value has to be given when the fixed "+
				"timestep length method is chosen")
	}

	if policy == DtPolicyFirstSets {
		timestepLength = UndefinedTimestepLength
	}

	c := &TimestepController{
		policy:       policy,
		maxTime:      maxTime,
		maxTimesteps: maxTimesteps,
		length:       timestepLength,
		validDigits:  validDigits,
		eps:          math.Pow(10, -float64(validDigits)),
	}

	return c, nil
}

// Policy returns the resolved timestep length policy.
func (c *TimestepController) Policy() DtPolicy {
	return c.policy
}

// Eps returns the tolerance of time comparisons.
func (c *TimestepController) Eps() float64 {
	return c.eps
}

// ValidDigits returns the number of valid digits of time values.
func (c *TimestepController) ValidDigits() int {
	return c.validDigits
}

// MaxTime returns the end time, or UndefinedTime.
func (c *TimestepController) MaxTime() float64 {
	return c.maxTime
}

// MaxTimesteps returns the number of timesteps, or UndefinedTimesteps.
func (c *TimestepController) MaxTimesteps() int {
	return c.maxTimesteps
}

// Time returns the current time.
func (c *TimestepController) Time() float64 {
	return c.time
}

// Timesteps returns the number of completed timesteps.
func (c *TimestepController) Timesteps() int {
	return c.timesteps
}

// ComputedTimestepPart returns the time computed in the current timestep.
func (c *TimestepController) ComputedTimestepPart() float64 {
	return c.computedPart
}

// HasTimestepLength tells if a timestep length is set.
func (c *TimestepController) HasTimestepLength() bool {
	return c.length != UndefinedTimestepLength
}

// TimestepLength returns the timestep length. It must be set.
func (c *TimestepController) TimestepLength() float64 {
	if !c.HasTimestepLength() {
		panic("timestep length is undefined")
	}

	return c.length
}

// SetTimestepLength sets the timestep length of the current timestep.
func (c *TimestepController) SetTimestepLength(length float64) {
	c.length = length
}

// AddComputedTime accumulates dt into the time and into the computed part of
// the timestep. It fails without changing anything if the coupling has ended
// or if dt exceeds what remains of the timestep.
func (c *TimestepController) AddComputedTime(dt float64) error {
	const op = "addComputedTime()"

	if !c.IsCouplingOngoing() {
		return newError(op, KindUsage, V{"dt": dt, "time": c.time},
			"invalid call of addComputedTime() after simulation end")
	}

	if c.HasTimestepLength() {
		remainder := c.length - (c.computedPart + dt)
		if remainder < -c.eps {
			return newError(op, KindUsage,
				V{"dt": dt, "limit": c.length - c.computedPart},
				"the computed timestep length exceeds the maximum "+
					"timestep limit for this time step")
		}
	}

	c.computedPart += dt
	c.time += dt

	return nil
}

// ThisTimestepRemainder returns the time left in the current timestep, or 0
// if no timestep length is set.
func (c *TimestepController) ThisTimestepRemainder() float64 {
	if !c.HasTimestepLength() {
		return 0
	}

	return c.length - c.computedPart
}

// NextTimestepMaxLength returns how long the next solver step may be.
func (c *TimestepController) NextTimestepMaxLength() float64 {
	if c.HasTimestepLength() {
		return c.length - c.computedPart
	}

	if c.maxTime == UndefinedTime {
		return math.MaxFloat64
	}

	return c.maxTime - c.time
}

// WillDataBeExchanged tells if a solver step of length dt completes the
// timestep.
func (c *TimestepController) WillDataBeExchanged(dt float64) bool {
	return c.ThisTimestepRemainder()-dt <= c.eps
}

// IsTimestepComplete tells if the computed part covers the timestep.
func (c *TimestepController) IsTimestepComplete() bool {
	return c.WillDataBeExchanged(0)
}

// IsCouplingOngoing tells if time and timesteps are left.
func (c *TimestepController) IsCouplingOngoing() bool {
	timeLeft := c.maxTime == UndefinedTime || c.maxTime-c.time > c.eps
	timestepsLeft := c.maxTimesteps == UndefinedTimesteps ||
		c.maxTimesteps > c.timesteps

	return timeLeft && timestepsLeft
}

func (c *TimestepController) start(time float64, timesteps int) {
	c.time = time
	c.timesteps = timesteps
}

// completeTimestep counts a finished timestep and starts the next one.
func (c *TimestepController) completeTimestep() {
	c.timesteps++
	c.computedPart = 0
}

// rollback returns to the beginning of the current timestep.
func (c *TimestepController) rollback() {
	c.time -= c.computedPart
	c.computedPart = 0
}

package cplscheme

import (
	"github.com/ArminHamedi/precice/com"
	"github.com/sirupsen/logrus"
)

// Builder can build coupling schemes.
type Builder struct {
	maxTime                    float64
	maxTimesteps               int
	timestepLength             float64
	validDigits                int
	firstParticipant           string
	secondParticipant          string
	localParticipant           string
	comm                       com.Communication
	maxIterations              int
	dtMethod                   DtMethod
	extrapolationOrder         int
	checkpointTimestepInterval int
	measures                   []ConvergenceMeasureBinding
	postProcessing             PostProcessing
	logger                     *logrus.Logger
}

// MakeBuilder creates a builder with undefined bounds, a fixed timestep
// length method, and 10 valid digits.
func MakeBuilder() Builder {
	return Builder{
		maxTime:        UndefinedTime,
		maxTimesteps:   UndefinedTimesteps,
		timestepLength: UndefinedTimestepLength,
		validDigits:    10,
		maxIterations:  UndefinedMaxIterations,
		dtMethod:       DtMethodFixed,
	}
}

// WithMaxTime sets the time at which the coupling ends.
func (b Builder) WithMaxTime(t float64) Builder {
	b.maxTime = t
	return b
}

// WithMaxTimesteps sets the number of timesteps after which the coupling
// ends.
func (b Builder) WithMaxTimesteps(n int) Builder {
	b.maxTimesteps = n
	return b
}

// WithTimestepLength sets the length of a coupling timestep.
func (b Builder) WithTimestepLength(dt float64) Builder {
	b.timestepLength = dt
	return b
}

// WithValidDigits sets the precision of time comparisons.
func (b Builder) WithValidDigits(n int) Builder {
	b.validDigits = n
	return b
}

// WithParticipants sets the names of the first and the second participant.
func (b Builder) WithParticipants(first, second string) Builder {
	b.firstParticipant = first
	b.secondParticipant = second

	return b
}

// WithLocalParticipant sets the name of the participant that runs the scheme.
func (b Builder) WithLocalParticipant(name string) Builder {
	b.localParticipant = name
	return b
}

// WithCommunication sets the channel to the remote participant.
func (b Builder) WithCommunication(c com.Communication) Builder {
	b.comm = c
	return b
}

// WithMaxIterations limits the iterations of an implicit timestep.
func (b Builder) WithMaxIterations(n int) Builder {
	b.maxIterations = n
	return b
}

// WithDtMethod sets how the timestep length is determined.
func (b Builder) WithDtMethod(m DtMethod) Builder {
	b.dtMethod = m
	return b
}

// WithExtrapolationOrder sets the order of the prediction of the next
// timestep's values.
func (b Builder) WithExtrapolationOrder(order int) Builder {
	b.extrapolationOrder = order
	return b
}

// WithCheckpointTimestepInterval sets after how many timesteps a simulation
// checkpoint is required.
func (b Builder) WithCheckpointTimestepInterval(n int) Builder {
	b.checkpointTimestepInterval = n
	return b
}

// WithConvergenceMeasure adds a convergence measure for the data with the id.
func (b Builder) WithConvergenceMeasure(
	dataID int,
	suffices bool,
	m ConvergenceMeasure,
) Builder {
	measures := make([]ConvergenceMeasureBinding, len(b.measures), len(b.measures)+1)
	copy(measures, b.measures)

	b.measures = append(measures, ConvergenceMeasureBinding{
		DataID:   dataID,
		Suffices: suffices,
		Measure:  m,
	})

	return b
}

// WithPostProcessing sets the post-processing of an implicit scheme.
func (b Builder) WithPostProcessing(pp PostProcessing) Builder {
	b.postProcessing = pp
	return b
}

// WithLogger sets the logger. The standard logger is used by default.
func (b Builder) WithLogger(l *logrus.Logger) Builder {
	b.logger = l
	return b
}

// BuildExplicit builds a serial explicit scheme.
func (b Builder) BuildExplicit(name string) (*SerialExplicit, error) {
	if len(b.measures) > 0 || b.postProcessing != nil {
		return nil, newError("SerialExplicit()", KindConfig,
			V{"measures": len(b.measures)},
			"explicit coupling does not iterate and cannot have "+
				"convergence measures or post-processing")
	}

	base, err := newBase(b, name)
	if err != nil {
		return nil, err
	}

	return &SerialExplicit{Base: base}, nil
}

// BuildImplicit builds a serial implicit scheme.
func (b Builder) BuildImplicit(name string) (*SerialImplicit, error) {
	if len(b.measures) == 0 {
		return nil, newError("SerialImplicit()", KindConfig, nil,
			"at least one convergence measure has to be defined for an "+
				"implicit coupling scheme")
	}

	base, err := newBase(b, name)
	if err != nil {
		return nil, err
	}

	return &SerialImplicit{Base: base}, nil
}

package cplscheme

import (
	"fmt"

	"github.com/ArminHamedi/precice/com"
	"github.com/sirupsen/logrus"
)

// Base holds the state and the lifecycle that all coupling schemes between two
// participants share. Concrete schemes add the Advance step on top.
type Base struct {
	*HookableBase

	name   string
	log    *logrus.Entry
	comm   com.Communication
	dt     *TimestepController
	action *ActionRegistry

	firstParticipant  string
	secondParticipant string
	localParticipant  string
	doesFirstStep     bool

	sendData       *DataMap
	receiveData    *DataMap
	measures       []*ConvergenceMeasureBinding
	postProcessing PostProcessing

	checkpointTimestepInterval int
	extrapolationOrder         int
	maxIterations              int
	iterations                 int
	totalIterations            int
	firstTimestep              int

	prepared                   bool
	restored                   *State
	isInitialized              bool
	isCouplingTimestepComplete bool
	hasDataBeenExchanged       bool
	hasToSendInitData          bool
	hasToReceiveInitData       bool
}

func newBase(b Builder, name string) (*Base, error) {
	const op = "BaseCouplingScheme()"

	if b.firstParticipant == b.secondParticipant {
		return nil, newError(op, KindConfig,
			V{"first": b.firstParticipant, "second": b.secondParticipant},
			"first participant and second participant must have "+
				"different names")
	}

	var doesFirstStep bool

	switch b.localParticipant {
	case b.firstParticipant:
		doesFirstStep = true
	case b.secondParticipant:
		doesFirstStep = false
	default:
		return nil, newError(op, KindConfig,
			V{"local": b.localParticipant},
			"name of local participant %q does not match any participant "+
				"specified for the coupling scheme", b.localParticipant)
	}

	if b.maxIterations <= 0 && b.maxIterations != UndefinedMaxIterations {
		return nil, newError(op, KindConfig,
			V{"maxIterations": b.maxIterations},
			"maximal iteration limit has to be larger than zero")
	}

	if b.comm == nil {
		panic("coupling scheme needs a communication")
	}

	dt, err := NewTimestepController(
		ResolveDtPolicy(b.dtMethod, doesFirstStep),
		b.maxTime, b.maxTimesteps, b.timestepLength, b.validDigits)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Base{
		HookableBase:      &HookableBase{},
		name:              name,
		comm:              b.comm,
		dt:                dt,
		action:            NewActionRegistry(),
		firstParticipant:  b.firstParticipant,
		secondParticipant: b.secondParticipant,
		localParticipant:  b.localParticipant,
		doesFirstStep:     doesFirstStep,
		sendData:          NewDataMap(),
		receiveData:       NewDataMap(),
		maxIterations:     b.maxIterations,
		log: logger.WithFields(logrus.Fields{
			"scheme":      name,
			"participant": b.localParticipant,
		}),
	}

	if err := s.SetExtrapolationOrder(b.extrapolationOrder); err != nil {
		return nil, err
	}

	if err := s.SetCheckpointTimestepInterval(
		b.checkpointTimestepInterval); err != nil {
		return nil, err
	}

	for _, m := range b.measures {
		s.AddConvergenceMeasure(m.DataID, m.Suffices, m.Measure)
	}

	s.postProcessing = b.postProcessing

	return s, nil
}

// Name returns the name of the scheme.
func (s *Base) Name() string {
	return s.name
}

// LocalParticipant returns the name of the participant that runs the scheme.
func (s *Base) LocalParticipant() string {
	return s.localParticipant
}

// DoesFirstStep tells if the local participant is the first participant.
func (s *Base) DoesFirstStep() bool {
	return s.doesFirstStep
}

// CouplingPartners returns the name of the remote participant.
func (s *Base) CouplingPartners() []string {
	if s.doesFirstStep {
		return []string{s.secondParticipant}
	}

	return []string{s.firstParticipant}
}

// Communication returns the channel to the remote participant.
func (s *Base) Communication() com.Communication {
	return s.comm
}

// Logger returns the logger of the scheme.
func (s *Base) Logger() *logrus.Entry {
	return s.log
}

// AddDataToSend registers a data item the local participant sends.
func (s *Base) AddDataToSend(data Data, initialize bool) error {
	if !s.sendData.insert(data.ID(), NewCouplingData(data, initialize)) {
		return newError("addDataToSend()", KindConfig,
			V{"data": data.Name(), "mesh": data.MeshName(), "id": data.ID()},
			"data %q of mesh %q cannot be added twice for sending",
			data.Name(), data.MeshName())
	}

	return nil
}

// AddDataToReceive registers a data item the local participant receives.
func (s *Base) AddDataToReceive(data Data, initialize bool) error {
	if !s.receiveData.insert(data.ID(), NewCouplingData(data, initialize)) {
		return newError("addDataToReceive()", KindConfig,
			V{"data": data.Name(), "mesh": data.MeshName(), "id": data.ID()},
			"data %q of mesh %q cannot be added twice for receiving",
			data.Name(), data.MeshName())
	}

	return nil
}

// SendData returns the send entry with the id, or nil.
func (s *Base) SendData(id int) *CouplingData {
	return s.sendData.Get(id)
}

// ReceiveData returns the receive entry with the id, or nil.
func (s *Base) ReceiveData(id int) *CouplingData {
	return s.receiveData.Get(id)
}

// AllSendData returns the map of send data.
func (s *Base) AllSendData() *DataMap {
	return s.sendData
}

// AllReceiveData returns the map of receive data.
func (s *Base) AllReceiveData() *DataMap {
	return s.receiveData
}

// AddConvergenceMeasure attaches a measure to the data with the id. The id is
// resolved when the scheme is initialized.
func (s *Base) AddConvergenceMeasure(
	dataID int,
	suffices bool,
	measure ConvergenceMeasure,
) {
	s.measures = append(s.measures, &ConvergenceMeasureBinding{
		DataID:   dataID,
		Suffices: suffices,
		Measure:  measure,
	})
}

// ConvergenceMeasures returns the attached measures.
func (s *Base) ConvergenceMeasures() []*ConvergenceMeasureBinding {
	return s.measures
}

// SetPostProcessing attaches a post-processing.
func (s *Base) SetPostProcessing(pp PostProcessing) {
	s.postProcessing = pp
}

// SetExtrapolationOrder sets how many old timesteps are used to predict the
// values of the next timestep. Only 0, 1, and 2 are supported.
func (s *Base) SetExtrapolationOrder(order int) error {
	if order < 0 || order > 2 {
		return newError("setExtrapolationOrder()", KindConfig,
			V{"order": order}, "extrapolation order has to be 0, 1, or 2")
	}

	s.extrapolationOrder = order

	return nil
}

// ExtrapolationOrder returns the extrapolation order.
func (s *Base) ExtrapolationOrder() int {
	return s.extrapolationOrder
}

// SetCheckpointTimestepInterval sets after how many timesteps a simulation
// checkpoint is required. Values below 1 disable simulation checkpoints.
func (s *Base) SetCheckpointTimestepInterval(interval int) error {
	if s.isInitialized {
		return newError("setCheckpointTimestepInterval()", KindUsage,
			V{"interval": interval},
			"checkpoint interval cannot change after initialize()")
	}

	s.checkpointTimestepInterval = interval

	return nil
}

// CheckpointTimestepInterval returns the simulation checkpoint interval.
func (s *Base) CheckpointTimestepInterval() int {
	return s.checkpointTimestepInterval
}

// ValidDigits returns the number of valid digits of time values.
func (s *Base) ValidDigits() int {
	return s.dt.ValidDigits()
}

// Time returns the current time.
func (s *Base) Time() float64 {
	return s.dt.Time()
}

// Timesteps returns the number of the current timestep.
func (s *Base) Timesteps() int {
	return s.dt.Timesteps()
}

// MaxTime returns the end time, or UndefinedTime.
func (s *Base) MaxTime() float64 {
	return s.dt.MaxTime()
}

// MaxTimesteps returns the last timestep, or UndefinedTimesteps.
func (s *Base) MaxTimesteps() int {
	return s.dt.MaxTimesteps()
}

// DtPolicy returns the timestep length policy of the local participant.
func (s *Base) DtPolicy() DtPolicy {
	return s.dt.Policy()
}

// HasTimestepLength tells if the timestep length is known.
func (s *Base) HasTimestepLength() bool {
	return s.dt.HasTimestepLength()
}

// TimestepLength returns the timestep length. It must be known.
func (s *Base) TimestepLength() float64 {
	return s.dt.TimestepLength()
}

// ComputedTimestepPart returns the time computed in the current timestep.
func (s *Base) ComputedTimestepPart() float64 {
	return s.dt.ComputedTimestepPart()
}

// ThisTimestepRemainder returns the time left in the current timestep.
func (s *Base) ThisTimestepRemainder() float64 {
	return s.dt.ThisTimestepRemainder()
}

// NextTimestepMaxLength returns the longest step the solver may take next.
func (s *Base) NextTimestepMaxLength() float64 {
	return s.dt.NextTimestepMaxLength()
}

// WillDataBeExchanged tells if a solver step of length dt completes the
// coupling timestep.
func (s *Base) WillDataBeExchanged(dt float64) bool {
	return s.dt.WillDataBeExchanged(dt)
}

// IsCouplingOngoing tells if there is time and timesteps left.
func (s *Base) IsCouplingOngoing() bool {
	return s.dt.IsCouplingOngoing()
}

// IsCouplingTimestepComplete tells if the last Advance completed a timestep.
func (s *Base) IsCouplingTimestepComplete() bool {
	return s.isCouplingTimestepComplete
}

// HasDataBeenExchanged tells if the last call exchanged data.
func (s *Base) HasDataBeenExchanged() bool {
	return s.hasDataBeenExchanged
}

// IsInitialized tells if Initialize succeeded.
func (s *Base) IsInitialized() bool {
	return s.isInitialized
}

// HasToSendInitData tells if InitializeData still has to send initial data.
func (s *Base) HasToSendInitData() bool {
	return s.hasToSendInitData
}

// HasToReceiveInitData tells if InitializeData still has to receive initial
// data.
func (s *Base) HasToReceiveInitData() bool {
	return s.hasToReceiveInitData
}

// MaxIterations returns the iteration limit, or UndefinedMaxIterations.
func (s *Base) MaxIterations() int {
	return s.maxIterations
}

// Iterations returns the iteration within the current timestep.
func (s *Base) Iterations() int {
	return s.iterations
}

// TotalIterations returns the number of iterations over all timesteps.
func (s *Base) TotalIterations() int {
	return s.totalIterations
}

// AddComputedTime adds the length of a finished solver step.
func (s *Base) AddComputedTime(dt float64) error {
	s.log.WithFields(logrus.Fields{
		"dt":   dt,
		"time": s.dt.Time(),
	}).Debug("add computed time")

	return s.dt.AddComputedTime(dt)
}

// IsActionRequired tells if the application has to perform the action.
func (s *Base) IsActionRequired(a Action) bool {
	return s.action.IsRequired(a)
}

// PerformedAction acknowledges that the application performed the action.
func (s *Base) PerformedAction(a Action) {
	s.action.Perform(a)
}

// RequireAction makes the action outstanding.
func (s *Base) RequireAction(a Action) {
	s.action.Require(a)
}

// RequiredActions returns the outstanding actions.
func (s *Base) RequiredActions() []Action {
	return s.action.Actions()
}

func (s *Base) mustBeConnected() {
	if s.comm == nil || !s.comm.IsConnected() {
		panic(fmt.Sprintf("scheme %s: communication is not connected",
			s.name))
	}
}

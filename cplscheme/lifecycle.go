package cplscheme

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Initialize starts the coupling at the given time and timestep.
//
// The second participant receives the first data of the first participant
// here, unless it has to send initial data. In that case the receive happens
// in InitializeData and the application is asked to write the initial data
// first.
//
// A scheme prepared with Restore has to start at the restored time and
// timestep. It skips the initial data and asks the application to read its
// simulation checkpoint instead.
func (s *Base) Initialize(startTime float64, startTimestep int) error {
	const op = "initialize()"

	if s.isInitialized {
		return newError(op, KindUsage, nil, "initialize() called twice")
	}

	if startTime < 0 || startTimestep < 0 {
		return newError(op, KindUsage,
			V{"startTime": startTime, "startTimestep": startTimestep},
			"start time and start timestep must not be negative")
	}

	if err := s.checkRestoredStart(op, startTime, startTimestep); err != nil {
		return err
	}

	s.mustBeConnected()

	if err := s.prepare(op); err != nil {
		return err
	}

	sendInit, receiveInit, err := s.initDataFlags()
	if err != nil {
		return err
	}

	s.dt.start(startTime, startTimestep)
	s.firstTimestep = startTimestep

	if s.restored == nil {
		s.hasToSendInitData = sendInit
		s.hasToReceiveInitData = receiveInit
	}

	if len(s.measures) > 0 {
		s.iterations = 1
		s.totalIterations = 1

		if s.restored != nil {
			s.totalIterations = s.restored.TotalIterations
		}

		s.action.Require(ActionWriteIterationCheckpoint)
	}

	if s.restored != nil {
		s.action.Require(ActionReadSimulationCheckpoint)
		s.log.WithFields(logrus.Fields{
			"time":      startTime,
			"timesteps": startTimestep,
		}).Info("resuming from a simulation checkpoint")
	}

	if !s.doesFirstStep && !s.hasToSendInitData && s.IsCouplingOngoing() {
		s.log.Debug("receiving data")

		if err := s.receiveDtAndData(op); err != nil {
			return err
		}

		s.hasDataBeenExchanged = true
	}

	if s.hasToSendInitData {
		s.action.Require(ActionWriteInitialData)
	}

	s.isInitialized = true

	return nil
}

// Restore prepares a scheme that has not been initialized to resume a run
// from a state taken at a timestep boundary, such as a simulation
// checkpoint. The run continues with Initialize(st.Time, st.Timesteps).
func (s *Base) Restore(st State) error {
	const op = "restore()"

	if s.isInitialized {
		return newError(op, KindUsage, nil,
			"restore() has to be called before initialize()")
	}

	if !st.IsInitialized {
		return newError(op, KindUsage, nil,
			"the state was not taken from an initialized scheme")
	}

	if st.Time < 0 || st.Timesteps < 0 {
		return newError(op, KindUsage,
			V{"time": st.Time, "timesteps": st.Timesteps},
			"restored time and timesteps must not be negative")
	}

	if math.Abs(st.ComputedTimestepPart) > s.dt.Eps() {
		return newError(op, KindUsage,
			V{"computedTimestepPart": st.ComputedTimestepPart},
			"the state was taken in the middle of a timestep")
	}

	s.restored = &st

	return nil
}

func (s *Base) checkRestoredStart(
	op string,
	startTime float64,
	startTimestep int,
) error {
	if s.restored == nil {
		return nil
	}

	if startTimestep != s.restored.Timesteps ||
		math.Abs(startTime-s.restored.Time) > s.dt.Eps() {
		return newError(op, KindUsage,
			V{
				"startTime":     startTime,
				"startTimestep": startTimestep,
				"restoredTime":  s.restored.Time,
				"restoredSteps": s.restored.Timesteps,
			},
			"a restored scheme has to start where the state was taken")
	}

	return nil
}

// prepare runs the parts of the initialization that do not communicate:
// it checks the registered data, binds the convergence measures, and
// reserves the history columns. It runs once per scheme.
func (s *Base) prepare(op string) error {
	if s.prepared {
		return nil
	}

	if s.sendData.Len() == 0 {
		return newError(op, KindConfig, nil,
			"no send data configured, use explicit scheme for one-way coupling")
	}

	if err := s.checkPostProcessing(); err != nil {
		return err
	}

	if !s.doesFirstStep && len(s.measures) > 0 {
		if err := s.setupConvergenceMeasures(); err != nil {
			return err
		}

		s.setupDataMatrices(s.sendData)
	}

	if !s.doesFirstStep && s.postProcessing != nil {
		if err := s.postProcessing.Initialize(s.sendData); err != nil {
			return &Error{
				Op:   op,
				Kind: KindConfig,
				Msg:  "post-processing failed to initialize",
				Err:  err,
			}
		}
	}

	s.prepared = true

	return nil
}

// InitializeData exchanges the initial data. The second participant sends
// its initial values and receives the first data of the first participant.
// The call does nothing if no data is flagged for initialization.
func (s *Base) InitializeData() error {
	const op = "initializeData()"

	if !s.isInitialized {
		return newError(op, KindUsage, nil,
			"initializeData() can be called after initialize() only")
	}

	if !s.hasToSendInitData && !s.hasToReceiveInitData {
		s.log.Info("initializeData is skipped since no data has to be " +
			"initialized")

		return nil
	}

	if s.hasToSendInitData && s.action.IsRequired(ActionWriteInitialData) {
		return newError(op, KindProtocol,
			V{"action": ActionWriteInitialData.String()},
			"initial data has to be written before calling initializeData()")
	}

	s.log.Debug("initializing data")

	s.hasDataBeenExchanged = false

	if s.hasToReceiveInitData && s.IsCouplingOngoing() {
		if err := s.receiveDtAndData(op); err != nil {
			return err
		}

		s.hasDataBeenExchanged = true
	}

	if s.hasToSendInitData && s.IsCouplingOngoing() {
		s.seedHistory()

		if err := s.sendDataPackage(op); err != nil {
			return err
		}

		if err := s.receiveDtAndData(op); err != nil {
			return err
		}

		s.hasDataBeenExchanged = true
	}

	s.hasToSendInitData = false
	s.hasToReceiveInitData = false

	return nil
}

// Finalize ends the coupling. All actions must be performed and the coupling
// must have reached its end.
func (s *Base) Finalize() error {
	const op = "finalize()"

	if err := s.action.CheckComplete(); err != nil {
		return err
	}

	if !s.isInitialized {
		return newError(op, KindUsage, nil,
			"called finalize() before initialize()")
	}

	if s.IsCouplingOngoing() {
		return newError(op, KindUsage,
			V{"time": s.Time(), "timesteps": s.Timesteps()},
			"called finalize() while isCouplingOngoing() returns true")
	}

	s.log.Debug("finalized")

	return nil
}

func (s *Base) checkPostProcessing() error {
	const op = "initialize()"

	if s.postProcessing == nil {
		return nil
	}

	ids := s.postProcessing.DataIDs()

	if !s.doesFirstStep {
		if len(ids) != 1 {
			return newError(op, KindConfig, V{"dataIDs": ids},
				"for serial coupling, the number of coupling data vectors "+
					"has to be 1")
		}

		return nil
	}

	if len(ids) > 0 && s.sendData.Contains(ids[0]) {
		return newError(op, KindConfig, V{"dataID": ids[0]},
			"in case of serial coupling, post-processing can be defined "+
				"for data of second participant only")
	}

	return nil
}

func (s *Base) initDataFlags() (send, receive bool, err error) {
	const op = "initialize()"

	for _, id := range s.sendData.IDs() {
		if !s.sendData.Get(id).Initialize() {
			continue
		}

		if s.doesFirstStep {
			return false, false, newError(op, KindConfig, V{"dataID": id},
				"only second participant can initialize data")
		}

		s.log.WithField("data", id).Debug("initialized data to be written")
		send = true
	}

	for _, id := range s.receiveData.IDs() {
		if !s.receiveData.Get(id).Initialize() {
			continue
		}

		if !s.doesFirstStep {
			return false, false, newError(op, KindConfig, V{"dataID": id},
				"only first participant can receive initial data")
		}

		s.log.WithField("data", id).Debug("initialized data to be received")
		receive = true
	}

	return send, receive, nil
}

func (s *Base) setupConvergenceMeasures() error {
	for _, m := range s.measures {
		if d := s.sendData.Get(m.DataID); d != nil {
			m.data = d
			continue
		}

		if d := s.receiveData.Get(m.DataID); d != nil {
			m.data = d
			continue
		}

		return newError("setupConvergenceMeasures()", KindConfig,
			V{"dataID": m.DataID, "measure": m.Measure.String()},
			"convergence measure refers to data that is neither sent nor "+
				"received")
	}

	return nil
}

// setupDataMatrices reserves the history columns used for convergence
// measurement and extrapolation.
func (s *Base) setupDataMatrices(data *DataMap) {
	for _, m := range s.measures {
		if m.data.OldValues().Cols() < 1 {
			m.data.OldValues().AppendZeros(len(m.data.Values()), 1)
		}
	}

	if s.extrapolationOrder == 0 {
		return
	}

	data.Each(func(id int, d *CouplingData) {
		cols := d.OldValues().Cols()
		if cols > 1 {
			panic(fmt.Sprintf("data %d has %d history columns", id, cols))
		}

		s.log.WithFields(logrus.Fields{
			"data": id,
			"cols": cols,
		}).Debug("add history columns")

		d.OldValues().AppendZeros(len(d.Values()),
			s.extrapolationOrder+1-cols)
	})
}

// seedHistory treats the initial values as the values of the previous
// timestep.
func (s *Base) seedHistory() {
	s.sendData.Each(func(_ int, d *CouplingData) {
		if d.OldValues().Cols() == 0 {
			return
		}

		d.OldValues().SetColumn(0, d.Values())
		d.OldValues().ShiftSetFirst(d.Values())
	})
}

// beginAdvance checks that the application is allowed to advance.
func (s *Base) beginAdvance() error {
	const op = "advance()"

	if err := s.action.CheckComplete(); err != nil {
		return err
	}

	if !s.isInitialized {
		return newError(op, KindUsage, nil,
			"advance() can be called after initialize() only")
	}

	if s.hasToSendInitData || s.hasToReceiveInitData {
		return newError(op, KindUsage, nil,
			"initializeData() needs to be called before advance() if data "+
				"has to be initialized")
	}

	s.isCouplingTimestepComplete = false
	s.hasDataBeenExchanged = false

	return nil
}

// timestepCompleted counts the finished timestep.
func (s *Base) timestepCompleted() {
	s.dt.completeTimestep()
	s.isCouplingTimestepComplete = true

	s.log.WithFields(logrus.Fields{
		"timesteps": s.Timesteps(),
		"time":      s.Time(),
	}).Debug("timestep completed")

	if s.checkpointTimestepInterval > 0 &&
		s.Timesteps()%s.checkpointTimestepInterval == 0 {
		s.action.Require(ActionWriteSimulationCheckpoint)
	}

	s.InvokeHook(HookCtx{
		Domain: s,
		Pos:    HookPosTimestepComplete,
		Item:   s.Timesteps(),
	})
}

// extrapolateData predicts the values of the next timestep from the history.
// The first timestep after initialization falls back to first order, since
// only one old value exists.
func (s *Base) extrapolateData(data *DataMap) {
	order := s.extrapolationOrder
	if order == 0 {
		return
	}

	if s.Timesteps()-s.firstTimestep == 1 {
		order = 1
	}

	data.Each(func(_ int, d *CouplingData) {
		h := d.OldValues()
		if h.Cols() < s.extrapolationOrder+1 {
			return
		}

		values := d.Values()
		h.SetColumn(0, values)

		prev := h.Column(1)

		switch order {
		case 1:
			for i := range values {
				values[i] = 2*values[i] - prev[i]
			}
		case 2:
			prevPrev := h.Column(2)
			for i := range values {
				values[i] = 2.5*values[i] - 2*prev[i] + 0.5*prevPrev[i]
			}
		}

		h.ShiftSetFirst(values)
	})
}

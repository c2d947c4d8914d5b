package cplscheme

import (
	"github.com/sirupsen/logrus"
)

// SerialImplicit repeats every timestep until the second participant reports
// convergence. After an iteration that did not converge, both participants
// return to the beginning of the timestep and restore their iteration
// checkpoints.
type SerialImplicit struct {
	*Base
}

// Advance runs the convergence handshake if the current timestep has been
// computed completely.
func (s *SerialImplicit) Advance() error {
	const op = "advance()"

	if err := s.beginAdvance(); err != nil {
		return err
	}

	if !s.dt.IsTimestepComplete() {
		return nil
	}

	if s.doesFirstStep {
		return s.advanceFirst(op)
	}

	return s.advanceSecond(op)
}

func (s *SerialImplicit) advanceFirst(op string) error {
	if err := s.sendDtAndData(op, s.ComputedTimestepPart(), true); err != nil {
		return err
	}

	if err := s.startReceive(op); err != nil {
		return err
	}

	converged, err := s.comm.ReceiveBool()
	if err != nil {
		return transportError(op, err)
	}

	s.iterationCompleted(converged)

	if s.IsCouplingOngoing() {
		if _, err := s.receiveAll(op); err != nil {
			return err
		}
	}

	if err := s.finishReceive(op); err != nil {
		return err
	}

	s.hasDataBeenExchanged = true

	return nil
}

func (s *SerialImplicit) advanceSecond(op string) error {
	converged := s.measureConvergence()

	if !converged && s.maxIterationsReached() {
		s.log.WithField("iterations", s.iterations).
			Warn("maximal iteration limit reached, forcing convergence")

		converged = true
	}

	if err := s.postProcess(op, converged); err != nil {
		return err
	}

	s.iterationCompleted(converged)

	if err := s.startSend(op); err != nil {
		return err
	}

	if err := s.comm.SendBool(converged); err != nil {
		return transportError(op, err)
	}

	ongoing := s.IsCouplingOngoing()

	if ongoing {
		if _, err := s.sendAll(op); err != nil {
			return err
		}
	}

	if err := s.finishSend(op); err != nil {
		return err
	}

	if ongoing {
		if err := s.receiveDtAndData(op); err != nil {
			return err
		}
	}

	s.hasDataBeenExchanged = true

	return nil
}

// measureConvergence tells if all measures converged, or if one that
// suffices converged.
func (s *SerialImplicit) measureConvergence() bool {
	allConverged := true
	oneSuffices := false

	for _, m := range s.measures {
		d := m.Data()
		m.Measure.Measure(d.OldValues().Column(0), d.Values())

		if !m.Measure.IsConvergence() {
			allConverged = false
		} else if m.Suffices {
			oneSuffices = true
		}

		s.log.WithFields(logrus.Fields{
			"data":      m.DataID,
			"measure":   m.Measure.String(),
			"converged": m.Measure.IsConvergence(),
		}).Debug("measured convergence")
	}

	return allConverged || oneSuffices
}

func (s *SerialImplicit) maxIterationsReached() bool {
	return s.maxIterations != UndefinedMaxIterations &&
		s.iterations >= s.maxIterations
}

func (s *SerialImplicit) postProcess(op string, converged bool) error {
	if converged {
		for _, m := range s.measures {
			m.Measure.NewMeasurementSeries()
		}
	}

	if s.postProcessing == nil {
		return nil
	}

	var err error
	if converged {
		err = s.postProcessing.IterationsConverged(s.sendData)
	} else {
		err = s.postProcessing.PerformPostProcessing(s.sendData)
	}

	if err != nil {
		return &Error{
			Op:   op,
			Kind: KindProtocol,
			Msg:  "post-processing failed",
			Err:  err,
		}
	}

	return nil
}

// iterationCompleted applies the convergence decision on both participants.
func (s *SerialImplicit) iterationCompleted(converged bool) {
	s.totalIterations++

	s.InvokeHook(HookCtx{
		Domain: s,
		Pos:    HookPosIterationComplete,
		Item: IterationInfo{
			Timestep:  s.Timesteps(),
			Iteration: s.iterations,
			Converged: converged,
		},
	})

	if converged {
		s.iterations = 1
		s.timestepCompleted()
		s.extrapolateData(s.sendData)
		s.storeIterates(s.receiveData)

		if !s.extrapolates() {
			s.storeIterates(s.sendData)
		}

		if s.IsCouplingOngoing() {
			s.action.Require(ActionWriteIterationCheckpoint)
		}

		return
	}

	s.iterations++
	s.dt.rollback()
	s.storeIterates(s.sendData)
	s.storeIterates(s.receiveData)
	s.action.Require(ActionReadIterationCheckpoint)
}

func (s *SerialImplicit) extrapolates() bool {
	return s.extrapolationOrder > 0
}

// storeIterates keeps the current values as the reference of the next
// convergence measurement.
func (s *SerialImplicit) storeIterates(data *DataMap) {
	data.Each(func(_ int, d *CouplingData) {
		if d.OldValues().Cols() > 0 {
			d.OldValues().SetColumn(0, d.Values())
		}
	})
}

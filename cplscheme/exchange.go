package cplscheme

import (
	"github.com/sirupsen/logrus"
)

// sendAll writes the values of all send data in ascending id order. Empty
// buffers are skipped on both sides, so the receiver stays in step. The ids
// of all processed entries are returned.
func (s *Base) sendAll(op string) ([]int, error) {
	s.mustBeConnected()

	ids := make([]int, 0, s.sendData.Len())

	for _, id := range s.sendData.IDs() {
		values := s.sendData.Get(id).Values()
		if len(values) > 0 {
			if err := s.comm.SendFloat64s(values); err != nil {
				return ids, transportError(op, err)
			}
		}

		ids = append(ids, id)
	}

	s.log.WithField("count", len(ids)).Debug("sent data sets")
	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosDataSent, Item: ids})

	return ids, nil
}

// receiveAll is the counterpart of sendAll for the receive data.
func (s *Base) receiveAll(op string) ([]int, error) {
	s.mustBeConnected()

	ids := make([]int, 0, s.receiveData.Len())

	for _, id := range s.receiveData.IDs() {
		values := s.receiveData.Get(id).Values()
		if len(values) > 0 {
			if err := s.comm.ReceiveFloat64s(values); err != nil {
				return ids, transportError(op, err)
			}
		}

		ids = append(ids, id)
	}

	s.log.WithField("count", len(ids)).Debug("received data sets")
	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosDataReceived, Item: ids})

	return ids, nil
}

// sendDt sends the timestep length if the local participant sets it.
func (s *Base) sendDt(op string, dt float64) error {
	if s.dt.Policy() != DtPolicyFirstSets {
		return nil
	}

	if err := s.comm.SendFloat64(dt); err != nil {
		return transportError(op, err)
	}

	return nil
}

// receiveAndSetDt receives the timestep length if the local participant gets
// it from the first participant.
func (s *Base) receiveAndSetDt(op string) error {
	if s.dt.Policy() != DtPolicyFirstReceives {
		return nil
	}

	dt, err := s.comm.ReceiveFloat64()
	if err != nil {
		return transportError(op, err)
	}

	if dt == UndefinedTimestepLength {
		panic("received undefined timestep length")
	}

	s.log.WithFields(logrus.Fields{"dt": dt}).
		Debug("received timestep length")
	s.dt.SetTimestepLength(dt)

	return nil
}

func (s *Base) startSend(op string) error {
	s.mustBeConnected()

	if err := s.comm.StartSendPackage(); err != nil {
		return transportError(op, err)
	}

	return nil
}

func (s *Base) finishSend(op string) error {
	if err := s.comm.FinishSendPackage(); err != nil {
		return transportError(op, err)
	}

	return nil
}

func (s *Base) startReceive(op string) error {
	s.mustBeConnected()

	if err := s.comm.StartReceivePackage(); err != nil {
		return transportError(op, err)
	}

	return nil
}

func (s *Base) finishReceive(op string) error {
	if err := s.comm.FinishReceivePackage(); err != nil {
		return transportError(op, err)
	}

	return nil
}

// sendDataPackage sends the send data as one package.
func (s *Base) sendDataPackage(op string) error {
	return s.sendDtAndData(op, UndefinedTimestepLength, false)
}

// sendDtAndData sends one package holding the timestep length, if the local
// participant sets it and withDt is set, followed by the send data.
func (s *Base) sendDtAndData(op string, dt float64, withDt bool) error {
	if err := s.startSend(op); err != nil {
		return err
	}

	if withDt {
		if err := s.sendDt(op, dt); err != nil {
			return err
		}
	}

	if _, err := s.sendAll(op); err != nil {
		return err
	}

	return s.finishSend(op)
}

// receiveDataPackage receives the receive data as one package.
func (s *Base) receiveDataPackage(op string) error {
	if err := s.startReceive(op); err != nil {
		return err
	}

	if _, err := s.receiveAll(op); err != nil {
		return err
	}

	return s.finishReceive(op)
}

// receiveDtAndData receives one package holding the timestep length, if the
// local participant receives it, followed by the receive data.
func (s *Base) receiveDtAndData(op string) error {
	if err := s.startReceive(op); err != nil {
		return err
	}

	if err := s.receiveAndSetDt(op); err != nil {
		return err
	}

	if _, err := s.receiveAll(op); err != nil {
		return err
	}

	return s.finishReceive(op)
}

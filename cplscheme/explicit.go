package cplscheme

// SerialExplicit exchanges data once per timestep. The first participant
// computes a timestep first and sends its data; the second participant then
// computes the same timestep with that data and sends its results back.
type SerialExplicit struct {
	*Base
}

// Advance exchanges data if the current timestep has been computed
// completely.
func (s *SerialExplicit) Advance() error {
	const op = "advance()"

	if err := s.beginAdvance(); err != nil {
		return err
	}

	if !s.dt.IsTimestepComplete() {
		return nil
	}

	computed := s.ComputedTimestepPart()
	s.timestepCompleted()

	if s.doesFirstStep {
		if err := s.sendDtAndData(op, computed, true); err != nil {
			return err
		}

		if s.IsCouplingOngoing() {
			if err := s.receiveDataPackage(op); err != nil {
				return err
			}
		}

		s.hasDataBeenExchanged = true

		return nil
	}

	if !s.IsCouplingOngoing() {
		return nil
	}

	if err := s.sendDataPackage(op); err != nil {
		return err
	}

	if err := s.receiveDtAndData(op); err != nil {
		return err
	}

	s.hasDataBeenExchanged = true

	return nil
}

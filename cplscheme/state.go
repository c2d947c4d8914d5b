package cplscheme

import (
	"github.com/ArminHamedi/precice/com"
)

// State is the part of a scheme that is written to a checkpoint and read back
// on restart.
type State struct {
	Time                       float64
	Timesteps                  int
	ComputedTimestepPart       float64
	TimestepLength             float64
	CheckpointTimestepInterval int
	IsInitialized              bool
	IsCouplingTimestepComplete bool
	HasDataBeenExchanged       bool
	Actions                    []Action
	MaxIterations              int
	Iterations                 int
	TotalIterations            int
}

// Send writes the state as one package. The field order is fixed and must
// match Receive.
func (st State) Send(comm com.Communication) error {
	const op = "sendState()"

	if comm == nil || !comm.IsConnected() {
		panic("state needs a connected communication")
	}

	w := stateWriter{comm: comm}

	w.do(comm.StartSendPackage)
	w.writeFloat(st.Time)
	w.writeInt(st.Timesteps)
	w.writeFloat(st.ComputedTimestepPart)
	w.writeFloat(st.TimestepLength)
	w.writeInt(st.CheckpointTimestepInterval)
	w.writeBool(st.IsInitialized)
	w.writeBool(st.IsCouplingTimestepComplete)
	w.writeBool(st.HasDataBeenExchanged)
	w.writeInt(len(st.Actions))

	for _, a := range st.Actions {
		w.writeString(a.String())
	}

	w.writeInt(st.MaxIterations)
	w.writeInt(st.Iterations)
	w.writeInt(st.TotalIterations)
	w.do(comm.FinishSendPackage)

	if w.err != nil {
		return transportError(op, w.err)
	}

	return nil
}

// ReceiveState reads a state written by State.Send.
func ReceiveState(comm com.Communication) (State, error) {
	const op = "receiveState()"

	if comm == nil || !comm.IsConnected() {
		panic("state needs a connected communication")
	}

	var st State

	r := stateReader{comm: comm}

	r.do(comm.StartReceivePackage)
	st.Time = r.readFloat()
	st.Timesteps = r.readInt()
	st.ComputedTimestepPart = r.readFloat()
	st.TimestepLength = r.readFloat()
	st.CheckpointTimestepInterval = r.readInt()
	st.IsInitialized = r.readBool()
	st.IsCouplingTimestepComplete = r.readBool()
	st.HasDataBeenExchanged = r.readBool()

	// Invalid content is reported after the rest of the package has been
	// read, so that the package is closed properly.
	var invalid error

	n := r.readInt()
	if r.err == nil && n < 0 {
		invalid = newError(op, KindProtocol, V{"actions": n},
			"negative number of actions")
	}

	for i := 0; i < n && r.err == nil; i++ {
		token := r.readString()
		if r.err != nil || invalid != nil {
			continue
		}

		a, err := ParseAction(token)
		if err != nil {
			invalid = err
			continue
		}

		st.Actions = append(st.Actions, a)
	}

	st.MaxIterations = r.readInt()
	st.Iterations = r.readInt()
	st.TotalIterations = r.readInt()
	r.do(comm.FinishReceivePackage)

	if r.err != nil {
		return State{}, transportError(op, r.err)
	}

	if invalid != nil {
		return State{}, invalid
	}

	return st, nil
}

// State captures the current state of the scheme.
func (s *Base) State() State {
	return State{
		Time:                       s.dt.time,
		Timesteps:                  s.dt.timesteps,
		ComputedTimestepPart:       s.dt.computedPart,
		TimestepLength:             s.dt.length,
		CheckpointTimestepInterval: s.checkpointTimestepInterval,
		IsInitialized:              s.isInitialized,
		IsCouplingTimestepComplete: s.isCouplingTimestepComplete,
		HasDataBeenExchanged:       s.hasDataBeenExchanged,
		Actions:                    s.action.Actions(),
		MaxIterations:              s.maxIterations,
		Iterations:                 s.iterations,
		TotalIterations:            s.totalIterations,
	}
}

// SetState replaces the state of the scheme. If the state belongs to an
// initialized scheme and this scheme has not been initialized yet, the
// convergence measures and the history are prepared as Initialize does, so
// that the scheme can advance right away. The history starts empty.
func (s *Base) SetState(st State) error {
	if st.IsInitialized && !s.prepared {
		if err := s.prepare("setState()"); err != nil {
			return err
		}

		s.firstTimestep = st.Timesteps
	}

	s.dt.time = st.Time
	s.dt.timesteps = st.Timesteps
	s.dt.computedPart = st.ComputedTimestepPart
	s.dt.length = st.TimestepLength
	s.checkpointTimestepInterval = st.CheckpointTimestepInterval
	s.isInitialized = st.IsInitialized
	s.isCouplingTimestepComplete = st.IsCouplingTimestepComplete
	s.hasDataBeenExchanged = st.HasDataBeenExchanged
	s.maxIterations = st.MaxIterations
	s.iterations = st.Iterations
	s.totalIterations = st.TotalIterations

	s.action.Reset()
	for _, a := range st.Actions {
		s.action.Require(a)
	}

	return nil
}

// SendState writes the state of the scheme to the communication.
func (s *Base) SendState(comm com.Communication) error {
	return s.State().Send(comm)
}

// ReceiveState replaces the state of the scheme with one read from the
// communication.
func (s *Base) ReceiveState(comm com.Communication) error {
	st, err := ReceiveState(comm)
	if err != nil {
		return err
	}

	return s.SetState(st)
}

type stateWriter struct {
	comm com.Communication
	err  error
}

func (w *stateWriter) do(f func() error) {
	if w.err == nil {
		w.err = f()
	}
}

func (w *stateWriter) writeFloat(v float64) {
	w.do(func() error { return w.comm.SendFloat64(v) })
}

func (w *stateWriter) writeInt(v int) {
	w.do(func() error { return w.comm.SendInt(v) })
}

func (w *stateWriter) writeBool(v bool) {
	w.do(func() error { return w.comm.SendBool(v) })
}

func (w *stateWriter) writeString(v string) {
	w.do(func() error { return w.comm.SendString(v) })
}

type stateReader struct {
	comm com.Communication
	err  error
}

func (r *stateReader) do(f func() error) {
	if r.err == nil {
		r.err = f()
	}
}

func (r *stateReader) readFloat() float64 {
	var v float64

	r.do(func() (err error) {
		v, err = r.comm.ReceiveFloat64()
		return err
	})

	return v
}

func (r *stateReader) readInt() int {
	var v int

	r.do(func() (err error) {
		v, err = r.comm.ReceiveInt()
		return err
	})

	return v
}

func (r *stateReader) readBool() bool {
	var v bool

	r.do(func() (err error) {
		v, err = r.comm.ReceiveBool()
		return err
	})

	return v
}

func (r *stateReader) readString() string {
	var v string

	r.do(func() (err error) {
		v, err = r.comm.ReceiveString()
		return err
	})

	return v
}

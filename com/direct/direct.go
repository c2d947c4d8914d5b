// Package direct provides an in-process Communication that connects two
// participants running in the same process.
package direct

import (
	"fmt"
	"sync"

	"github.com/ArminHamedi/precice/com"
)

type packageStart struct{}

type packageEnd struct{}

// link is shared by the two ends of a connection.
type link struct {
	name string
	once sync.Once
	done chan struct{}
}

func (l *link) close() {
	l.once.Do(func() { close(l.done) })
}

// An Endpoint is one side of a direct connection.
type Endpoint struct {
	link *link
	name string
	in   <-chan any
	out  chan<- any

	inSendPackage    bool
	inReceivePackage bool
}

// Name returns the name of the endpoint.
func (e *Endpoint) Name() string {
	return e.name
}

// IsConnected tells if neither side has closed the connection.
func (e *Endpoint) IsConnected() bool {
	select {
	case <-e.link.done:
		return false
	default:
		return true
	}
}

// StartSendPackage opens an outgoing package.
func (e *Endpoint) StartSendPackage() error {
	if e.inSendPackage {
		return fmt.Errorf("%w: %s already has an open send package",
			com.ErrFraming, e.name)
	}

	e.inSendPackage = true

	return e.push(packageStart{})
}

// FinishSendPackage closes the outgoing package.
func (e *Endpoint) FinishSendPackage() error {
	if !e.inSendPackage {
		return fmt.Errorf("%w: %s has no open send package",
			com.ErrFraming, e.name)
	}

	e.inSendPackage = false

	return e.push(packageEnd{})
}

// StartReceivePackage waits for the peer to open a package.
func (e *Endpoint) StartReceivePackage() error {
	if e.inReceivePackage {
		return fmt.Errorf("%w: %s already has an open receive package",
			com.ErrFraming, e.name)
	}

	item, err := e.pop()
	if err != nil {
		return err
	}

	if _, ok := item.(packageStart); !ok {
		return framingError(e.name, "package start", item)
	}

	e.inReceivePackage = true

	return nil
}

// FinishReceivePackage consumes the end marker of the current package.
func (e *Endpoint) FinishReceivePackage() error {
	if !e.inReceivePackage {
		return fmt.Errorf("%w: %s has no open receive package",
			com.ErrFraming, e.name)
	}

	item, err := e.pop()
	if err != nil {
		return err
	}

	if _, ok := item.(packageEnd); !ok {
		return framingError(e.name, "package end", item)
	}

	e.inReceivePackage = false

	return nil
}

// SendFloat64 sends a scalar.
func (e *Endpoint) SendFloat64(v float64) error {
	return e.push(v)
}

// SendInt sends an integer.
func (e *Endpoint) SendInt(v int) error {
	return e.push(v)
}

// SendBool sends a boolean.
func (e *Endpoint) SendBool(v bool) error {
	return e.push(v)
}

// SendString sends a string.
func (e *Endpoint) SendString(v string) error {
	return e.push(v)
}

// SendFloat64s sends a copy of the buffer, so that the caller may keep
// mutating it.
func (e *Endpoint) SendFloat64s(values []float64) error {
	buf := make([]float64, len(values))
	copy(buf, values)

	return e.push(buf)
}

// ReceiveFloat64 receives a scalar.
func (e *Endpoint) ReceiveFloat64() (float64, error) {
	return receiveAs[float64](e, "float64")
}

// ReceiveInt receives an integer.
func (e *Endpoint) ReceiveInt() (int, error) {
	return receiveAs[int](e, "int")
}

// ReceiveBool receives a boolean.
func (e *Endpoint) ReceiveBool() (bool, error) {
	return receiveAs[bool](e, "bool")
}

// ReceiveString receives a string.
func (e *Endpoint) ReceiveString() (string, error) {
	return receiveAs[string](e, "string")
}

// ReceiveFloat64s receives a buffer into dst. The sent buffer must have
// exactly len(dst) values.
func (e *Endpoint) ReceiveFloat64s(dst []float64) error {
	buf, err := receiveAs[[]float64](e, "[]float64")
	if err != nil {
		return err
	}

	if len(buf) != len(dst) {
		return fmt.Errorf("%w: %s expected %d values, got %d",
			com.ErrFraming, e.name, len(dst), len(buf))
	}

	copy(dst, buf)

	return nil
}

// Close closes the connection for both sides.
func (e *Endpoint) Close() error {
	e.link.close()
	return nil
}

func (e *Endpoint) push(item any) error {
	select {
	case <-e.link.done:
		return com.ErrClosed
	default:
	}

	select {
	case e.out <- item:
		return nil
	case <-e.link.done:
		return com.ErrClosed
	}
}

func (e *Endpoint) pop() (any, error) {
	// Drain what the peer queued before it closed.
	select {
	case item := <-e.in:
		return item, nil
	default:
	}

	select {
	case item := <-e.in:
		return item, nil
	case <-e.link.done:
		return nil, com.ErrClosed
	}
}

func receiveAs[T any](e *Endpoint, what string) (T, error) {
	var zero T

	item, err := e.pop()
	if err != nil {
		return zero, err
	}

	v, ok := item.(T)
	if !ok {
		return zero, framingError(e.name, what, item)
	}

	return v, nil
}

func framingError(name, want string, got any) error {
	return fmt.Errorf("%w: %s expected %s, got %T", com.ErrFraming, name, want, got)
}

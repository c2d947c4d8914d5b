// Package com defines the point-to-point channel that carries coupling data
// between the two participants.
package com

import "errors"

// ErrClosed is returned when an endpoint is used after it was closed, or after
// the peer closed it.
var ErrClosed = errors.New("com: communication closed")

// ErrFraming is returned when the received stream does not match the expected
// package layout, for example a missing end marker or a value of the wrong
// type. It usually means the two participants issued their sends and receives
// in different orders.
var ErrFraming = errors.New("com: package framing violated")

// A Communication is a connected channel to exactly one peer participant.
//
// All Send and Receive calls block until the peer completes the matching
// operation (or, for buffered implementations, until the value is queued).
// Values must be received in the order they were sent. Packages group a
// sequence of values so that transports can detect partial packages.
type Communication interface {
	// IsConnected tells if the channel can be used.
	IsConnected() bool

	StartSendPackage() error
	FinishSendPackage() error
	StartReceivePackage() error
	FinishReceivePackage() error

	SendFloat64(v float64) error
	SendInt(v int) error
	SendBool(v bool) error
	SendString(v string) error

	// SendFloat64s sends a raw numeric buffer. The receiver must know the
	// length in advance.
	SendFloat64s(values []float64) error

	ReceiveFloat64() (float64, error)
	ReceiveInt() (int, error)
	ReceiveBool() (bool, error)
	ReceiveString() (string, error)

	// ReceiveFloat64s fills dst with exactly len(dst) values.
	ReceiveFloat64s(dst []float64) error

	// Close releases the channel. Further use returns ErrClosed.
	Close() error
}

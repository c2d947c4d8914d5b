package cplscheme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies why a coupling operation failed.
type ErrorKind int

// The kinds of errors a coupling scheme reports.
const (
	// KindConfig marks invalid construction or registration parameters.
	KindConfig ErrorKind = iota + 1
	// KindUsage marks lifecycle methods called out of order.
	KindUsage
	// KindProtocol marks violated coupling obligations, such as unfulfilled
	// actions.
	KindProtocol
	// KindTransport marks a failed send or receive.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindUsage:
		return "usage"
	case KindProtocol:
		return "protocol"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by all coupling scheme operations. Op names the failing
// operation and Values holds the values that violated the contract, so that
// callers can inspect the cause without parsing the message.
type Error struct {
	Op     string
	Kind   ErrorKind
	Msg    string
	Values map[string]any
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Msg)

	if len(e.Values) > 0 {
		keys := make([]string, 0, len(e.Values))
		for k := range e.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Values[k])
		}
		sb.WriteString("]")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind tells if err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// V is a shorthand for building Error values.
type V map[string]any

func newError(op string, kind ErrorKind, values V, format string, args ...any) *Error {
	return &Error{
		Op:     op,
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
		Values: values,
	}
}

func transportError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindTransport,
		Msg:  "communication failed",
		Err:  err,
	}
}

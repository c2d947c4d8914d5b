// Package stream implements a Communication over a byte stream, such as a TCP
// connection or an in-memory buffer. Values are encoded with SCALE and prefixed
// with a one-byte tag, so that a receiver that reads a value of the wrong type
// fails instead of silently misinterpreting the bytes.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/spacemeshos/go-scale"

	"github.com/ArminHamedi/precice/com"
)

const maxStringLength = 1 << 16

type tag byte

const (
	tagPackageStart tag = 0xB0
	tagPackageEnd   tag = 0xE0
	tagFloat64      tag = 0x01
	tagInt          tag = 0x02
	tagBool         tag = 0x03
	tagString       tag = 0x04
	tagFloat64s     tag = 0x05
)

var tagNames = map[tag]string{
	tagPackageStart: "package start",
	tagPackageEnd:   "package end",
	tagFloat64:      "float64",
	tagInt:          "int",
	tagBool:         "bool",
	tagString:       "string",
	tagFloat64s:     "[]float64",
}

func (t tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}

	return fmt.Sprintf("unknown tag 0x%02x", byte(t))
}

// Comm is a Communication over a byte stream.
type Comm struct {
	lock   sync.Mutex
	rw     io.ReadWriter
	writer *bufio.Writer
	enc    *scale.Encoder
	dec    *scale.Decoder
	closed bool

	inSendPackage    bool
	inReceivePackage bool
}

// New wraps a byte stream. If rw is also an io.Closer, Close closes it.
func New(rw io.ReadWriter) *Comm {
	w := bufio.NewWriter(rw)

	return &Comm{
		rw:     rw,
		writer: w,
		enc:    scale.NewEncoder(w),
		dec:    scale.NewDecoder(bufio.NewReader(rw)),
	}
}

// IsConnected tells if the stream has not been closed.
func (c *Comm) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return !c.closed
}

// StartSendPackage writes the package start marker. Values of the package are
// buffered until FinishSendPackage.
func (c *Comm) StartSendPackage() error {
	if c.inSendPackage {
		return fmt.Errorf("%w: send package already open", com.ErrFraming)
	}

	if err := c.writeTag(tagPackageStart); err != nil {
		return err
	}

	c.inSendPackage = true

	return nil
}

// FinishSendPackage writes the package end marker and flushes the package.
func (c *Comm) FinishSendPackage() error {
	if !c.inSendPackage {
		return fmt.Errorf("%w: no send package open", com.ErrFraming)
	}

	c.inSendPackage = false

	if err := c.writeTag(tagPackageEnd); err != nil {
		return err
	}

	return c.flush()
}

// StartReceivePackage reads the package start marker.
func (c *Comm) StartReceivePackage() error {
	if c.inReceivePackage {
		return fmt.Errorf("%w: receive package already open", com.ErrFraming)
	}

	if err := c.expectTag(tagPackageStart); err != nil {
		return err
	}

	c.inReceivePackage = true

	return nil
}

// FinishReceivePackage reads the package end marker.
func (c *Comm) FinishReceivePackage() error {
	if !c.inReceivePackage {
		return fmt.Errorf("%w: no receive package open", com.ErrFraming)
	}

	c.inReceivePackage = false

	return c.expectTag(tagPackageEnd)
}

// SendFloat64 sends a scalar.
func (c *Comm) SendFloat64(v float64) error {
	return c.send(tagFloat64, func() error {
		_, err := scale.EncodeCompact64(c.enc, math.Float64bits(v))
		return err
	})
}

// SendInt sends an integer. Negative values round-trip.
func (c *Comm) SendInt(v int) error {
	return c.send(tagInt, func() error {
		_, err := scale.EncodeCompact64(c.enc, uint64(int64(v)))
		return err
	})
}

// SendBool sends a boolean.
func (c *Comm) SendBool(v bool) error {
	return c.send(tagBool, func() error {
		b := byte(0)
		if v {
			b = 1
		}

		_, err := scale.EncodeByte(c.enc, b)

		return err
	})
}

// SendString sends a string of at most 64 KiB.
func (c *Comm) SendString(v string) error {
	if len(v) > maxStringLength {
		return fmt.Errorf("stream: string of %d bytes exceeds limit %d",
			len(v), maxStringLength)
	}

	return c.send(tagString, func() error {
		_, err := scale.EncodeByteSliceWithLimit(c.enc, []byte(v), maxStringLength)
		return err
	})
}

// SendFloat64s sends a buffer prefixed with its length, so that the receiver
// can verify it against the length it expects.
func (c *Comm) SendFloat64s(values []float64) error {
	return c.send(tagFloat64s, func() error {
		if _, err := scale.EncodeCompact32(c.enc, uint32(len(values))); err != nil {
			return err
		}

		for _, v := range values {
			if _, err := scale.EncodeCompact64(c.enc, math.Float64bits(v)); err != nil {
				return err
			}
		}

		return nil
	})
}

// ReceiveFloat64 receives a scalar.
func (c *Comm) ReceiveFloat64() (float64, error) {
	if err := c.expectTag(tagFloat64); err != nil {
		return 0, err
	}

	bits, _, err := scale.DecodeCompact64(c.dec)
	if err != nil {
		return 0, c.readError(err)
	}

	return math.Float64frombits(bits), nil
}

// ReceiveInt receives an integer.
func (c *Comm) ReceiveInt() (int, error) {
	if err := c.expectTag(tagInt); err != nil {
		return 0, err
	}

	v, _, err := scale.DecodeCompact64(c.dec)
	if err != nil {
		return 0, c.readError(err)
	}

	return int(int64(v)), nil
}

// ReceiveBool receives a boolean.
func (c *Comm) ReceiveBool() (bool, error) {
	if err := c.expectTag(tagBool); err != nil {
		return false, err
	}

	b, _, err := scale.DecodeByte(c.dec)
	if err != nil {
		return false, c.readError(err)
	}

	return b != 0, nil
}

// ReceiveString receives a string.
func (c *Comm) ReceiveString() (string, error) {
	if err := c.expectTag(tagString); err != nil {
		return "", err
	}

	raw, _, err := scale.DecodeByteSliceWithLimit(c.dec, maxStringLength)
	if err != nil {
		return "", c.readError(err)
	}

	return string(raw), nil
}

// ReceiveFloat64s receives a buffer of exactly len(dst) values into dst.
func (c *Comm) ReceiveFloat64s(dst []float64) error {
	if err := c.expectTag(tagFloat64s); err != nil {
		return err
	}

	n, _, err := scale.DecodeCompact32(c.dec)
	if err != nil {
		return c.readError(err)
	}

	if int(n) != len(dst) {
		return fmt.Errorf("%w: expected %d values, got %d",
			com.ErrFraming, len(dst), n)
	}

	for i := range dst {
		bits, _, err := scale.DecodeCompact64(c.dec)
		if err != nil {
			return c.readError(err)
		}

		dst[i] = math.Float64frombits(bits)
	}

	return nil
}

// Close flushes pending output and closes the underlying stream if it can be
// closed.
func (c *Comm) Close() error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil
	}
	c.closed = true
	c.lock.Unlock()

	flushErr := c.writer.Flush()

	if closer, ok := c.rw.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	return flushErr
}

func (c *Comm) send(t tag, encode func() error) error {
	if err := c.writeTag(t); err != nil {
		return err
	}

	if err := encode(); err != nil {
		return fmt.Errorf("stream: encode %s: %w", t, err)
	}

	// Values outside of a package are not held back.
	if !c.inSendPackage {
		return c.flush()
	}

	return nil
}

func (c *Comm) writeTag(t tag) error {
	if !c.IsConnected() {
		return com.ErrClosed
	}

	if _, err := scale.EncodeByte(c.enc, byte(t)); err != nil {
		return fmt.Errorf("stream: write %s: %w", t, err)
	}

	return nil
}

func (c *Comm) flush() error {
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("stream: flush: %w", err)
	}

	return nil
}

func (c *Comm) expectTag(want tag) error {
	if !c.IsConnected() {
		return com.ErrClosed
	}

	b, _, err := scale.DecodeByte(c.dec)
	if err != nil {
		return c.readError(err)
	}

	if got := tag(b); got != want {
		return fmt.Errorf("%w: expected %s, got %s", com.ErrFraming, want, got)
	}

	return nil
}

func (c *Comm) readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", com.ErrClosed, err)
	}

	return fmt.Errorf("stream: decode: %w", err)
}

// Package dbi frames controller traffic for SPI display panels that use a
// separate data/command (DC) select line.
//
// Three layers are provided:
//
//   - Pin and Conn are the minimal capabilities the framing needs. Any periph
//     gpio.PinOut and spi.Conn satisfies them, as do the TinyGo machine types
//     through thin adapters and the simulated backend in package dbitest.
//   - Exclusive owns the bus and its chip-select pin and brackets one logical
//     transaction with CS asserted.
//   - Interface classifies outgoing bytes as command or data by driving DC and
//     streams pixel data through a fixed scratch buffer.
package dbi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

// BufferSize is the size of the scratch buffer used to pack pixel data.
const BufferSize = 512

// Pin is a digital output line.
type Pin interface {
	Out(l gpio.Level) error
}

// Conn is a blocking, write-capable bus connection.
type Conn interface {
	Tx(w, r []byte) error
}

// ErrResourceUnavailable is returned when a bus or pin cannot be claimed.
var ErrResourceUnavailable = errors.New("dbi: resource unavailable")

// ErrTooManyPixels is returned by SendPixels when the sequence yields more
// pixels than requested. The requested pixels were all sent.
var ErrTooManyPixels = errors.New("dbi: pixel sequence longer than requested")

// TransferError reports a fault on the bus or on one of its control lines.
type TransferError struct {
	Op  string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("dbi: %s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Tx writes p as part of the enclosing transaction.
type Tx func(p []byte) error

// Exclusive is a bus with a single device whose chip-select is driven by a
// GPIO rather than by the bus controller.
type Exclusive struct {
	c  Conn
	cs Pin
}

// NewExclusive claims c and cs. The chip-select is released (driven high)
// before returning.
func NewExclusive(c Conn, cs Pin) (*Exclusive, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no bus connection", ErrResourceUnavailable)
	}
	if cs == nil {
		return nil, fmt.Errorf("%w: no chip-select pin", ErrResourceUnavailable)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("%w: chip-select: %v", ErrResourceUnavailable, err)
	}
	return &Exclusive{c: c, cs: cs}, nil
}

// Transaction asserts chip-select, runs body and releases chip-select, even
// when body fails. Every write made through tx happens with CS held low.
func (e *Exclusive) Transaction(body func(tx Tx) error) error {
	if err := e.assert(); err != nil {
		return err
	}
	return e.release(body(e.write))
}

// Write sends p as one transaction.
func (e *Exclusive) Write(p []byte) error {
	if err := e.assert(); err != nil {
		return err
	}
	return e.release(e.write(p))
}

func (e *Exclusive) assert() error {
	if err := e.cs.Out(gpio.Low); err != nil {
		return &TransferError{Op: "assert chip-select", Err: err}
	}
	return nil
}

// release deasserts chip-select and returns err, or the release failure if
// err is nil.
func (e *Exclusive) release(err error) error {
	if rerr := e.cs.Out(gpio.High); rerr != nil && err == nil {
		err = &TransferError{Op: "release chip-select", Err: rerr}
	}
	return err
}

func (e *Exclusive) write(p []byte) error {
	if err := e.c.Tx(p, nil); err != nil {
		return &TransferError{Op: "write", Err: err}
	}
	return nil
}

// Interface frames commands and data for a DC-select display controller.
// It owns the bus and the DC pin for its whole lifetime. Commands and pixel
// streams go through a fixed scratch buffer and do not allocate.
type Interface struct {
	bus *Exclusive
	dc  Pin
	buf [BufferSize]byte

	// Pixel stream state, driven by push.
	push  func(rgb565.Color) bool
	pos   int
	sent  int
	want  int
	extra bool
	werr  error
}

// New returns an Interface driving bus and dc.
func New(bus *Exclusive, dc Pin) *Interface {
	i := &Interface{bus: bus, dc: dc}
	i.push = i.pushPixel
	return i
}

// SendCommand sends the opcode with DC low followed by params with DC high,
// all within one chip-select transaction. Parameter blocks larger than
// BufferSize are written in BufferSize chunks.
func (i *Interface) SendCommand(op byte, params ...byte) error {
	if err := i.bus.assert(); err != nil {
		return err
	}
	return i.bus.release(i.command(op, params))
}

func (i *Interface) command(op byte, params []byte) error {
	if err := i.setDC(gpio.Low); err != nil {
		return err
	}
	i.buf[0] = op
	if err := i.bus.write(i.buf[:1]); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	if err := i.setDC(gpio.High); err != nil {
		return err
	}
	for len(params) > 0 {
		n := copy(i.buf[:], params)
		if err := i.bus.write(i.buf[:n]); err != nil {
			return err
		}
		params = params[n:]
	}
	return nil
}

// SendPixels streams up to n pixels from seq as data bytes. DC is driven high
// once and chip-select stays asserted until the stream ends.
//
// It returns the number of pixels written. When seq ends early the count is
// below n and the error is nil. When seq has more than n pixels, exactly n are
// written and ErrTooManyPixels is returned.
func (i *Interface) SendPixels(seq iter.Seq[rgb565.Color], n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	if err := i.bus.assert(); err != nil {
		return 0, err
	}
	i.pos, i.sent, i.want, i.extra, i.werr = 0, 0, n, false, nil
	err := i.setDC(gpio.High)
	if err == nil {
		seq(i.push)
		err = i.werr
	}
	if err == nil && i.pos > 0 {
		if err = i.bus.write(i.buf[:i.pos]); err == nil {
			i.sent += i.pos / 2
			i.pos = 0
		}
	}
	if err == nil && i.extra {
		err = ErrTooManyPixels
	}
	return i.sent, i.bus.release(err)
}

// pushPixel packs c into the scratch buffer and flushes it when full.
// It stops the sequence once n pixels are buffered or a write failed.
func (i *Interface) pushPixel(c rgb565.Color) bool {
	if i.werr != nil || i.extra {
		return false
	}
	if i.sent+i.pos/2 == i.want {
		i.extra = true
		return false
	}
	binary.BigEndian.PutUint16(i.buf[i.pos:], uint16(c))
	i.pos += 2
	if i.pos == len(i.buf) {
		if i.werr = i.bus.write(i.buf[:i.pos]); i.werr != nil {
			return false
		}
		i.sent += i.pos / 2
		i.pos = 0
	}
	return true
}

func (i *Interface) setDC(l gpio.Level) error {
	if err := i.dc.Out(l); err != nil {
		return &TransferError{Op: "set DC", Err: err}
	}
	return nil
}

// Package dbitest provides a simulated bus, pins and clock that record a
// timed trace of everything a display driver does on the wire.
package dbitest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Well-known pin names.
const (
	CS  = "CS"
	DC  = "DC"
	RST = "RST"
	BL  = "BL"
)

// Kind is the type of a recorded Event.
type Kind uint8

// Recorded event kinds.
const (
	PinOut Kind = iota
	Write
	Sleep
)

func (k Kind) String() string {
	switch k {
	case PinOut:
		return "PinOut"
	case Write:
		return "Write"
	case Sleep:
		return "Sleep"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is one entry of the trace.
type Event struct {
	Kind Kind
	At   time.Duration // virtual time since the bench was created

	// PinOut
	Pin   string
	Level gpio.Level

	// Write; DC and CS are the line levels while the bytes were clocked out.
	Data []byte
	DC   gpio.Level
	CS   gpio.Level

	// Sleep
	D time.Duration
}

// ErrInjected is the error returned by a write selected through FailWrite.
var ErrInjected = errors.New("dbitest: injected bus fault")

// Bench is a simulated SPI bus with GPIO lines and a virtual clock.
//
// Bench implements dbi.Conn; the handles returned by Pin implement dbi.Pin;
// Sleep advances the clock without blocking.
type Bench struct {
	mu        sync.Mutex
	now       time.Duration
	levels    map[string]gpio.Level
	events    []Event
	writes    int
	failWrite int
	failPin   map[string]error
}

// New returns a Bench with every line low and the clock at zero.
func New() *Bench {
	return &Bench{
		levels:  map[string]gpio.Level{},
		failPin: map[string]error{},
	}
}

// Pin returns a handle that drives the named line.
func (b *Bench) Pin(name string) *Pin {
	return &Pin{b: b, name: name}
}

// FailWrite makes the n-th write (1-based) return ErrInjected. Zero disables.
func (b *Bench) FailWrite(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrite = n
}

// FailPin makes every Out on the named line return err.
func (b *Bench) FailPin(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPin[name] = err
}

// Tx records w. Reads are not supported since the panel has no read-back path.
func (b *Bench) Tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(r) != 0 {
		return errors.New("dbitest: read not supported")
	}
	b.writes++
	if b.failWrite != 0 && b.writes == b.failWrite {
		return ErrInjected
	}
	b.events = append(b.events, Event{
		Kind: Write,
		At:   b.now,
		Data: append([]byte(nil), w...),
		DC:   b.levels[DC],
		CS:   b.levels[CS],
	})
	return nil
}

// Sleep advances the virtual clock by d.
func (b *Bench) Sleep(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Kind: Sleep, At: b.now, D: d})
	b.now += d
}

// Now returns the virtual time.
func (b *Bench) Now() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// Level returns the current level of the named line.
func (b *Bench) Level(name string) gpio.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[name]
}

// Events returns a copy of the trace.
func (b *Bench) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Reset clears the trace but keeps line levels and the clock.
func (b *Bench) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// Bytes returns every byte written, in order.
func (b *Bench) Bytes() []byte {
	var out []byte
	for _, e := range b.Events() {
		if e.Kind == Write {
			out = append(out, e.Data...)
		}
	}
	return out
}

func (b *Bench) out(name string, l gpio.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failPin[name]; err != nil {
		return err
	}
	b.levels[name] = l
	b.events = append(b.events, Event{Kind: PinOut, At: b.now, Pin: name, Level: l})
	return nil
}

// Pin is a simulated output line attached to a Bench.
type Pin struct {
	b    *Bench
	name string
}

// Out drives the line.
func (p *Pin) Out(l gpio.Level) error {
	return p.b.out(p.name, l)
}

func (p *Pin) String() string {
	return p.name
}

package dbitest

import (
	"bytes"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Segment is a run of consecutive bytes written with the same DC level.
type Segment struct {
	DC   gpio.Level
	Data []byte
}

// Transaction groups the writes made between CS going low and CS going high.
type Transaction struct {
	Start, End time.Duration
	Segments   []Segment
	// Writes counts the bus writes that made up the transaction.
	Writes int
	// DCToggles counts DC level changes while CS was asserted.
	DCToggles int
}

// Command returns the opcode and parameters when the transaction starts with
// a single command byte.
func (t Transaction) Command() (op byte, params []byte, ok bool) {
	if len(t.Segments) == 0 || t.Segments[0].DC != gpio.Low || len(t.Segments[0].Data) != 1 {
		return 0, nil, false
	}
	op = t.Segments[0].Data[0]
	for _, s := range t.Segments[1:] {
		if s.DC != gpio.High {
			return 0, nil, false
		}
		params = append(params, s.Data...)
	}
	return op, params, true
}

// IsData reports whether every byte of the transaction was sent with DC high.
func (t Transaction) IsData() bool {
	if len(t.Segments) == 0 {
		return false
	}
	for _, s := range t.Segments {
		if s.DC != gpio.High {
			return false
		}
	}
	return true
}

// Data returns the concatenation of all DC-high bytes.
func (t Transaction) Data() []byte {
	var out []byte
	for _, s := range t.Segments {
		if s.DC == gpio.High {
			out = append(out, s.Data...)
		}
	}
	return out
}

// Transactions decodes the trace into chip-select transactions. Writes made
// while CS was high are returned separately as stray writes.
func (b *Bench) Transactions() (txs []Transaction, stray []Event) {
	var cur *Transaction
	for _, e := range b.Events() {
		switch e.Kind {
		case PinOut:
			switch e.Pin {
			case CS:
				if e.Level == gpio.Low && cur == nil {
					cur = &Transaction{Start: e.At}
				} else if e.Level == gpio.High && cur != nil {
					cur.End = e.At
					txs = append(txs, *cur)
					cur = nil
				}
			case DC:
				if cur != nil && len(cur.Segments) > 0 && cur.Segments[len(cur.Segments)-1].DC != e.Level {
					cur.DCToggles++
				}
			}
		case Write:
			if cur == nil || e.CS != gpio.Low {
				stray = append(stray, e)
				continue
			}
			cur.Writes++
			if n := len(cur.Segments); n > 0 && cur.Segments[n-1].DC == e.DC {
				cur.Segments[n-1].Data = append(cur.Segments[n-1].Data, e.Data...)
			} else {
				cur.Segments = append(cur.Segments, Segment{DC: e.DC, Data: append([]byte(nil), e.Data...)})
			}
		}
	}
	return txs, stray
}

// Commands returns the opcodes of every command transaction, in order.
func (b *Bench) Commands() []byte {
	txs, _ := b.Transactions()
	var ops []byte
	for _, t := range txs {
		if op, _, ok := t.Command(); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// FirstWriteAfter returns the time of the first write recorded at or after
// virtual time at, and false when there is none.
func (b *Bench) FirstWriteAfter(at time.Duration) (time.Duration, bool) {
	for _, e := range b.Events() {
		if e.Kind == Write && e.At >= at {
			return e.At, true
		}
	}
	return 0, false
}

// Repeats reports whether data consists of exactly n copies of unit.
func Repeats(data, unit []byte, n int) bool {
	if len(unit) == 0 || len(data) != n*len(unit) {
		return false
	}
	for off := 0; off < len(data); off += len(unit) {
		if !bytes.Equal(data[off:off+len(unit)], unit) {
			return false
		}
	}
	return true
}

package ili9341_test

import (
	"bytes"
	"errors"
	"slices"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"periph.io/x/conn/v3/gpio"

	"periph.io/x/devices/v3/ili9341"
	"periph.io/x/devices/v3/ili9341/dbi"
	"periph.io/x/devices/v3/ili9341/dbi/dbitest"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

type bench struct {
	*dbitest.Bench
	dev *ili9341.Dev
}

// bringUp creates a device on a simulated bench with reset and backlight lines.
func bringUp(c *qt.C, opts ili9341.Opts) *bench {
	b := dbitest.New()
	bus, err := dbi.NewExclusive(b, b.Pin(dbitest.CS))
	c.Assert(err, qt.IsNil)
	opts.RST = b.Pin(dbitest.RST)
	opts.BL = b.Pin(dbitest.BL)
	opts.Sleep = b.Sleep
	dev, err := ili9341.New(dbi.New(bus, b.Pin(dbitest.DC)), &opts)
	c.Assert(err, qt.IsNil)
	c.Assert(dev.State(), qt.Equals, ili9341.Ready)
	return &bench{Bench: b, dev: dev}
}

func TestResetTiming(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)

	var low, high time.Duration
	var sawLow, sawHigh bool
	for _, e := range b.Events() {
		if e.Kind != dbitest.PinOut || e.Pin != dbitest.RST {
			continue
		}
		if e.Level == gpio.Low && !sawLow {
			low, sawLow = e.At, true
		}
		if e.Level == gpio.High && sawLow && !sawHigh {
			high, sawHigh = e.At, true
		}
	}
	c.Assert(sawLow, qt.IsTrue)
	c.Assert(sawHigh, qt.IsTrue)
	c.Assert(high-low >= 20*time.Millisecond, qt.IsTrue, qt.Commentf("reset pulse %v", high-low))

	// Nothing is written before the reset pulse, and the first command
	// arrives only after the settle delay.
	first, ok := b.FirstWriteAfter(0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(first-high >= 200*time.Millisecond, qt.IsTrue, qt.Commentf("settle %v", first-high))
}

func TestSoftwareResetWithoutResetLine(t *testing.T) {
	c := qt.New(t)
	b := dbitest.New()
	bus, err := dbi.NewExclusive(b, b.Pin(dbitest.CS))
	c.Assert(err, qt.IsNil)

	_, err = ili9341.New(dbi.New(bus, b.Pin(dbitest.DC)), &ili9341.Opts{Sleep: b.Sleep})
	c.Assert(err, qt.IsNil)

	cmds := b.Commands()
	c.Assert(cmds[0], qt.Equals, byte(ili9341.SWRESET))
	txs, _ := b.Transactions()
	c.Assert(txs[1].Start-txs[0].End >= ili9341.MinResetSettle, qt.IsTrue)
}

func TestInitCommandOrder(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)

	cmds := b.Commands()
	idx := func(op byte) int { return slices.Index(cmds, op) }
	c.Assert(idx(ili9341.PWCTR1) < idx(ili9341.COLMOD), qt.IsTrue)
	c.Assert(idx(ili9341.COLMOD) < idx(ili9341.MADCTL), qt.IsTrue)
	c.Assert(idx(ili9341.MADCTL) < idx(ili9341.SLPOUT), qt.IsTrue)
	c.Assert(idx(ili9341.SLPOUT) < idx(ili9341.DISPON), qt.IsTrue)
	c.Assert(cmds[len(cmds)-1], qt.Equals, byte(ili9341.DISPON))

	// The backlight comes on only after the display is on.
	c.Assert(b.Level(dbitest.BL), qt.Equals, gpio.High)
}

func TestFullFrameScenario(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)
	b.Reset()

	c.Assert(b.dev.SetPixels(0, 0, 319, 239, ili9341.Repeat(rgb565.Blue, 320*240)), qt.IsNil)

	txs, stray := b.Transactions()
	c.Assert(stray, qt.HasLen, 0)
	c.Assert(txs, qt.HasLen, 4)

	op, params, ok := txs[0].Command()
	c.Assert(ok, qt.IsTrue)
	c.Assert(op, qt.Equals, byte(ili9341.CASET))
	c.Assert(params, qt.DeepEquals, []byte{0x00, 0x00, 0x01, 0x3F})

	op, params, ok = txs[1].Command()
	c.Assert(ok, qt.IsTrue)
	c.Assert(op, qt.Equals, byte(ili9341.PASET))
	c.Assert(params, qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0xEF})

	op, _, ok = txs[2].Command()
	c.Assert(ok, qt.IsTrue)
	c.Assert(op, qt.Equals, byte(ili9341.RAMWR))

	px := txs[3]
	c.Assert(px.IsData(), qt.IsTrue)
	c.Assert(px.DCToggles, qt.Equals, 0)
	c.Assert(dbitest.Repeats(px.Data(), []byte{0x00, 0x1F}, 76800), qt.IsTrue)
	c.Assert(px.Writes, qt.Equals, 320*240*2/dbi.BufferSize)

	// Once the pixel stream starts, CS and DC stay put until CS is released.
	events := b.Events()
	start := slices.IndexFunc(events, func(e dbitest.Event) bool {
		return e.Kind == dbitest.Write && len(e.Data) == dbi.BufferSize
	})
	c.Assert(start >= 0, qt.IsTrue)
	for _, e := range events[start:] {
		switch e.Kind {
		case dbitest.Write:
			c.Assert(e.CS, qt.Equals, gpio.Low)
			c.Assert(e.DC, qt.Equals, gpio.High)
		case dbitest.PinOut:
			c.Assert(e.Pin, qt.Equals, dbitest.CS)
			c.Assert(e.Level, qt.Equals, gpio.High)
		}
	}
}

func TestWindowPrecedesEveryPixelWrite(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)

	c.Assert(b.dev.FillScreen(rgb565.Red), qt.IsNil)
	c.Assert(b.dev.SetPixels(10, 20, 19, 29, ili9341.Repeat(rgb565.Green, 100)), qt.IsNil)
	c.Assert(b.dev.SetPixels(0, 0, 0, 0, ili9341.Repeat(rgb565.White, 1)), qt.IsNil)

	txs, _ := b.Transactions()
	writes := 0
	for i, tx := range txs {
		op, _, ok := tx.Command()
		if !ok || op != ili9341.RAMWR {
			continue
		}
		writes++
		c.Assert(i >= 2, qt.IsTrue)
		prev, _, _ := txs[i-1].Command()
		prevprev, _, _ := txs[i-2].Command()
		c.Assert(prev, qt.Equals, byte(ili9341.PASET))
		c.Assert(prevprev, qt.Equals, byte(ili9341.CASET))
		c.Assert(txs[i+1].IsData(), qt.IsTrue)
	}
	c.Assert(writes, qt.Equals, 3)
}

func TestFillIsIdempotent(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)

	b.Reset()
	c.Assert(b.dev.Fill(b.dev.Bounds(), rgb565.Cyan), qt.IsNil)
	first := b.Bytes()

	b.Reset()
	c.Assert(b.dev.Fill(b.dev.Bounds(), rgb565.Cyan), qt.IsNil)
	second := b.Bytes()

	c.Assert(bytes.Equal(first, second), qt.IsTrue)
	c.Assert(len(first), qt.Equals, 11+320*240*2)
}

func TestMADCTLSentOnce(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.Opts{Orientation: ili9341.Landscape, ColorOrder: ili9341.BGR})
	c.Assert(b.dev.FillScreen(rgb565.Blue), qt.IsNil)
	c.Assert(b.dev.FillScreen(rgb565.Blue), qt.IsNil)

	txs, _ := b.Transactions()
	var seen [][]byte
	for _, tx := range txs {
		if op, params, ok := tx.Command(); ok && op == ili9341.MADCTL {
			seen = append(seen, params)
		}
	}
	c.Assert(seen, qt.DeepEquals, [][]byte{{ili9341.MADCTL_MV | ili9341.MADCTL_BGR}})
	c.Assert(b.dev.MADCTL(), qt.Equals, byte(0x28))
}

func TestSinglePixelFill(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)
	b.Reset()

	c.Assert(b.dev.SetPixels(319, 239, 319, 239, ili9341.Repeat(rgb565.Magenta, 1)), qt.IsNil)

	txs, _ := b.Transactions()
	c.Assert(txs, qt.HasLen, 4)
	_, cols, _ := txs[0].Command()
	_, rows, _ := txs[1].Command()
	c.Assert(cols, qt.DeepEquals, []byte{0x01, 0x3F, 0x01, 0x3F})
	c.Assert(rows, qt.DeepEquals, []byte{0x00, 0xEF, 0x00, 0xEF})
	c.Assert(txs[3].Data(), qt.DeepEquals, []byte{0xF8, 0x1F})

	x0, y0, x1, y1 := b.dev.Window()
	c.Assert([]int{x0, y0, x1, y1}, qt.DeepEquals, []int{319, 239, 319, 239})
}

func TestOutOfBoundsSendsNothing(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)
	b.Reset()

	err := b.dev.SetPixels(0, 0, 320, 239, ili9341.Repeat(rgb565.Blue, 321*240))
	c.Assert(err, qt.ErrorIs, ili9341.ErrWindowBounds)
	err = b.dev.SetWindow(0, 240, 0, 240)
	c.Assert(err, qt.ErrorIs, ili9341.ErrWindowBounds)
	c.Assert(b.Events(), qt.HasLen, 0)
}

func TestPixelCountMismatch(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)

	b.Reset()
	err := b.dev.SetPixels(0, 0, 9, 9, ili9341.Repeat(rgb565.Blue, 50))
	c.Assert(err, qt.ErrorIs, ili9341.ErrPixelUnderrun)
	txs, _ := b.Transactions()
	c.Assert(txs[len(txs)-1].Data(), qt.HasLen, 100)

	b.Reset()
	err = b.dev.SetPixels(0, 0, 9, 9, ili9341.Repeat(rgb565.Blue, 150))
	c.Assert(err, qt.ErrorIs, ili9341.ErrPixelOverrun)
	txs, _ = b.Transactions()
	c.Assert(txs[len(txs)-1].Data(), qt.HasLen, 200)

	// The device remains usable after a mismatch.
	c.Assert(b.dev.State(), qt.Equals, ili9341.Ready)
	c.Assert(b.dev.FillScreen(rgb565.Black), qt.IsNil)
}

func TestTransferFaultDuringInit(t *testing.T) {
	c := qt.New(t)
	b := dbitest.New()
	bus, err := dbi.NewExclusive(b, b.Pin(dbitest.CS))
	c.Assert(err, qt.IsNil)

	b.FailWrite(5)
	dev, err := ili9341.New(dbi.New(bus, b.Pin(dbitest.DC)), &ili9341.Opts{
		RST:   b.Pin(dbitest.RST),
		Sleep: b.Sleep,
	})
	c.Assert(dev, qt.IsNil)
	c.Assert(err, qt.ErrorIs, dbitest.ErrInjected)

	var te *dbi.TransferError
	c.Assert(errors.As(err, &te), qt.IsTrue)
	c.Assert(b.Level(dbitest.CS), qt.Equals, gpio.High)
}

func TestResetLineFault(t *testing.T) {
	c := qt.New(t)
	b := dbitest.New()
	bus, err := dbi.NewExclusive(b, b.Pin(dbitest.CS))
	c.Assert(err, qt.IsNil)

	b.FailPin(dbitest.RST, errors.New("pin claimed"))
	_, err = ili9341.New(dbi.New(bus, b.Pin(dbitest.DC)), &ili9341.Opts{
		RST:   b.Pin(dbitest.RST),
		Sleep: b.Sleep,
	})
	c.Assert(err, qt.ErrorMatches, "ili9341: failed to pull RST low: pin claimed")
	c.Assert(b.Bytes(), qt.HasLen, 0)
}

func TestNewRequiresInterface(t *testing.T) {
	c := qt.New(t)
	_, err := ili9341.New(nil, nil)
	c.Assert(err, qt.ErrorIs, ili9341.ErrResourceUnavailable)
}

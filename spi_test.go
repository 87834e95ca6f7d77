package ili9341_test

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"periph.io/x/devices/v3/ili9341"
	"periph.io/x/devices/v3/ili9341/dbi/dbitest"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

func noSleep(time.Duration) {}

func TestNewSPI(t *testing.T) {
	c := qt.New(t)
	rec := &spitest.Record{}
	dc := &gpiotest.Pin{N: "GPIO12"}
	cs := &gpiotest.Pin{N: "GPIO5"}
	rst := &gpiotest.Pin{N: "GPIO2"}

	dev, err := ili9341.NewSPI(rec, dc, cs, &ili9341.Opts{RST: rst, Sleep: noSleep})
	c.Assert(err, qt.IsNil)
	c.Assert(dev.String(), qt.Equals, "ili9341.Dev{240x320, portrait, RGB}")
	c.Assert(rst.L, qt.Equals, gpio.High)
	c.Assert(cs.L, qt.Equals, gpio.High)

	// Opcodes go out as single-byte writes; the first one follows the reset.
	c.Assert(len(rec.Ops) > 0, qt.IsTrue)
	c.Assert(rec.Ops[0].W, qt.DeepEquals, []byte{ili9341.PWCTRB})
	last := rec.Ops[len(rec.Ops)-1].W
	c.Assert(last, qt.DeepEquals, []byte{ili9341.DISPON})

	rec.Ops = nil
	c.Assert(dev.SetPixels(0, 0, 1, 0, ili9341.Repeat(rgb565.Red, 2)), qt.IsNil)
	c.Assert(rec.Ops[len(rec.Ops)-1].W, qt.DeepEquals, []byte{0xF8, 0x00, 0xF8, 0x00})
	c.Assert(dc.L, qt.Equals, gpio.High)
}

func TestNewSPIMissingPins(t *testing.T) {
	c := qt.New(t)
	rec := &spitest.Record{}
	pin := &gpiotest.Pin{N: "GPIO1"}

	_, err := ili9341.NewSPI(rec, nil, pin, nil)
	c.Assert(err, qt.ErrorIs, ili9341.ErrResourceUnavailable)
	_, err = ili9341.NewSPI(rec, pin, gpio.INVALID, nil)
	c.Assert(err, qt.ErrorIs, ili9341.ErrResourceUnavailable)
}

// busyPort is a port whose pins are already claimed by another driver.
type busyPort struct{}

func (busyPort) String() string                      { return "busy" }
func (busyPort) LimitSpeed(f physic.Frequency) error { return nil }
func (busyPort) Connect(physic.Frequency, spi.Mode, int) (spi.Conn, error) {
	return nil, errors.New("spi0: already open")
}

func TestNewSPIConnectFailure(t *testing.T) {
	c := qt.New(t)
	_, err := ili9341.NewSPI(busyPort{}, &gpiotest.Pin{N: "DC"}, &gpiotest.Pin{N: "CS"}, nil)
	c.Assert(err, qt.ErrorIs, ili9341.ErrResourceUnavailable)
	c.Assert(err, qt.ErrorMatches, `ili9341: dbi: resource unavailable: spi0: already open`)
}

func TestDefaultOptsOnBench(t *testing.T) {
	c := qt.New(t)
	b := bringUp(c, ili9341.DefaultOpts)
	c.Assert(b.dev.Bounds().Dx(), qt.Equals, 320)
	c.Assert(b.dev.Bounds().Dy(), qt.Equals, 240)
	c.Assert(b.Level(dbitest.CS), qt.Equals, gpio.High)
}

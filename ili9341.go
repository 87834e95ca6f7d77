package ili9341

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ili9341/dbi"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

// Native panel geometry.
const (
	NativeWidth  = 240
	NativeHeight = 320
)

// Minimum reset timings.
const (
	MinResetPulse  = 20 * time.Millisecond
	MinResetSettle = 200 * time.Millisecond
)

var (
	// ErrResourceUnavailable is returned when the bus or a control line
	// cannot be claimed.
	ErrResourceUnavailable = dbi.ErrResourceUnavailable
	// ErrNotReady is returned by drawing operations before initialization
	// completed or after Halt.
	ErrNotReady = errors.New("ili9341: controller not ready")
	// ErrWindowBounds is returned when a window falls outside the display.
	ErrWindowBounds = errors.New("ili9341: window outside display bounds")
	// ErrPixelUnderrun is returned when a pixel sequence ends before the
	// window is filled.
	ErrPixelUnderrun = errors.New("ili9341: pixel sequence shorter than window")
	// ErrPixelOverrun is returned when a pixel sequence is longer than the
	// window. The window itself was filled completely.
	ErrPixelOverrun = errors.New("ili9341: pixel sequence longer than window")
)

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Panel dimensions in the native portrait layout.
	W int // Width (default: 240, ≤240)
	H int // Height (default: 320, ≤320)

	Orientation Orientation
	Mirrored    bool       // Mirror along the column axis
	ColorOrder  ColorOrder // Order of the panel's color filter
	Invert      bool       // Display inversion, required by some IPS panels

	// SPI clock for NewSPI (default: 40MHz).
	Hz physic.Frequency

	// Optional control lines.
	RST dbi.Pin // Hardware reset; SWRESET is used when nil
	BL  dbi.Pin // Backlight enable, driven high once the display is on

	// Reset timings, clamped to MinResetPulse and MinResetSettle.
	ResetPulse  time.Duration
	ResetSettle time.Duration

	// Sleep implements every delay (default: time.Sleep).
	Sleep func(time.Duration)
}

// DefaultOpts matches the ESPlay Micro panel: landscape, BGR filter.
var DefaultOpts = Opts{
	W:           NativeWidth,
	H:           NativeHeight,
	Orientation: Landscape,
	ColorOrder:  BGR,
	Hz:          40 * physic.MegaHertz,
	ResetPulse:  MinResetPulse,
	ResetSettle: MinResetSettle,
}

// State is the controller bring-up state.
type State uint8

// Controller states, in bring-up order.
const (
	Uninitialized State = iota
	Resetting
	ConfiguringInterface
	Ready
	Halted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resetting:
		return "resetting"
	case ConfiguringInterface:
		return "configuring"
	case Ready:
		return "ready"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	di    *dbi.Interface
	rst   dbi.Pin
	bl    dbi.Pin
	sleep func(time.Duration)

	opts   Opts
	rect   image.Rectangle
	madctl byte

	// Last addressing window, inclusive.
	x0, y0, x1, y1 int

	state State
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The port is configured for Mode0, 8-bit transfers, with hardware
// chip-select disabled: cs is driven as a GPIO so that it stays asserted
// across the chunks of a pixel stream.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, dc, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("ili9341: %w: dc pin required", ErrResourceUnavailable)
	}
	if cs == nil || cs == gpio.INVALID {
		return nil, fmt.Errorf("ili9341: %w: cs pin required", ErrResourceUnavailable)
	}
	o, err := normalize(opts)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(o.Hz, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w: %v", ErrResourceUnavailable, err)
	}
	bus, err := dbi.NewExclusive(c, cs)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w", err)
	}
	if err := dc.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("ili9341: %w: dc: %v", ErrResourceUnavailable, err)
	}
	return New(dbi.New(bus, dc), &o)
}

// New creates a device on an already claimed display interface, resets it and
// runs the initialization sequence.
//
// opts can be nil to use DefaultOpts.
func New(di *dbi.Interface, opts *Opts) (*Dev, error) {
	if di == nil {
		return nil, fmt.Errorf("ili9341: %w: no display interface", ErrResourceUnavailable)
	}
	o, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	d := newDev(di, o)
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// newDev builds an uninitialized device from normalized options.
func newDev(di *dbi.Interface, o Opts) *Dev {
	w, h := o.W, o.H
	if o.Orientation.swapsAxes() {
		w, h = h, w
	}
	return &Dev{
		di:     di,
		rst:    o.RST,
		bl:     o.BL,
		sleep:  o.Sleep,
		opts:   o,
		rect:   image.Rect(0, 0, w, h),
		madctl: madctl(o.Orientation, o.Mirrored, o.ColorOrder),
		x1:     w - 1,
		y1:     h - 1,
	}
}

// normalize applies defaults to opts and validates the result.
func normalize(opts *Opts) (Opts, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.W == 0 {
		o.W = NativeWidth
	}
	if o.H == 0 {
		o.H = NativeHeight
	}
	if o.W < 0 || o.W > NativeWidth {
		return o, fmt.Errorf("ili9341: width must be between 1 and %d", NativeWidth)
	}
	if o.H < 0 || o.H > NativeHeight {
		return o, fmt.Errorf("ili9341: height must be between 1 and %d", NativeHeight)
	}
	if o.Orientation > LandscapeFlipped {
		return o, fmt.Errorf("ili9341: invalid orientation %v", o.Orientation)
	}
	if o.ColorOrder > BGR {
		return o, fmt.Errorf("ili9341: invalid color order %d", o.ColorOrder)
	}
	if o.Hz == 0 {
		o.Hz = DefaultOpts.Hz
	}
	o.ResetPulse = max(o.ResetPulse, MinResetPulse)
	o.ResetSettle = max(o.ResetSettle, MinResetSettle)
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o, nil
}

// init walks the bring-up state machine: reset, configuration, ready.
func (d *Dev) init() error {
	d.state = Resetting
	if err := d.reset(); err != nil {
		return err
	}

	d.state = ConfiguringInterface
	for _, s := range initSequence(&d.opts) {
		if err := d.di.SendCommand(s.op, s.params...); err != nil {
			return fmt.Errorf("ili9341: init command 0x%02X: %w", s.op, err)
		}
		if s.delay > 0 {
			d.sleep(s.delay)
		}
	}

	d.state = Ready
	return d.SetBacklight(true)
}

// reset pulses the reset line, or issues a software reset when no line is
// wired, then waits for the controller to settle.
func (d *Dev) reset() error {
	if d.rst == nil {
		if err := d.di.SendCommand(SWRESET); err != nil {
			return fmt.Errorf("ili9341: software reset: %w", err)
		}
		d.sleep(d.opts.ResetSettle)
		return nil
	}
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
	}
	d.sleep(d.opts.ResetPulse)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
	}
	d.sleep(d.opts.ResetSettle)
	return nil
}

// State returns the bring-up state.
func (d *Dev) State() State {
	return d.state
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the display bounds in the configured orientation.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// MADCTL returns the memory access control value sent during initialization.
func (d *Dev) MADCTL() byte {
	return d.madctl
}

// Window returns the current addressing window as inclusive corners.
func (d *Dev) Window() (x0, y0, x1, y1 int) {
	return d.x0, d.y0, d.x1, d.y1
}

// SetBacklight switches the backlight line, if one is wired.
func (d *Dev) SetBacklight(on bool) error {
	if d.bl == nil {
		return nil
	}
	if err := d.bl.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("ili9341: backlight: %w", err)
	}
	return nil
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, the device rejects drawing operations; there is no way
// back other than creating a new device.
//
// The display commands are sent even when the backlight cannot be switched
// off; the first error is returned. The device is halted once both commands
// went out, so a failed Halt can be retried.
func (d *Dev) Halt() error {
	if d.state == Halted {
		return nil
	}
	err := d.SetBacklight(false)
	if cerr := d.di.SendCommand(DISPOFF); cerr != nil {
		return cmp.Or(err, fmt.Errorf("ili9341: halt: %w", cerr))
	}
	if cerr := d.di.SendCommand(SLPIN); cerr != nil {
		return cmp.Or(err, fmt.Errorf("ili9341: halt: %w", cerr))
	}
	d.state = Halted
	d.sleep(5 * time.Millisecond)
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d, %s, %s}", d.rect.Dx(), d.rect.Dy(), d.opts.Orientation, d.opts.ColorOrder)
}

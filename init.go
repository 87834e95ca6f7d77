package ili9341

import (
	"fmt"
	"time"
)

// Orientation selects how the frame memory is scanned onto the glass.
type Orientation uint8

// Supported orientations. Portrait is the panel's native 240x320 layout.
const (
	Portrait Orientation = iota
	Landscape
	PortraitFlipped
	LandscapeFlipped
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	case PortraitFlipped:
		return "portrait-flipped"
	case LandscapeFlipped:
		return "landscape-flipped"
	default:
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
}

// ParseOrientation returns the orientation named s, as printed by String.
func ParseOrientation(s string) (Orientation, error) {
	for o := Portrait; o <= LandscapeFlipped; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("ili9341: unknown orientation %q", s)
}

// swapsAxes reports whether the orientation exchanges rows and columns.
func (o Orientation) swapsAxes() bool {
	return o == Landscape || o == LandscapeFlipped
}

// ColorOrder is the sub-pixel order of the panel's color filter.
type ColorOrder uint8

// Supported color orders.
const (
	RGB ColorOrder = iota
	BGR
)

func (c ColorOrder) String() string {
	if c == BGR {
		return "BGR"
	}
	return "RGB"
}

// madctl encodes the memory access control parameter.
func madctl(o Orientation, mirrored bool, order ColorOrder) byte {
	var v byte
	switch o {
	case Portrait:
		v = MADCTL_MX
	case Landscape:
		v = MADCTL_MV
	case PortraitFlipped:
		v = MADCTL_MY
	case LandscapeFlipped:
		v = MADCTL_MX | MADCTL_MY | MADCTL_MV
	}
	if mirrored {
		v ^= MADCTL_MX
	}
	if order == BGR {
		v |= MADCTL_BGR
	}
	return v
}

// initStep is one entry of the power-on command sequence.
type initStep struct {
	op     byte
	params []byte
	delay  time.Duration // wait after the command
}

// powerUp holds the panel power and timing configuration, replayed verbatim
// before pixel format and addressing mode are selected.
var powerUp = []initStep{
	{op: PWCTRB, params: []byte{0x00, 0xC1, 0x30}},
	{op: PWRSEQ, params: []byte{0x64, 0x03, 0x12, 0x81}},
	{op: DTCA, params: []byte{0x85, 0x00, 0x78}},
	{op: PWCTRA, params: []byte{0x39, 0x2C, 0x00, 0x34, 0x02}},
	{op: PUMPRC, params: []byte{0x20}},
	{op: DTCB, params: []byte{0x00, 0x00}},
	{op: PWCTR1, params: []byte{0x23}},       // VRH = 4.60 V
	{op: PWCTR2, params: []byte{0x10}},       // SAP, BT
	{op: VMCTR1, params: []byte{0x3E, 0x28}}, // VCOMH 4.25 V, VCOML -1.5 V
	{op: VMCTR2, params: []byte{0x86}},
}

// gamma holds the positive and negative gamma correction curves.
var gamma = []initStep{
	{op: GAMMA3, params: []byte{0x00}},
	{op: GAMMASET, params: []byte{0x01}},
	{op: GMCTRP1, params: []byte{0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1, 0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00}},
	{op: GMCTRN1, params: []byte{0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1, 0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F}},
}

// initSequence returns the full configuration sequence for opts, in the order
// it must be sent: power control, pixel format, memory access control, frame
// timing, gamma, inversion, sleep out and display on.
func initSequence(opts *Opts) []initStep {
	seq := make([]initStep, 0, len(powerUp)+len(gamma)+8)
	seq = append(seq, powerUp...)
	seq = append(seq,
		initStep{op: COLMOD, params: []byte{pixelFormat16}},
		initStep{op: MADCTL, params: []byte{madctl(opts.Orientation, opts.Mirrored, opts.ColorOrder)}},
		initStep{op: VSCRSADD, params: []byte{0x00}},
		initStep{op: FRMCTR1, params: []byte{0x00, 0x18}},       // 79 Hz
		initStep{op: DFUNCTR, params: []byte{0x08, 0x82, 0x27}}, // 320 lines
	)
	seq = append(seq, gamma...)
	inv := byte(INVOFF)
	if opts.Invert {
		inv = INVON
	}
	seq = append(seq,
		initStep{op: inv},
		// Sleep out needs 120 ms before the next command; display on needs a
		// few frames before the backlight is lit.
		initStep{op: SLPOUT, delay: 120 * time.Millisecond},
		initStep{op: DISPON, delay: 20 * time.Millisecond},
	)
	return seq
}

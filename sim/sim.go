// Package sim emulates the receiving side of an ILI9341 panel.
//
// A Panel watches the chip-select, data/command and reset lines and decodes
// the byte stream the way the controller does: it tracks the addressing
// window, the memory access control register and the pixel format, and lands
// RAMWR data into a frame memory. Timing is not modelled; use package dbitest
// for that.
package sim

import (
	"image"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ili9341"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

// Panel is a simulated ILI9341 controller and glass.
// It implements dbi.Conn; DC, CS, RST and BL return its control lines.
type Panel struct {
	mu sync.Mutex

	// BGRGlass is the color filter order of the simulated glass. Colors are
	// shown swapped when MADCTL does not match it.
	BGRGlass bool

	cs, dc, rst, bl gpio.Level

	cmd    byte
	params []byte
	pend   []byte

	madctl       byte
	madctlWrites int
	colmod       byte
	sleeping     bool
	on           bool
	inverted     bool

	x0, x1, y0, y1 int
	cx, cy         int

	mem      *rgb565.Image
	commands []byte
	pixels   int
	dropped  int
}

// New returns a panel in its power-on state.
func New() *Panel {
	p := &Panel{
		cs:  gpio.High,
		rst: gpio.High,
		mem: rgb565.NewImage(image.Rect(0, 0, ili9341.NativeWidth, ili9341.NativeHeight)),
	}
	p.resetRegisters()
	return p
}

func (p *Panel) resetRegisters() {
	p.cmd = ili9341.NOP
	p.params = p.params[:0]
	p.pend = p.pend[:0]
	p.madctl = 0
	p.colmod = 0x66
	p.sleeping = true
	p.on = false
	p.inverted = false
	p.x0, p.x1 = 0, ili9341.NativeWidth-1
	p.y0, p.y1 = 0, ili9341.NativeHeight-1
	p.cx, p.cy = 0, 0
}

// Tx consumes bytes written on the bus. Bytes are ignored while the panel is
// not selected or held in reset.
func (p *Panel) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cs != gpio.Low || p.rst != gpio.High {
		return nil
	}
	for _, b := range w {
		if p.dc == gpio.Low {
			p.command(b)
		} else {
			p.data(b)
		}
	}
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (p *Panel) command(op byte) {
	p.cmd = op
	p.params = p.params[:0]
	p.pend = p.pend[:0]
	p.commands = append(p.commands, op)
	switch op {
	case ili9341.SWRESET:
		p.resetRegisters()
	case ili9341.SLPIN:
		p.sleeping = true
	case ili9341.SLPOUT:
		p.sleeping = false
	case ili9341.DISPON:
		p.on = true
	case ili9341.DISPOFF:
		p.on = false
	case ili9341.INVON:
		p.inverted = true
	case ili9341.INVOFF:
		p.inverted = false
	case ili9341.RAMWR:
		p.cx, p.cy = p.x0, p.y0
	}
}

func (p *Panel) data(b byte) {
	switch p.cmd {
	case ili9341.RAMWR:
		p.pend = append(p.pend, b)
		if len(p.pend) == 2 {
			p.writePixel(rgb565.Color(uint16(p.pend[0])<<8 | uint16(p.pend[1])))
			p.pend = p.pend[:0]
		}
		return
	case ili9341.NOP:
		return
	}
	p.params = append(p.params, b)
	switch p.cmd {
	case ili9341.CASET:
		if len(p.params) == 4 {
			p.x0 = int(p.params[0])<<8 | int(p.params[1])
			p.x1 = int(p.params[2])<<8 | int(p.params[3])
		}
	case ili9341.PASET:
		if len(p.params) == 4 {
			p.y0 = int(p.params[0])<<8 | int(p.params[1])
			p.y1 = int(p.params[2])<<8 | int(p.params[3])
		}
	case ili9341.MADCTL:
		if len(p.params) == 1 {
			p.madctl = b
			p.madctlWrites++
		}
	case ili9341.COLMOD:
		if len(p.params) == 1 {
			p.colmod = b
		}
	}
}

// writePixel stores c at the cursor and advances it through the window,
// wrapping back to the window origin like the controller does.
func (p *Panel) writePixel(c rgb565.Color) {
	if p.colmod&0x0F != 0x05 {
		p.dropped++
		return
	}
	if mx, my, ok := p.toMemory(p.cx, p.cy); ok {
		p.mem.SetRGB565(mx, my, c)
		p.pixels++
	} else {
		p.dropped++
	}
	p.cx++
	if p.cx > p.x1 {
		p.cx = p.x0
		p.cy++
		if p.cy > p.y1 {
			p.cy = p.y0
		}
	}
}

// toMemory maps a column/page address to frame memory coordinates under the
// current MADCTL.
func (p *Panel) toMemory(col, page int) (x, y int, ok bool) {
	x, y = col, page
	if p.madctl&ili9341.MADCTL_MV != 0 {
		x, y = page, col
	}
	if p.madctl&ili9341.MADCTL_MX != 0 {
		x = ili9341.NativeWidth - 1 - x
	}
	if p.madctl&ili9341.MADCTL_MY != 0 {
		y = ili9341.NativeHeight - 1 - y
	}
	ok = x >= 0 && y >= 0 && x < ili9341.NativeWidth && y < ili9341.NativeHeight
	return x, y, ok
}

// View returns the frame as addressed by the host: rows and columns follow
// the current MADCTL, so a landscape configuration yields a 320x240 image.
// Colors are corrected for the glass color order and inversion.
func (p *Panel) View() *rgb565.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, h := ili9341.NativeWidth, ili9341.NativeHeight
	if p.madctl&ili9341.MADCTL_MV != 0 {
		w, h = h, w
	}
	img := rgb565.NewImage(image.Rect(0, 0, w, h))
	swap := (p.madctl&ili9341.MADCTL_BGR != 0) != p.BGRGlass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mx, my, _ := p.toMemory(x, y)
			c := p.mem.RGB565At(mx, my)
			if swap {
				c = c.Swap()
			}
			if p.inverted {
				c = ^c
			}
			img.SetRGB565(x, y, c)
		}
	}
	return img
}

// Memory returns the raw frame memory in native portrait layout.
func (p *Panel) Memory() *rgb565.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := rgb565.NewImage(p.mem.Rect)
	copy(img.Pix, p.mem.Pix)
	return img
}

// Status is a snapshot of the controller registers.
type Status struct {
	MADCTL       byte
	MADCTLWrites int
	COLMOD       byte
	Sleeping     bool
	DisplayOn    bool
	Inverted     bool
	Backlight    bool
	Window       image.Rectangle // inclusive corners stored as Min/Max
	Pixels       int             // pixels landed in frame memory
	Dropped      int             // pixel writes that could not land
}

// Status returns the current register snapshot.
func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		MADCTL:       p.madctl,
		MADCTLWrites: p.madctlWrites,
		COLMOD:       p.colmod,
		Sleeping:     p.sleeping,
		DisplayOn:    p.on,
		Inverted:     p.inverted,
		Backlight:    bool(p.bl),
		Window:       image.Rect(p.x0, p.y0, p.x1, p.y1),
		Pixels:       p.pixels,
		Dropped:      p.dropped,
	}
}

// Commands returns every opcode received, in order.
func (p *Panel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.commands...)
}

// Line is a control input of the panel.
type Line struct {
	p    *Panel
	name string
	l    *gpio.Level
}

// Out drives the line.
func (l *Line) Out(v gpio.Level) error {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.l == &l.p.rst && v == gpio.Low && *l.l == gpio.High {
		l.p.resetRegisters()
	}
	*l.l = v
	return nil
}

func (l *Line) String() string {
	return l.name
}

// CS returns the chip-select input.
func (p *Panel) CS() *Line { return &Line{p: p, name: "CS", l: &p.cs} }

// DC returns the data/command select input.
func (p *Panel) DC() *Line { return &Line{p: p, name: "DC", l: &p.dc} }

// RST returns the reset input.
func (p *Panel) RST() *Line { return &Line{p: p, name: "RST", l: &p.rst} }

// BL returns the backlight enable input.
func (p *Panel) BL() *Line { return &Line{p: p, name: "BL", l: &p.bl} }

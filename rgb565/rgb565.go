package rgb565

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Color is a 16-bit RGB565 color.
type Color uint16

// Common colors.
const (
	Black   Color = 0x0000
	White   Color = 0xFFFF
	Red     Color = 0xF800
	Green   Color = 0x07E0
	Blue    Color = 0x001F
	Cyan    Color = 0x07FF
	Magenta Color = 0xF81F
	Yellow  Color = 0xFFE0
)

// New packs 8-bit red, green and blue components into a Color, dropping the
// low bits of each channel.
func New(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Components returns the raw 5-bit red, 6-bit green and 5-bit blue fields.
func (c Color) Components() (r, g, b uint8) {
	return uint8(c>>11) & 0x1F, uint8(c>>5) & 0x3F, uint8(c) & 0x1F
}

// RGBA converts the color to 16-bit per channel RGBA.
// Channels are widened by bit replication so that full scale maps to 0xFFFF.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5, g6, b5 := c.Components()
	r8 := uint32(r5<<3 | r5>>2)
	g8 := uint32(g6<<2 | g6>>4)
	b8 := uint32(b5<<3 | b5>>2)
	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xFFFF
}

// Swap exchanges the red and blue fields, converting between RGB and BGR
// channel order.
func (c Color) Swap() Color {
	r, g, b := c.Components()
	return Color(uint16(b)<<11 | uint16(g)<<5 | uint16(r))
}

// Put writes the color into b[0:2] in wire order (most significant byte first).
func (c Color) Put(b []byte) {
	binary.BigEndian.PutUint16(b, uint16(c))
}

// String returns the color as a hexadecimal literal.
func (c Color) String() string {
	return fmt.Sprintf("0x%04X", uint16(c))
}

// Parse reads a color written as a 16-bit number, as produced by String.
// Decimal, 0x-prefixed hexadecimal and a leading '#' are accepted.
func Parse(s string) (Color, error) {
	if h, ok := strings.CutPrefix(s, "#"); ok {
		s = "0x" + h
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("rgb565: invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

func toRGB565(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return Color(uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(b>>11))
}

// Model converts colors to Color.
var Model = color.ModelFunc(toRGB565)

// Image is an RGB565 image whose pixels are stored in wire order, two bytes
// per pixel.
type Image struct {
	Pix    []byte          // Pixel data, big-endian RGB565
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates a new Image with the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the Color of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	i := p.PixOffset(x, y)
	return Color(binary.BigEndian.Uint16(p.Pix[i:]))
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(Color))
}

// SetRGB565 sets the Color of the pixel at (x, y) without conversion.
func (p *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	c.Put(p.Pix[p.PixOffset(x, y):])
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

package ili9341

import (
	"errors"
	"fmt"
	"image"
	"iter"

	"periph.io/x/devices/v3/ili9341/dbi"
	"periph.io/x/devices/v3/ili9341/rgb565"
)

// Repeat returns a sequence yielding c exactly n times.
func Repeat(c rgb565.Color, n int) iter.Seq[rgb565.Color] {
	return func(yield func(rgb565.Color) bool) {
		for range n {
			if !yield(c) {
				return
			}
		}
	}
}

// checkWindow validates inclusive window corners against the display bounds.
func (d *Dev) checkWindow(x0, y0, x1, y1 int) error {
	if x0 < 0 || y0 < 0 || x0 > x1 || y0 > y1 || x1 >= d.rect.Dx() || y1 >= d.rect.Dy() {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d) not within %dx%d", ErrWindowBounds, x0, y0, x1, y1, d.rect.Dx(), d.rect.Dy())
	}
	return nil
}

// SetWindow sets the addressing window to the inclusive rectangle
// (x0,y0)-(x1,y1). Pixel data written with a following RAMWR fills it
// row by row.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if d.state != Ready {
		return ErrNotReady
	}
	if err := d.checkWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	return d.setWindow(x0, y0, x1, y1)
}

func (d *Dev) setWindow(x0, y0, x1, y1 int) error {
	if err := d.di.SendCommand(CASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return fmt.Errorf("ili9341: set columns: %w", err)
	}
	if err := d.di.SendCommand(PASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return fmt.Errorf("ili9341: set pages: %w", err)
	}
	d.x0, d.y0, d.x1, d.y1 = x0, y0, x1, y1
	return nil
}

// SetPixels writes pixels into the inclusive rectangle (x0,y0)-(x1,y1).
//
// The window is validated before anything is sent. Exactly
// (x1-x0+1)*(y1-y0+1) pixels are streamed under one chip-select assertion.
// A shorter sequence returns ErrPixelUnderrun once it is exhausted; a longer
// one is cut at the window size and returns ErrPixelOverrun. In both cases
// the device stays usable.
func (d *Dev) SetPixels(x0, y0, x1, y1 int, pixels iter.Seq[rgb565.Color]) error {
	if d.state != Ready {
		return ErrNotReady
	}
	if err := d.checkWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	if err := d.setWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	if err := d.di.SendCommand(RAMWR); err != nil {
		return fmt.Errorf("ili9341: memory write: %w", err)
	}

	want := (x1 - x0 + 1) * (y1 - y0 + 1)
	sent, err := d.di.SendPixels(pixels, want)
	switch {
	case errors.Is(err, dbi.ErrTooManyPixels):
		return fmt.Errorf("%w: window holds %d pixels", ErrPixelOverrun, want)
	case err != nil:
		return fmt.Errorf("ili9341: pixel stream: %w", err)
	case sent < want:
		return fmt.Errorf("%w: got %d of %d pixels", ErrPixelUnderrun, sent, want)
	}
	return nil
}

// Fill paints r with a single color. r is in display coordinates with an
// exclusive maximum, as image.Rectangle.
func (d *Dev) Fill(r image.Rectangle, c rgb565.Color) error {
	if r.Empty() {
		return nil
	}
	return d.SetPixels(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, Repeat(c, r.Dx()*r.Dy()))
}

// FillScreen paints the whole display with a single color.
func (d *Dev) FillScreen(c rgb565.Color) error {
	return d.Fill(d.rect, c)
}

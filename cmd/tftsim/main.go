// tftsim runs the ILI9341 driver against a simulated panel and shows what the
// glass would display.
//
// The driver goes through its full bring-up and fill on an in-memory
// controller that decodes the command stream. With -headless the decoded
// registers and frame are summarized on stdout; otherwise the frame is shown
// in a window.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"time"

	"periph.io/x/devices/v3/ili9341"
	"periph.io/x/devices/v3/ili9341/dbi"
	"periph.io/x/devices/v3/ili9341/rgb565"
	"periph.io/x/devices/v3/ili9341/sim"
)

var (
	scale    = flag.Int("scale", 2, "Window scale factor")
	rotation = flag.String("rotation", "landscape", "portrait, landscape, portrait-flipped or landscape-flipped")
	bgr      = flag.Bool("bgr", true, "Configure the driver for a BGR color filter (the simulated glass is BGR)")
	fill     = flag.String("color", "0x001F", "RGB565 fill color")
	headless = flag.Bool("headless", false, "Print a summary instead of opening a window")
)

// bringUp attaches a driver to p and fills the screen with c.
func bringUp(p *sim.Panel, opts ili9341.Opts, c rgb565.Color) (*ili9341.Dev, error) {
	bus, err := dbi.NewExclusive(p, p.CS())
	if err != nil {
		return nil, err
	}
	opts.RST = p.RST()
	opts.BL = p.BL()
	// The panel decodes instantly.
	opts.Sleep = func(time.Duration) {}
	dev, err := ili9341.New(dbi.New(bus, p.DC()), &opts)
	if err != nil {
		return nil, err
	}
	return dev, dev.FillScreen(c)
}

// summarize writes the register state and a color histogram of the visible
// frame.
func summarize(w io.Writer, p *sim.Panel) {
	st := p.Status()
	fmt.Fprintf(w, "MADCTL 0x%02X (written %d times), COLMOD 0x%02X\n", st.MADCTL, st.MADCTLWrites, st.COLMOD)
	fmt.Fprintf(w, "sleeping=%t display=%t inverted=%t backlight=%t\n", st.Sleeping, st.DisplayOn, st.Inverted, st.Backlight)
	fmt.Fprintf(w, "window %v, %d pixels written, %d dropped\n", st.Window, st.Pixels, st.Dropped)

	view := p.View()
	hist := map[rgb565.Color]int{}
	r := view.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[view.RGB565At(x, y)]++
		}
	}
	fmt.Fprintf(w, "frame %dx%d\n", r.Dx(), r.Dy())
	for _, c := range slices.Sorted(maps.Keys(hist)) {
		fmt.Fprintf(w, "  %v: %d\n", c, hist[c])
	}
}

func main() {
	flag.Parse()

	o, err := ili9341.ParseOrientation(*rotation)
	if err != nil {
		log.Fatal(err)
	}
	c, err := rgb565.Parse(*fill)
	if err != nil {
		log.Fatal(err)
	}
	opts := ili9341.DefaultOpts
	opts.Orientation = o
	opts.ColorOrder = ili9341.RGB
	if *bgr {
		opts.ColorOrder = ili9341.BGR
	}

	p := sim.New()
	p.BGRGlass = true
	dev, err := bringUp(p, opts, c)
	if err != nil {
		log.Fatalf("Failed to drive panel: %v", err)
	}
	fmt.Printf("Display initialized: %v\n", dev)

	if *headless {
		summarize(os.Stdout, p)
		return
	}
	if err := runWindow(p, *scale); err != nil {
		log.Fatal(err)
	}
}

//go:build cgo

package main

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"periph.io/x/devices/v3/ili9341/sim"
)

// runWindow shows the panel's visible frame until the window is closed.
func runWindow(p *sim.Panel, scale int) error {
	r := p.View().Bounds()
	g := &panelGame{p: p}
	ebiten.SetWindowTitle("ILI9341 simulator")
	ebiten.SetWindowSize(r.Dx()*max(scale, 1), r.Dy()*max(scale, 1))
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type panelGame struct {
	p     *sim.Panel
	w, h  int
	img   *image.RGBA
	fbImg *ebiten.Image
}

func (g *panelGame) Update() error {
	return nil
}

func (g *panelGame) Draw(screen *ebiten.Image) {
	view := g.p.View()
	st := g.p.Status()
	r := view.Bounds()
	if g.img == nil || g.w != r.Dx() || g.h != r.Dy() {
		g.w, g.h = r.Dx(), r.Dy()
		g.img = image.NewRGBA(image.Rect(0, 0, g.w, g.h))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(g.w, g.h)
	}

	dst := g.img.Pix
	lit := st.Backlight && st.DisplayOn && !st.Sleeping
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			j := y*g.img.Stride + x*4
			if !lit {
				dst[j+0], dst[j+1], dst[j+2], dst[j+3] = 0, 0, 0, 0xFF
				continue
			}
			cr, cg, cb, _ := view.RGB565At(r.Min.X+x, r.Min.Y+y).RGBA()
			dst[j+0] = uint8(cr >> 8)
			dst[j+1] = uint8(cg >> 8)
			dst[j+2] = uint8(cb >> 8)
			dst[j+3] = 0xFF
		}
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *panelGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.w == 0 {
		r := g.p.View().Bounds()
		return r.Dx(), r.Dy()
	}
	return g.w, g.h
}

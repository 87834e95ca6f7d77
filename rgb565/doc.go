// Package rgb565 provides the 16-bit RGB565 color format used by the ILI9341
// display controller.
//
// Each pixel is a 16-bit value with 5 bits of red, 6 bits of green and 5 bits
// of blue. The controller expects the most significant byte first on the wire:
//
//	Color:  0x001F (pure blue)
//	Bits:   RRRRR GGGGGG BBBBB = 00000 000000 11111
//	Bytes:  0x00 0x1F
//
// This package provides:
//
// - Color: a color.Color holding one RGB565 value
// - Model: a color model converting standard Go colors to Color
// - Image: an image.Image storing pixels in wire order, ready to be streamed
//
// Example usage:
//
//	img := rgb565.NewImage(image.Rect(0, 0, 320, 240))
//	draw.Draw(img, img.Bounds(), image.NewUniform(rgb565.Blue), image.Point{}, draw.Src)
//	c := img.RGB565At(10, 20) // rgb565.Blue
package rgb565

// Package ili9341 controls an ILI9341 TFT display controller via SPI.
//
// The ILI9341 drives 240×320 color panels. This driver configures it for
// 16-bit RGB565 pixels and streams pixel data into rectangular addressing
// windows. The controller has no read-back path in this wiring: a wrong
// command produces a blank or corrupted screen, never an error.
//
// # Display Characteristics
//
// - 16-bit RGB565 color, sent most significant byte first
// - 240×320 native portrait layout, four orientations via MADCTL
// - RGB or BGR color filter order
// - Optional display inversion for IPS panels
//
// # Hardware Connection
//
// Connect the ILI9341 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → GPIO (not the SPI hardware chip select)
//	RESET       → Optional: GPIO for hardware reset
//	LED         → Optional: GPIO for the backlight
//
// CS is driven by the driver rather than the SPI controller so that it stays
// low for the whole pixel stream of a window, however many transfers that
// takes.
//
// # Basic Usage
//
//	host.Init()
//	spiBus, _ := spireg.Open("")
//	dev, _ := ili9341.NewSPI(spiBus, gpioreg.ByName("GPIO25"), gpioreg.ByName("GPIO8"), &ili9341.Opts{
//		Orientation: ili9341.Landscape,
//		ColorOrder:  ili9341.BGR,
//		RST:         gpioreg.ByName("GPIO24"),
//		BL:          gpioreg.ByName("GPIO18"),
//	})
//	defer dev.Halt()
//
//	dev.FillScreen(rgb565.Blue)
//
// On TinyGo, wrap the board's SPI peripheral in a dbi.Exclusive and call New
// directly; see examples/esplay.
//
// # Initialization
//
// NewSPI and New reset the controller (RESET low for at least 20ms, then a
// 200ms settle; SWRESET when no reset line is wired) and send a fixed table of
// power, pixel format, memory access, frame rate and gamma commands, ending
// with sleep-out (120ms) and display-on. The device is then Ready. There is no
// way back from Halt other than creating a new device.
//
// # Drawing
//
// SetPixels fills an inclusive window from an iter.Seq of colors. The window
// is checked before anything is sent; exactly as many pixels as the window
// holds are transmitted. A short sequence returns ErrPixelUnderrun and a long
// one ErrPixelOverrun:
//
//	dev.SetPixels(0, 0, 9, 9, ili9341.Repeat(rgb565.Red, 100))
//
// Fill and FillScreen paint a rectangle with a single color.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341

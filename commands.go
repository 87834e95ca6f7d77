package ili9341

// ILI9341 command opcodes (datasheet v1.11, section 8).
const (
	NOP      = 0x00
	SWRESET  = 0x01
	SLPIN    = 0x10
	SLPOUT   = 0x11
	INVOFF   = 0x20
	INVON    = 0x21
	GAMMASET = 0x26
	DISPOFF  = 0x28
	DISPON   = 0x29
	CASET    = 0x2A
	PASET    = 0x2B
	RAMWR    = 0x2C
	MADCTL   = 0x36
	VSCRSADD = 0x37
	COLMOD   = 0x3A
	FRMCTR1  = 0xB1
	DFUNCTR  = 0xB6
	PWCTR1   = 0xC0
	PWCTR2   = 0xC1
	VMCTR1   = 0xC5
	VMCTR2   = 0xC7
	PWCTRA   = 0xCB
	PWCTRB   = 0xCF
	GMCTRP1  = 0xE0
	GMCTRN1  = 0xE1
	DTCA     = 0xE8
	DTCB     = 0xEA
	PWRSEQ   = 0xED
	GAMMA3   = 0xF2
	PUMPRC   = 0xF7
)

// MADCTL parameter bits.
const (
	MADCTL_MY  = 0x80 // row address order
	MADCTL_MX  = 0x40 // column address order
	MADCTL_MV  = 0x20 // row/column exchange
	MADCTL_ML  = 0x10 // vertical refresh order
	MADCTL_BGR = 0x08 // BGR color filter panel
	MADCTL_MH  = 0x04 // horizontal refresh order
)

// COLMOD parameter selecting 16 bits per pixel on both the RGB and MCU
// interfaces.
const pixelFormat16 = 0x55

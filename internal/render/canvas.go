package render

import (
	"image"
	"image/color"
	"math"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
)

var (
	colorBG        = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorText      = color.RGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff}
	colorDim       = color.RGBA{R: 0x75, G: 0x75, B: 0x75, A: 0xff}
	colorBorder    = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	colorEmptyBG   = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
	colorHeaderBG  = color.RGBA{R: 0xee, G: 0xf2, B: 0xf7, A: 0xff}
	colorDayNumber = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
	colorRemaining = color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
)

type sizedFont struct {
	pt   float64
	font tinyfont.Fonter
}

var (
	regularFonts = []sizedFont{
		{9, &freesans.Regular9pt7b},
		{12, &freesans.Regular12pt7b},
		{18, &freesans.Regular18pt7b},
		{24, &freesans.Regular24pt7b},
	}
	boldFonts = []sizedFont{
		{9, &freesans.Bold9pt7b},
		{12, &freesans.Bold12pt7b},
		{18, &freesans.Bold18pt7b},
		{24, &freesans.Bold24pt7b},
	}
)

// pickFont returns the largest face not above px, or the smallest face.
func pickFont(set []sizedFont, px float64) tinyfont.Fonter {
	best := set[0].font
	for _, f := range set {
		if f.pt <= px {
			best = f.font
		}
	}
	return best
}

// canvas draws into an RGBA image in layout units multiplied by scale.
type canvas struct {
	img   *image.RGBA
	scale float64
}

var _ drivers.Displayer = (*canvas)(nil)

func newCanvas(width, height, scale float64) *canvas {
	w := int(math.Round(width * scale))
	h := int(math.Round(height * scale))
	c := &canvas{img: image.NewRGBA(image.Rect(0, 0, w, h)), scale: scale}
	c.fill(0, 0, width, height, colorBG)
	return c
}

func (c *canvas) Size() (x, y int16) {
	b := c.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (c *canvas) SetPixel(x, y int16, col color.RGBA) {
	c.img.SetRGBA(int(x), int(y), col)
}

func (c *canvas) Display() error {
	return nil
}

func (c *canvas) px(v float64) int {
	return int(math.Round(v * c.scale))
}

func (c *canvas) fill(x, y, w, h float64, col color.RGBA) {
	r := image.Rect(c.px(x), c.px(y), c.px(x+w), c.px(y+h)).Intersect(c.img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			c.img.SetRGBA(px, py, col)
		}
	}
}

func (c *canvas) stroke(x, y, w, h, line float64, col color.RGBA) {
	c.fill(x, y, w, line, col)
	c.fill(x, y+h-line, w, line, col)
	c.fill(x, y, line, h, col)
	c.fill(x+w-line, y, line, h, col)
}

func (c *canvas) font(bold bool, size float64) tinyfont.Fonter {
	if bold {
		return pickFont(boldFonts, size*c.scale)
	}
	return pickFont(regularFonts, size*c.scale)
}

func (c *canvas) textWidth(f tinyfont.Fonter, s string) float64 {
	_, outbox := tinyfont.LineWidth(f, s)
	return float64(outbox) / c.scale
}

// text writes s with its baseline at y.
func (c *canvas) text(f tinyfont.Fonter, x, y float64, s string, col color.RGBA) {
	tinyfont.WriteLine(c, f, int16(c.px(x)), int16(c.px(y)), s, col)
}

func (c *canvas) textCentered(f tinyfont.Fonter, cx, y float64, s string, col color.RGBA) {
	c.text(f, cx-c.textWidth(f, s)/2, y, s, col)
}

func (c *canvas) textRight(f tinyfont.Fonter, right, y float64, s string, col color.RGBA) {
	c.text(f, right-c.textWidth(f, s), y, s, col)
}

package render

import (
	"errors"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Target consumes unit-quad draw calls. Later calls overdraw earlier
// ones at the same location (alpha-blended), so call order encodes
// z-order.
type Target interface {
	FillQuad(t Transform, c color.RGBA)
}

// maskSize is the resolution of the circular mask texture.
const maskSize = 64

// EbitenTarget renders masked unit quads onto an ebiten image. The
// circular mask zeroes fragments outside radius 0.5 from texture
// center, with a one-texel antialiased rim.
type EbitenTarget struct {
	disc  *ebiten.Image
	dst   *ebiten.Image
	viewW float64
	viewH float64
}

// NewEbitenTarget builds the draw primitive. A failure here is fatal to
// the renderer: there is no degraded rendering mode.
func NewEbitenTarget() (*EbitenTarget, error) {
	disc, err := discImage(maskSize)
	if err != nil {
		return nil, err
	}
	return &EbitenTarget{disc: disc}, nil
}

// Begin binds the frame's destination image and clears it.
func (t *EbitenTarget) Begin(dst *ebiten.Image) {
	t.dst = dst
	b := dst.Bounds()
	t.viewW = float64(b.Dx())
	t.viewH = float64(b.Dy())
	dst.Fill(color.Black)
}

// FillQuad draws one masked quad with the given transform and color.
func (t *EbitenTarget) FillQuad(tf Transform, c color.RGBA) {
	if t.dst == nil || t.viewW <= 0 || t.viewH <= 0 {
		return
	}
	x, y, w, h := tf.PixelRect(t.viewW, t.viewH)
	if w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w/maskSize, h/maskSize)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	op.Filter = ebiten.FilterLinear
	t.dst.DrawImage(t.disc, op)
}

// discImage builds a white circle on transparent black, premultiplied.
func discImage(size int) (*ebiten.Image, error) {
	if size <= 0 {
		return nil, errors.New("mask size must be positive")
	}
	pix := make([]byte, size*size*4)
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			d := r - distance(dx, dy)
			var a float64
			switch {
			case d >= 1:
				a = 1
			case d > 0:
				a = d
			}
			v := byte(a * 255)
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, v
		}
	}
	img := ebiten.NewImage(size, size)
	img.WritePixels(pix)
	return img, nil
}

func distance(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Brand colours.
var (
	Navy = color.RGBA{R: 0x00, G: 0x28, B: 0x68, A: 0xff}
	Ice  = color.RGBA{R: 0xe8, G: 0xf1, B: 0xfa, A: 0xff}
)

const logoSize = 480

var defaultLogo = sync.OnceValues(renderDefaultLogo)

// DefaultLogo returns the Goalie Gen mark used when no logo was uploaded.
func DefaultLogo() (Result, error) {
	return defaultLogo()
}

func renderDefaultLogo() (Result, error) {
	// Draw the monogram small and scale it up; basicfont has a single size.
	const small = 60
	mark := image.NewRGBA(image.Rect(0, 0, small, small))
	draw.Draw(mark, mark.Bounds(), image.White, image.Point{}, draw.Src)

	c := float64(small) / 2
	for y := 0; y < small; y++ {
		for x := 0; x < small; x++ {
			dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
			d := dx*dx + dy*dy
			switch {
			case d <= (c-2)*(c-2) && d >= (c-6)*(c-6):
				mark.Set(x, y, Ice)
			case d <= c*c:
				mark.Set(x, y, Navy)
			}
		}
	}

	face := basicfont.Face7x13
	label := "GG"
	d := &font.Drawer{Dst: mark, Src: image.NewUniform(color.White), Face: face}
	w := d.MeasureString(label).Round()
	d.Dot = fixed.P((small-w)/2, small/2+face.Ascent/2-1)
	d.DrawString(label)

	out := image.NewRGBA(image.Rect(0, 0, logoSize, logoSize))
	draw.CatmullRom.Scale(out, out.Bounds(), mark, mark.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("encode default logo: %w", err)
	}
	return Result{Data: buf.Bytes(), Width: logoSize, Height: logoSize}, nil
}

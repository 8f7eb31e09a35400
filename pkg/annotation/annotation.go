// Package annotation draws diagnostic markers on copies of the damaged and
// reference arrays so that stripe matches can be checked by eye. Nothing in
// here affects the recovered pixels.
package annotation

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"linerestore/internal/models"
)

// DefaultPalette is the marker color rotation.
var DefaultPalette = []string{"#01c8fa", "#fa01c8", "#c8fa01"}

// Palette is a fixed list of marker colors used in rotation.
type Palette struct {
	colors []colorful.Color
}

// ParsePalette parses "#rrggbb" colors.
func ParsePalette(hexes []string) (Palette, error) {
	if len(hexes) == 0 {
		return Palette{}, fmt.Errorf("%w: empty palette", models.ErrInvalidArgument)
	}
	p := Palette{colors: make([]colorful.Color, 0, len(hexes))}
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("%w: color %q: %v", models.ErrInvalidArgument, h, err)
		}
		p.colors = append(p.colors, c)
	}
	return p, nil
}

// Len returns the number of colors.
func (p Palette) Len() int { return len(p.colors) }

// Sample returns color i (modulo the palette length) as channel samples.
// Single-channel arrays get the color's luma.
func (p Palette) Sample(i, channels int) []int32 {
	r, g, b := p.colors[i%len(p.colors)].RGB255()
	if channels == 1 {
		y := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
		return []int32{int32(y)}
	}
	out := make([]int32, channels)
	copy(out, []int32{int32(r), int32(g), int32(b)})
	return out
}

// TagRect draws a rectangle border of the given thickness on arr covering rows
// [top, bottom) and columns [left, right). Parts outside arr are clipped.
func TagRect(arr *models.PixelArray, top, bottom, left, right int, px []int32, thickness int) {
	fill(arr, top, min(top+thickness, bottom), left, right, px)
	fill(arr, max(bottom-thickness, top), bottom, left, right, px)
	fill(arr, top, bottom, left, min(left+thickness, right), px)
	fill(arr, top, bottom, max(right-thickness, left), right, px)
}

func fill(arr *models.PixelArray, top, bottom, left, right int, px []int32) {
	top, bottom = max(top, 0), min(bottom, arr.Rows)
	left, right = max(left, 0), min(right, arr.Cols)
	for r := top; r < bottom; r++ {
		for c := left; c < right; c++ {
			arr.SetPixel(r, c, px)
		}
	}
}

// Annotator tags the searched region of each stripe on a copy of the damaged
// array and the matched region on a copy of the reference, cycling colors.
type Annotator struct {
	palette   Palette
	thickness int
	next      int

	// Damaged and Reference are the tagged copies
	Damaged   *models.PixelArray
	Reference *models.PixelArray
}

// NewAnnotator copies both arrays for tagging.
func NewAnnotator(damaged, reference *models.PixelArray, palette Palette, thickness int) *Annotator {
	return &Annotator{
		palette:   palette,
		thickness: thickness,
		Damaged:   damaged.Clone(),
		Reference: reference.Clone(),
	}
}

// TagStripe marks the stripe's patch columns [left, right) on the damaged
// copy and the matched window on the reference copy with the next color.
func (a *Annotator) TagStripe(stripe models.Stripe, left, right int, match models.MatchResult) {
	px := a.palette.Sample(a.next, a.Damaged.Channels)
	TagRect(a.Damaged, stripe.Top, stripe.Bottom, left, right, px, a.thickness)

	px = a.palette.Sample(a.next, a.Reference.Channels)
	TagRect(a.Reference, match.Row, match.Row+stripe.Height(), match.Col, match.Col+(right-left), px, a.thickness)

	a.next = (a.next + 1) % a.palette.Len()
}

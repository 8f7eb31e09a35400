package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linerestore/internal/models"
)

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette(DefaultPalette)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []int32{1, 200, 250}, p.Sample(0, 3))
	assert.Equal(t, []int32{250, 1, 200}, p.Sample(4, 3), "indices wrap around")

	gray := p.Sample(2, 1)
	require.Len(t, gray, 1)
	assert.InDelta(t, 200, gray[0], 30)

	_, err = ParsePalette([]string{"#zzzzzz"})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = ParsePalette(nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

// TestTagRect draws a border and clips it at the array edge
func TestTagRect(t *testing.T) {
	arr := models.NewPixelArray(6, 6, 1)
	TagRect(arr, 1, 5, 1, 5, []int32{9}, 1)

	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			border := r >= 1 && r < 5 && c >= 1 && c < 5 && (r == 1 || r == 4 || c == 1 || c == 4)
			want := int32(0)
			if border {
				want = 9
			}
			assert.Equal(t, want, arr.At(r, c, 0), "pixel %d,%d", r, c)
		}
	}

	assert.NotPanics(t, func() { TagRect(arr, -3, 10, 4, 20, []int32{7}, 3) })
	assert.Equal(t, int32(7), arr.At(0, 5, 0))
}

// TestAnnotatorRotatesColors tags stripes on copies with cycling colors
func TestAnnotatorRotatesColors(t *testing.T) {
	damaged := models.NewPixelArray(20, 10, 3)
	reference := models.NewPixelArray(30, 20, 3)
	p, err := ParsePalette([]string{"#ff0000", "#00ff00"})
	require.NoError(t, err)

	a := NewAnnotator(damaged, reference, p, 1)
	stripes := models.Stripes(20, 5)
	for i, s := range stripes {
		a.TagStripe(s, 2, 6, models.MatchResult{Row: 3 + s.Top, Col: 4 + i})
	}

	assert.Equal(t, []int32{255, 0, 0}, a.Damaged.Pixel(0, 2))
	assert.Equal(t, []int32{0, 255, 0}, a.Damaged.Pixel(5, 2))
	assert.Equal(t, []int32{255, 0, 0}, a.Damaged.Pixel(10, 2))
	assert.Equal(t, []int32{255, 0, 0}, a.Reference.Pixel(3, 4))
	assert.Equal(t, []int32{0, 255, 0}, a.Reference.Pixel(8, 5))

	assert.Equal(t, []int32{0, 0, 0}, damaged.Pixel(0, 2), "originals stay untouched")
	assert.Equal(t, []int32{0, 0, 0}, reference.Pixel(3, 4))
}

package padding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linerestore/internal/models"
)

// TestPad checks the padded shape, border color, corners and that the
// original pixels land in the middle
func TestPad(t *testing.T) {
	arr, err := models.NewGray([][]int32{
		{0, 10},
		{20, 31},
	})
	require.NoError(t, err)
	before := arr.Clone()

	out, err := Pad(arr, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 6, out.Rows)
	assert.Equal(t, 8, out.Cols)
	assert.True(t, before.Equal(arr), "input must not change")

	// mean of 0,10,20,31 is 15.25, truncated to 15
	for _, rc := range [][2]int{{0, 0}, {0, 7}, {5, 0}, {5, 7}, {2, 2}, {3, 5}} {
		assert.Equal(t, int32(15), out.At(rc[0], rc[1], 0), "border pixel %v", rc)
	}
	assert.Equal(t, int32(0), out.At(2, 3, 0))
	assert.Equal(t, int32(31), out.At(3, 4, 0))

	cropped, err := Crop(out, 2, 3)
	require.NoError(t, err)
	assert.True(t, arr.Equal(cropped))
}

// TestPadColor uses a separate mean per channel
func TestPadColor(t *testing.T) {
	arr := models.NewPixelArray(1, 2, 3)
	arr.SetPixel(0, 0, []int32{10, 0, 255})
	arr.SetPixel(0, 1, []int32{21, 100, 255})

	out, err := Pad(arr, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int32{15, 50, 255}, out.Pixel(0, 0))
	assert.Equal(t, []int32{21, 100, 255}, out.Pixel(1, 2))
}

func TestPadErrors(t *testing.T) {
	_, err := Pad(models.NewPixelArray(0, 0, 1), 1, 1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = Pad(models.NewPixelArray(1, 1, 1), -1, 1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestMargins(t *testing.T) {
	rowPad, colPad := Margins(models.Range{Min: -50, Max: 50}, models.Range{Min: -5, Max: 3}, 100)
	assert.Equal(t, 200, rowPad)
	assert.Equal(t, 110, colPad)
}

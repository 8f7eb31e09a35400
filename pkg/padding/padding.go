// Package padding surrounds a pixel array with solid border blocks so that
// patch reads near the edges of a search window stay inside the array.
package padding

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"linerestore/internal/models"
)

// MinDriftMargin is the smallest margin, beyond twice the largest
// displacement, that absorbs the drift of chained stripe origins.
const MinDriftMargin = 100

// MeanColor returns the per-channel arithmetic mean of arr, truncated to an
// integer.
func MeanColor(arr *models.PixelArray) []int32 {
	mean := make([]int32, arr.Channels)
	n := arr.Rows * arr.Cols
	if n == 0 {
		return mean
	}
	samples := make([]float64, n)
	for ch := 0; ch < arr.Channels; ch++ {
		for i := 0; i < n; i++ {
			samples[i] = float64(arr.Data[i*arr.Channels+ch])
		}
		mean[ch] = int32(stat.Mean(samples, nil))
	}
	return mean
}

// Pad returns a new array with rowPad rows above and below and colPad columns
// left and right of arr, all filled with the mean color of arr. The input is
// not modified.
func Pad(arr *models.PixelArray, rowPad, colPad int) (*models.PixelArray, error) {
	if rowPad < 0 || colPad < 0 {
		return nil, fmt.Errorf("%w: negative padding %d,%d", models.ErrInvalidArgument, rowPad, colPad)
	}
	if arr.Empty() {
		return nil, fmt.Errorf("%w: cannot pad an empty array", models.ErrInvalidArgument)
	}

	// vertical padding first, then horizontal, so corners get the mean too
	out := models.Filled(arr.Rows+2*rowPad, arr.Cols+2*colPad, MeanColor(arr))
	rowLen := arr.Cols * arr.Channels
	for r := 0; r < arr.Rows; r++ {
		dst := out.Index(r+rowPad, colPad, 0)
		copy(out.Data[dst:dst+rowLen], arr.Data[r*rowLen:(r+1)*rowLen])
	}
	return out, nil
}

// Crop removes rowPad rows and colPad columns from each side, undoing Pad.
func Crop(arr *models.PixelArray, rowPad, colPad int) (*models.PixelArray, error) {
	return arr.Window(rowPad, colPad, arr.Rows-2*rowPad, arr.Cols-2*colPad)
}

// Margins returns the padding needed on each axis so that any displacement of
// the given ranges, plus margin rows and columns of drift, stays in bounds.
func Margins(rowRange, colRange models.Range, margin int) (rowPad, colPad int) {
	return margin + 2*rowRange.MaxAbs(), margin + 2*colRange.MaxAbs()
}

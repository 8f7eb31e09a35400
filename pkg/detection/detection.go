// Package detection localizes a thin vertical artifact band in a grayscale
// scan. The image is first dilated along the row axis so that real content
// brightens, then the darkest contiguous column window is selected.
package detection

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"linerestore/internal/models"
)

// DefaultBlurShifts are irregular row shifts used when none are configured.
var DefaultBlurShifts = []int{1071, 2847, 3251, 4933}

// VerticalBlur returns a copy of arr where every sample is the maximum of
// itself and the samples found by rolling the rows circularly by each shift.
// Columns are never mixed. arr must have a single channel.
func VerticalBlur(arr *models.PixelArray, shifts []int) (*models.PixelArray, error) {
	if arr.Channels != 1 {
		return nil, fmt.Errorf("%w: vertical blur needs a single-channel array, got %d channels",
			models.ErrInvalidArgument, arr.Channels)
	}
	out := arr.Clone()
	n := arr.Rows
	if n == 0 {
		return out, nil
	}
	for _, shift := range shifts {
		s := ((shift % n) + n) % n
		if s == 0 {
			continue
		}
		for r := 0; r < n; r++ {
			// rolled[r] = arr[r-s]
			src := (r - s + n) % n
			dst := out.Data[r*arr.Cols : (r+1)*arr.Cols]
			for c, v := range arr.Data[src*arr.Cols : (src+1)*arr.Cols] {
				if v > dst[c] {
					dst[c] = v
				}
			}
		}
	}
	return out, nil
}

// ColumnProfile sums every column over all rows and channels.
func ColumnProfile(arr *models.PixelArray) []float64 {
	accu := make([]float64, arr.Cols)
	for r := 0; r < arr.Rows; r++ {
		for c := 0; c < arr.Cols; c++ {
			for _, v := range arr.Pixel(r, c) {
				accu[c] += float64(v)
			}
		}
	}
	return accu
}

// FindVertLine returns the window of width consecutive columns whose summed
// intensity is smallest. The leftmost window wins ties.
func FindVertLine(arr *models.PixelArray, width int) (models.ColumnRange, error) {
	if arr.Cols == 0 {
		return models.ColumnRange{}, fmt.Errorf("%w: array has no columns", models.ErrInvalidArgument)
	}
	if width <= 0 || width > arr.Cols {
		return models.ColumnRange{}, fmt.Errorf("%w: line width %d must be in [1,%d]",
			models.ErrInvalidArgument, width, arr.Cols)
	}

	accu := ColumnProfile(arr)
	prefix := make([]float64, len(accu))
	floats.CumSum(prefix, accu)

	windows := make([]float64, arr.Cols-width+1)
	for s := range windows {
		windows[s] = prefix[s+width-1]
		if s > 0 {
			windows[s] -= prefix[s-1]
		}
	}

	return models.ColumnRange{Start: floats.MinIdx(windows), Width: width}, nil
}

// LocateLine runs the optional blur followed by FindVertLine.
func LocateLine(gray *models.PixelArray, width int, blur bool, shifts []int) (models.ColumnRange, error) {
	if gray.Empty() {
		return models.ColumnRange{}, fmt.Errorf("%w: empty image", models.ErrInvalidArgument)
	}
	src := gray
	if blur {
		blurred, err := VerticalBlur(gray, shifts)
		if err != nil {
			return models.ColumnRange{}, err
		}
		src = blurred
	}
	return FindVertLine(src, width)
}

// Package models holds the plain data types shared by the line detection,
// padding, matching and reconstruction packages.
package models

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when an array or range has an unusable shape.
var ErrInvalidArgument = errors.New("invalid argument")

// PixelArray is a rows x cols grid of integer samples with a constant number
// of channels per pixel. Samples are stored row-major with channels interleaved.
type PixelArray struct {
	// Rows is the number of pixel rows
	Rows int

	// Cols is the number of pixel columns
	Cols int

	// Channels is the number of samples per pixel (1 for gray, 3 for RGB)
	Channels int

	// Data holds Rows*Cols*Channels samples
	Data []int32
}

// NewPixelArray allocates a zero-filled array.
func NewPixelArray(rows, cols, channels int) *PixelArray {
	if rows < 0 || cols < 0 || channels < 1 {
		panic(fmt.Sprintf("models: bad pixel array shape %dx%dx%d", rows, cols, channels))
	}
	return &PixelArray{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Data:     make([]int32, rows*cols*channels),
	}
}

// NewGray builds a single-channel array from rows of samples.
func NewGray(rows [][]int32) (*PixelArray, error) {
	if len(rows) == 0 {
		return NewPixelArray(0, 0, 1), nil
	}
	cols := len(rows[0])
	arr := NewPixelArray(len(rows), cols, 1)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidArgument, r, len(row), cols)
		}
		copy(arr.Data[r*cols:(r+1)*cols], row)
	}
	return arr, nil
}

// Filled returns an array with every sample of every pixel set to the given
// per-channel values.
func Filled(rows, cols int, value []int32) *PixelArray {
	arr := NewPixelArray(rows, cols, len(value))
	for i := 0; i < len(arr.Data); i += len(value) {
		copy(arr.Data[i:i+len(value)], value)
	}
	return arr
}

// Index returns the offset of sample (r, c, ch) in Data.
func (a *PixelArray) Index(r, c, ch int) int {
	return (r*a.Cols+c)*a.Channels + ch
}

// At returns sample (r, c, ch).
func (a *PixelArray) At(r, c, ch int) int32 {
	return a.Data[a.Index(r, c, ch)]
}

// Set stores sample (r, c, ch).
func (a *PixelArray) Set(r, c, ch int, v int32) {
	a.Data[a.Index(r, c, ch)] = v
}

// Pixel returns the channel samples of pixel (r, c). The slice aliases Data.
func (a *PixelArray) Pixel(r, c int) []int32 {
	i := a.Index(r, c, 0)
	return a.Data[i : i+a.Channels]
}

// SetPixel copies the channel samples into pixel (r, c).
func (a *PixelArray) SetPixel(r, c int, px []int32) {
	copy(a.Pixel(r, c), px)
}

// Empty reports whether the array has no pixels.
func (a *PixelArray) Empty() bool {
	return a == nil || a.Rows == 0 || a.Cols == 0
}

// Clone returns a deep copy.
func (a *PixelArray) Clone() *PixelArray {
	out := &PixelArray{Rows: a.Rows, Cols: a.Cols, Channels: a.Channels}
	out.Data = make([]int32, len(a.Data))
	copy(out.Data, a.Data)
	return out
}

// Window copies the rows x cols block whose top-left pixel is (top, left).
func (a *PixelArray) Window(top, left, rows, cols int) (*PixelArray, error) {
	if top < 0 || left < 0 || rows < 0 || cols < 0 || top+rows > a.Rows || left+cols > a.Cols {
		return nil, fmt.Errorf("%w: window %dx%d at (%d,%d) outside %dx%d array",
			ErrInvalidArgument, rows, cols, top, left, a.Rows, a.Cols)
	}
	out := NewPixelArray(rows, cols, a.Channels)
	rowLen := cols * a.Channels
	for r := 0; r < rows; r++ {
		src := a.Index(top+r, left, 0)
		copy(out.Data[r*rowLen:(r+1)*rowLen], a.Data[src:src+rowLen])
	}
	return out, nil
}

// Equal reports whether both arrays have the same shape and samples.
func (a *PixelArray) Equal(b *PixelArray) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols || a.Channels != b.Channels {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

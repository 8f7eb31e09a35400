// Package matching finds where a patch of the damaged image sits in the
// reference image by exhaustively scoring every displacement of a bounded
// search window around an estimated origin.
package matching

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"linerestore/internal/models"
)

// ErrWindowOutOfBounds is returned when a displacement of the search window
// would read outside the target array.
var ErrWindowOutOfBounds = errors.New("search window out of bounds")

// DefaultShiftPenalty biases the search toward small displacements.
const DefaultShiftPenalty int64 = 2000

// Matcher scores candidate windows as the masked squared pixel distance plus
// ShiftPenalty times the squared displacement.
type Matcher struct {
	// shiftPenalty weighs drow^2+dcol^2 in the score
	shiftPenalty int64

	// workers is the number of goroutines scanning displacement rows
	workers int
}

// NewMatcher creates a matcher. workers below 1 are treated as 1.
func NewMatcher(shiftPenalty int64, workers int) *Matcher {
	if workers < 1 {
		workers = 1
	}
	return &Matcher{shiftPenalty: shiftPenalty, workers: workers}
}

// candidate is one scored displacement.
type candidate struct {
	row, col int
	shift    models.Displacement
	score    int64
	valid    bool
}

// better reports whether a beats b: smaller score, then smaller squared
// displacement, then smaller row, then smaller column.
func better(a, b candidate) bool {
	if !b.valid {
		return a.valid
	}
	if !a.valid {
		return false
	}
	if a.score != b.score {
		return a.score < b.score
	}
	as, bs := a.shift.SquaredMagnitude(), b.shift.SquaredMagnitude()
	if as != bs {
		return as < bs
	}
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}

// PatchDist returns the sum of squared sample differences between a and b,
// skipping the patch-relative columns listed in maskedCols.
func PatchDist(a, b *models.PixelArray, maskedCols []int) (int64, error) {
	if a.Rows != b.Rows || a.Cols != b.Cols || a.Channels != b.Channels {
		return 0, fmt.Errorf("%w: shape %dx%dx%d vs %dx%dx%d", models.ErrInvalidArgument,
			a.Rows, a.Cols, a.Channels, b.Rows, b.Cols, b.Channels)
	}
	mask, err := columnMask(a.Cols, maskedCols)
	if err != nil {
		return 0, err
	}
	return distAt(a, b, 0, 0, mask, math.MaxInt64), nil
}

// MatchPatch scores every displacement (drow, dcol) in rowRange x colRange of
// the window arr[row0+drow:, col0+dcol:] against patch and returns the best
// one. Columns of the patch listed in maskedCols do not contribute.
func (m *Matcher) MatchPatch(patch, arr *models.PixelArray, row0, col0 int, rowRange, colRange models.Range, maskedCols []int) (models.MatchResult, error) {
	if patch.Empty() {
		return models.MatchResult{}, fmt.Errorf("%w: empty patch", models.ErrInvalidArgument)
	}
	if patch.Channels != arr.Channels {
		return models.MatchResult{}, fmt.Errorf("%w: patch has %d channels, target %d",
			models.ErrInvalidArgument, patch.Channels, arr.Channels)
	}
	if rowRange.Len() == 0 || colRange.Len() == 0 {
		return models.MatchResult{}, fmt.Errorf("%w: empty search range %v x %v",
			models.ErrInvalidArgument, rowRange, colRange)
	}
	if err := CheckWindow(patch.Rows, patch.Cols, arr, row0, col0, rowRange, colRange); err != nil {
		return models.MatchResult{}, err
	}
	mask, err := columnMask(patch.Cols, maskedCols)
	if err != nil {
		return models.MatchResult{}, err
	}

	drows := rowRange.Values()
	bests := make([]candidate, len(drows))

	scanRow := func(i int) {
		drow := drows[i]
		best := candidate{}
		for dcol := colRange.Min; dcol < colRange.Max; dcol++ {
			shift := models.Displacement{DRow: drow, DCol: dcol}
			penalty := int64(shift.SquaredMagnitude()) * m.shiftPenalty
			limit := int64(math.MaxInt64)
			if best.valid {
				limit = best.score - penalty
			}
			dist := distAt(patch, arr, row0+drow, col0+dcol, mask, limit)
			c := candidate{row: row0 + drow, col: col0 + dcol, shift: shift, score: dist + penalty, valid: true}
			if dist <= limit && better(c, best) {
				best = c
			}
		}
		bests[i] = best
	}

	if m.workers == 1 {
		for i := range drows {
			scanRow(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(m.workers)
		for i := range drows {
			i := i
			g.Go(func() error {
				scanRow(i)
				return nil
			})
		}
		// scanRow has no failure path, so Wait only joins the workers
		_ = g.Wait()
	}

	// reduce in a fixed order so the winner does not depend on scheduling
	winner := candidate{}
	for _, c := range bests {
		if better(c, winner) {
			winner = c
		}
	}

	return models.MatchResult{
		Row:   winner.row,
		Col:   winner.col,
		Score: winner.score,
		Shift: winner.shift,
	}, nil
}

// CheckWindow verifies that a rows x cols patch placed at every displacement
// of the ranges around (row0, col0) lies inside arr.
func CheckWindow(rows, cols int, arr *models.PixelArray, row0, col0 int, rowRange, colRange models.Range) error {
	top := row0 + rowRange.Min
	bottom := row0 + rowRange.Max - 1 + rows
	left := col0 + colRange.Min
	right := col0 + colRange.Max - 1 + cols
	if top < 0 || left < 0 || bottom > arr.Rows || right > arr.Cols {
		return fmt.Errorf("%w: rows [%d,%d) cols [%d,%d) exceed %dx%d target",
			ErrWindowOutOfBounds, top, bottom, left, right, arr.Rows, arr.Cols)
	}
	return nil
}

// columnMask expands patch-relative masked columns into a lookup table.
func columnMask(cols int, maskedCols []int) ([]bool, error) {
	mask := make([]bool, cols)
	for _, c := range maskedCols {
		if c < 0 || c >= cols {
			return nil, fmt.Errorf("%w: masked column %d outside patch width %d",
				models.ErrInvalidArgument, c, cols)
		}
		mask[c] = true
	}
	return mask, nil
}

// distAt computes the masked squared distance between patch and the window of
// arr at (row, col). Once the running sum exceeds limit the scan stops and a
// value above limit is returned.
func distAt(patch, arr *models.PixelArray, row, col int, mask []bool, limit int64) int64 {
	ch := patch.Channels
	var sum int64
	for r := 0; r < patch.Rows; r++ {
		p := patch.Data[r*patch.Cols*ch : (r+1)*patch.Cols*ch]
		start := arr.Index(row+r, col, 0)
		a := arr.Data[start : start+patch.Cols*ch]
		for c := 0; c < patch.Cols; c++ {
			if mask[c] {
				continue
			}
			for k := c * ch; k < (c+1)*ch; k++ {
				d := int64(p[k]) - int64(a[k])
				sum += d * d
			}
		}
		if sum > limit {
			return sum
		}
	}
	return sum
}

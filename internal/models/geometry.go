package models

import "fmt"

// Range is the half-open integer interval [Min, Max), enumerated in
// increasing order.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Len returns the number of values in the range.
func (r Range) Len() int {
	if r.Max <= r.Min {
		return 0
	}
	return r.Max - r.Min
}

// Values lists the range in increasing order.
func (r Range) Values() []int {
	out := make([]int, 0, r.Len())
	for v := r.Min; v < r.Max; v++ {
		out = append(out, v)
	}
	return out
}

// MaxAbs returns the largest absolute value contained in the range.
func (r Range) MaxAbs() int {
	if r.Len() == 0 {
		return 0
	}
	return max(abs(r.Min), abs(r.Max-1))
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Min, r.Max)
}

// ColumnRange identifies the masked columns [Start, Start+Width).
type ColumnRange struct {
	Start int
	Width int
}

// End returns the first column past the range.
func (c ColumnRange) End() int { return c.Start + c.Width }

// Contains reports whether column col is masked.
func (c ColumnRange) Contains(col int) bool {
	return col >= c.Start && col < c.End()
}

// Columns lists the masked column indices.
func (c ColumnRange) Columns() []int {
	return Range{Min: c.Start, Max: c.End()}.Values()
}

func (c ColumnRange) String() string {
	return fmt.Sprintf("range(%d,%d)", c.Start, c.End())
}

// Displacement is a candidate offset from a search origin.
type Displacement struct {
	DRow int
	DCol int
}

// SquaredMagnitude returns drow^2 + dcol^2.
func (d Displacement) SquaredMagnitude() int {
	return d.DRow*d.DRow + d.DCol*d.DCol
}

// MatchResult is the best match found for one stripe.
type MatchResult struct {
	// Row and Col are the absolute top-left coordinate in the searched array
	Row int
	Col int

	// Score is the masked squared pixel distance plus the shift penalty
	Score int64

	// Shift is the winning displacement relative to the search origin
	Shift Displacement
}

// Stripe is the row interval [Top, Bottom) of one search unit.
type Stripe struct {
	Top    int
	Bottom int
}

// Height returns the number of rows in the stripe.
func (s Stripe) Height() int { return s.Bottom - s.Top }

// Stripes partitions nrows into consecutive stripes of height step; the last
// stripe is truncated to the remaining rows.
func Stripes(nrows, step int) []Stripe {
	if step <= 0 {
		return nil
	}
	var out []Stripe
	for top := 0; top < nrows; top += step {
		out = append(out, Stripe{Top: top, Bottom: min(top+step, nrows)})
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

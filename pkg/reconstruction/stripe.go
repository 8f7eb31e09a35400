package reconstruction

import (
	"fmt"

	"go.uber.org/zap"

	"linerestore/internal/models"
	"linerestore/pkg/annotation"
	"linerestore/pkg/matching"
)

// StripeRequest describes one traversal of the damaged array.
type StripeRequest struct {
	// PatchCols are the absolute columns of the damaged array compared
	// against the reference: the masked band plus context on each side
	PatchCols models.ColumnRange

	// MaskedCols are offsets inside the patch excluded from scoring and,
	// when Recover is set, overwritten with reference pixels
	MaskedCols []int

	// Step is the stripe height
	Step int

	// Row0 and Col0 are the search origin of the first stripe in reference
	// coordinates
	Row0 int
	Col0 int

	// RowRange and ColRange bound the displacement search
	RowRange models.Range
	ColRange models.Range

	// Recover copies matched reference pixels into the masked columns
	Recover bool
}

// StripeReconstructor matches consecutive horizontal stripes of a damaged
// array against a reference and copies the reference pixels under the masked
// columns back into the damaged array.
type StripeReconstructor struct {
	matcher *matching.Matcher
	logger  *zap.Logger
}

// NewStripeReconstructor creates a stripe reconstructor. A nil logger is
// replaced by a no-op logger.
func NewStripeReconstructor(matcher *matching.Matcher, logger *zap.Logger) *StripeReconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeReconstructor{matcher: matcher, logger: logger}
}

// MatchStripe walks the stripes of arr from top to bottom. Each stripe is
// searched around the origin left by the previous stripe's match moved down
// by Step rows. All matches are found before arr is modified, so an error
// leaves arr untouched. When annot is non-nil every stripe is tagged on the
// annotator's copies.
func (s *StripeReconstructor) MatchStripe(arr, reference *models.PixelArray, req StripeRequest, annot *annotation.Annotator) ([]models.MatchResult, error) {
	if err := checkRequest(arr, reference, req); err != nil {
		return nil, err
	}

	stripes := models.Stripes(arr.Rows, req.Step)
	results := make([]models.MatchResult, 0, len(stripes))
	row0, col0 := req.Row0, req.Col0

	for _, stripe := range stripes {
		patch, err := arr.Window(stripe.Top, req.PatchCols.Start, stripe.Height(), req.PatchCols.Width)
		if err != nil {
			return nil, err
		}

		match, err := s.matcher.MatchPatch(patch, reference, row0, col0, req.RowRange, req.ColRange, req.MaskedCols)
		if err != nil {
			return nil, fmt.Errorf("stripe %d:%d: %w", stripe.Top, stripe.Bottom, err)
		}
		results = append(results, match)

		s.logger.Info("Stripe matched",
			zap.Int("top", stripe.Top),
			zap.Int("bottom", stripe.Bottom),
			zap.Int("row", match.Row),
			zap.Int("col", match.Col),
			zap.Int64("score", match.Score),
			zap.Int("row0", row0),
			zap.Int("col0", col0))

		row0 = match.Row + req.Step
		col0 = match.Col
	}

	for i, stripe := range stripes {
		match := results[i]
		if req.Recover {
			for r := 0; r < stripe.Height(); r++ {
				for _, rel := range req.MaskedCols {
					arr.SetPixel(stripe.Top+r, req.PatchCols.Start+rel, reference.Pixel(match.Row+r, match.Col+rel))
				}
			}
		}
		if annot != nil {
			annot.TagStripe(stripe, req.PatchCols.Start, req.PatchCols.End(), match)
		}
	}

	return results, nil
}

func checkRequest(arr, reference *models.PixelArray, req StripeRequest) error {
	if req.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", models.ErrInvalidArgument, req.Step)
	}
	if arr.Channels != reference.Channels {
		return fmt.Errorf("%w: damaged array has %d channels, reference %d",
			models.ErrInvalidArgument, arr.Channels, reference.Channels)
	}
	if req.PatchCols.Width <= 0 || req.PatchCols.Start < 0 || req.PatchCols.End() > arr.Cols {
		return fmt.Errorf("%w: patch columns %v outside %d columns",
			models.ErrInvalidArgument, req.PatchCols, arr.Cols)
	}
	for _, rel := range req.MaskedCols {
		if rel < 0 || rel >= req.PatchCols.Width {
			return fmt.Errorf("%w: masked column %d outside patch width %d",
				models.ErrInvalidArgument, rel, req.PatchCols.Width)
		}
	}
	return nil
}

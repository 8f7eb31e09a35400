package reconstruction

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"linerestore/internal/models"
	"linerestore/pkg/annotation"
	"linerestore/pkg/config"
	"linerestore/pkg/detection"
	"linerestore/pkg/matching"
	"linerestore/pkg/padding"
)

// Summary holds statistics about one restoration run.
type Summary struct {
	// Stripes is the number of stripes matched
	Stripes int

	// MeanScore and StdDevScore describe the winning match scores
	MeanScore   float64
	StdDevScore float64

	// MaxRowDrift and MaxColDrift are the largest distances between a
	// stripe's match and the position it would have in a perfectly aligned
	// reference. Large values mean the origin chaining wandered off.
	MaxRowDrift int
	MaxColDrift int
}

// Result is the outcome of RemoveVertLine.
type Result struct {
	// Line is the detected band of masked columns
	Line models.ColumnRange

	// PatchCols are the columns compared during matching
	PatchCols models.ColumnRange

	// Matches holds one entry per stripe, in padded reference coordinates
	Matches []models.MatchResult

	// Tagged and TaggedReference are the annotated copies, nil when
	// annotation is disabled. TaggedReference is in the reference's frame.
	Tagged          *models.PixelArray
	TaggedReference *models.PixelArray

	Summary Summary
}

// Reconstructor removes a vertical line from a damaged image using a
// reference image of the same content.
//
// The process consists of several steps:
// 1. Locating the line on the grayscale damaged image
// 2. Padding the reference with its mean color
// 3. Matching stripes of the damaged image against the padded reference
// 4. Copying the matched reference pixels over the masked columns
type Reconstructor struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReconstructor creates a reconstructor. A nil logger is replaced by a
// no-op logger.
func NewReconstructor(cfg *config.Config, logger *zap.Logger) *Reconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconstructor{cfg: cfg, logger: logger}
}

// Locate finds the masked column band on a grayscale image.
func (r *Reconstructor) Locate(gray *models.PixelArray) (models.ColumnRange, error) {
	return detection.LocateLine(gray, r.cfg.Detection.LineWidth, r.cfg.Detection.Blur, r.cfg.Detection.BlurShifts)
}

// RemoveVertLine locates the line on gray, then overwrites the masked columns
// of damaged in place with pixels from reference. gray must have the same
// size as damaged. On error damaged is left unmodified.
func (r *Reconstructor) RemoveVertLine(gray, damaged, reference *models.PixelArray) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if damaged.Empty() || reference.Empty() {
		return nil, fmt.Errorf("%w: empty damaged or reference array", models.ErrInvalidArgument)
	}
	if gray.Rows != damaged.Rows || gray.Cols != damaged.Cols {
		return nil, fmt.Errorf("%w: gray image is %dx%d, damaged %dx%d",
			models.ErrInvalidArgument, gray.Rows, gray.Cols, damaged.Rows, damaged.Cols)
	}
	if damaged.Channels != reference.Channels {
		return nil, fmt.Errorf("%w: damaged has %d channels, reference %d",
			models.ErrInvalidArgument, damaged.Channels, reference.Channels)
	}

	line, err := r.Locate(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to locate line: %w", err)
	}
	r.logger.Info("Columns masked by a vertical line", zap.Stringer("columns", line))

	rowPad, colPad := r.cfg.Pads()
	padded, err := padding.Pad(reference, rowPad, colPad)
	if err != nil {
		return nil, fmt.Errorf("failed to pad reference: %w", err)
	}

	patchStart := max(line.Start-r.cfg.Matching.PatchExtend, 0)
	patchEnd := min(line.End()+r.cfg.Matching.PatchExtend, damaged.Cols)
	patchCols := models.ColumnRange{Start: patchStart, Width: patchEnd - patchStart}
	masked := make([]int, line.Width)
	for i := range masked {
		masked[i] = line.Start - patchStart + i
	}

	req := StripeRequest{
		PatchCols:  patchCols,
		MaskedCols: masked,
		Step:       r.cfg.Matching.Step,
		Row0:       rowPad,
		Col0:       colPad + patchStart,
		RowRange:   r.cfg.Matching.RowRange,
		ColRange:   r.cfg.Matching.ColRange,
		Recover:    true,
	}
	if err := checkTraversal(damaged.Rows, padded, req); err != nil {
		return nil, err
	}

	var annot *annotation.Annotator
	if r.cfg.Annotation.Enabled {
		palette, err := annotation.ParsePalette(r.cfg.Annotation.Palette)
		if err != nil {
			return nil, err
		}
		annot = annotation.NewAnnotator(damaged, padded, palette, r.cfg.Annotation.Thickness)
	}

	matcher := matching.NewMatcher(r.cfg.Matching.ShiftPenalty, r.cfg.Matching.Workers)
	matches, err := NewStripeReconstructor(matcher, r.logger).MatchStripe(damaged, padded, req, annot)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Line:      line,
		PatchCols: patchCols,
		Matches:   matches,
		Summary:   summarize(matches, req),
	}
	if annot != nil {
		result.Tagged = annot.Damaged
		result.TaggedReference, err = padding.Crop(annot.Reference, rowPad, colPad)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("Line removed",
		zap.Int("stripes", result.Summary.Stripes),
		zap.Float64("meanScore", result.Summary.MeanScore),
		zap.Int("maxRowDrift", result.Summary.MaxRowDrift),
		zap.Int("maxColDrift", result.Summary.MaxColDrift))

	return result, nil
}

// checkTraversal verifies that every stripe's search window fits in the
// padded reference when the origin follows the unchained, aligned path.
// Drift introduced by chaining is caught by the matcher itself before any
// pixel is written.
func checkTraversal(rows int, padded *models.PixelArray, req StripeRequest) error {
	for _, stripe := range models.Stripes(rows, req.Step) {
		err := matching.CheckWindow(stripe.Height(), req.PatchCols.Width, padded,
			req.Row0+stripe.Top, req.Col0, req.RowRange, req.ColRange)
		if err != nil {
			return fmt.Errorf("padding does not cover stripe %d:%d: %w", stripe.Top, stripe.Bottom, err)
		}
	}
	return nil
}

func summarize(matches []models.MatchResult, req StripeRequest) Summary {
	s := Summary{Stripes: len(matches)}
	if len(matches) == 0 {
		return s
	}

	scores := make([]float64, len(matches))
	for i, m := range matches {
		scores[i] = float64(m.Score)
		s.MaxRowDrift = max(s.MaxRowDrift, absInt(m.Row-(req.Row0+i*req.Step)))
		s.MaxColDrift = max(s.MaxColDrift, absInt(m.Col-req.Col0))
	}
	if len(scores) > 1 {
		s.MeanScore, s.StdDevScore = stat.MeanStdDev(scores, nil)
	} else {
		s.MeanScore = scores[0]
	}
	return s
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

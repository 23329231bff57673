package detect

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/saliency-tools/internal/imaging"
)

// Box is an axis-aligned bounding box in image pixel space.
//
// (X1, Y1) is the top-left corner, (X2, Y2) the bottom-right. Upstream
// detectors guarantee X1 < X2 and Y1 < Y2; this package does not validate
// the ordering.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// IoU returns the intersection-over-union overlap of two boxes, in [0, 1].
func (b Box) IoU(o Box) float64 {
	ix1 := max(b.X1, o.X1)
	iy1 := max(b.Y1, o.Y1)
	ix2 := min(b.X2, o.X2)
	iy2 := min(b.Y2, o.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// RawOutput is a detector's native output for a single image: one box, one
// scalar confidence, and one predicted class index per detection. This is
// the minimum contract any wrapped detector must satisfy.
type RawOutput struct {
	Boxes  []Box
	Scores []float64
	Labels []int
}

// Validate checks the per-detection sequences are length-aligned.
func (r RawOutput) Validate() error {
	if len(r.Scores) != len(r.Boxes) || len(r.Labels) != len(r.Boxes) {
		return fmt.Errorf("raw detector output misaligned: %d boxes, %d scores, %d labels",
			len(r.Boxes), len(r.Scores), len(r.Labels))
	}
	return nil
}

// RawDetector is the predict contract a wrapped detection model exposes.
//
// PredictRaw runs inference on a batch of image tensors and returns one
// RawOutput per input image, order-preserving. Inference is treated as an
// expensive blocking call and is never retried.
type RawDetector interface {
	PredictRaw(ctx context.Context, batch []imaging.Tensor) ([]RawOutput, error)
}

// Record is a normalized detection record for one image: the uniform format
// the saliency estimator consumes.
//
// Every box carries a full class distribution (one row of ClassScores) and
// an objectness score, regardless of what the underlying detector natively
// reports. A Record with zero boxes is valid and means "no detections for
// this image" rather than an error.
type Record struct {
	// Boxes holds N bounding boxes in image pixel space.
	Boxes []Box

	// ClassScores is the N×C class distribution matrix, one row per box.
	// Nil when N == 0.
	ClassScores *mat.Dense

	// Objectness holds N confidences in [0, 1] that each box contains
	// some object, independent of class.
	Objectness []float64
}

// Len returns the number of detections in the record.
func (r Record) Len() int {
	return len(r.Boxes)
}

// Validate enforces the record invariant: boxes, score rows, and objectness
// values must all agree in count. A violation means the detector or an
// adapter produced contract-breaking output and is fatal.
func (r Record) Validate() error {
	rows := 0
	if r.ClassScores != nil {
		rows, _ = r.ClassScores.Dims()
	}
	if rows != len(r.Boxes) || len(r.Objectness) != len(r.Boxes) {
		return fmt.Errorf("detection record misaligned: %d boxes, %d score rows, %d objectness scores",
			len(r.Boxes), rows, len(r.Objectness))
	}
	return nil
}

// TopClass returns the predicted class for detection i: the argmax of its
// class-score row. Ties resolve to the lowest class index. Because score
// expansion keeps the reported confidence on the predicted class, this
// recovers the detector's original label.
func (r Record) TopClass(i int) int {
	row := r.ClassScores.RawRowView(i)
	return floats.MaxIdx(row)
}

package detect

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/saliency-tools/internal/imaging"
)

// Suppression and confidence thresholds for the adapter. These are
// deliberately not configurable from the CLI: the suppression threshold is
// far lower than a typical inference-time NMS because the estimator needs
// many distinguishable candidate detections, and the confidence cutoff
// exists to keep the expensive estimator from scoring noise boxes.
const (
	defaultIoUThreshold   = 0.005
	defaultScoreThreshold = 0.2
)

// candidate is one raw detection flowing through the postprocessing chain.
type candidate struct {
	box   Box
	score float64
	label int
}

// postprocessor filters or reorders a candidate list, returning a new list.
type postprocessor func([]candidate) []candidate

// suppressOverlapping returns a postprocessor that removes boxes overlapping
// a higher-confidence box by more than iouThresh (greedy non-maximum
// suppression, highest score first).
func suppressOverlapping(iouThresh float64) postprocessor {
	return func(in []candidate) []candidate {
		ordered := make([]candidate, len(in))
		copy(ordered, in)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].score > ordered[j].score
		})

		kept := make([]candidate, 0, len(ordered))
		for _, c := range ordered {
			suppressed := false
			for _, k := range kept {
				if c.box.IoU(k.box) > iouThresh {
					suppressed = true
					break
				}
			}
			if !suppressed {
				kept = append(kept, c)
			}
		}
		return kept
	}
}

// filterScore returns a postprocessor that keeps only candidates with
// confidence strictly greater than minScore.
func filterScore(minScore float64) postprocessor {
	return func(in []candidate) []candidate {
		out := make([]candidate, 0, len(in))
		for _, c := range in {
			if c.score > minScore {
				out = append(out, c)
			}
		}
		return out
	}
}

// Adapter wraps an arbitrary detector and normalizes its native output into
// detection Records with a full per-class score for every box.
//
// Most detectors report a single predicted class plus a single confidence
// per box, while the saliency estimator needs a similarity score against
// every class. The adapter bridges that gap with a fixed policy:
//
//  1. Light IoU suppression (threshold 0.005) to drop near-duplicates while
//     keeping the candidate diversity the estimator relies on.
//  2. Confidence filtering (threshold 0.2): boxes below are treated as
//     noise and removed entirely.
//  3. Uniform score expansion: the predicted class keeps its reported
//     confidence c and the remaining mass (1−c) is spread evenly across the
//     other C−1 classes. This is an explicit approximation, not a learned
//     distribution, and the uniform rule must be preserved exactly —
//     downstream similarity comparisons are sensitive to it.
//  4. Constant objectness of 1.0 per surviving box, since not every
//     detector exposes a real objectness score.
//
// The class count C comes from configuration, never from the raw output.
type Adapter struct {
	detector    RawDetector
	numClasses  int
	iouThresh   float64
	scoreThresh float64
}

// NewAdapter wraps detector with the default suppression and confidence
// thresholds. numClasses is the C dimension of every expanded score row.
func NewAdapter(detector RawDetector, numClasses int) *Adapter {
	return &Adapter{
		detector:    detector,
		numClasses:  numClasses,
		iouThresh:   defaultIoUThreshold,
		scoreThresh: defaultScoreThreshold,
	}
}

// NumClasses returns the configured class count C.
func (a *Adapter) NumClasses() int {
	return a.numClasses
}

// Predict runs the wrapped detector on a batch of image tensors and returns
// one normalized Record per image, order-preserving.
//
// A Record with zero detections is a valid outcome (everything was
// suppressed or filtered), not an error. A detector output that violates
// the batch or per-detection alignment contract is an error.
func (a *Adapter) Predict(ctx context.Context, batch []imaging.Tensor) ([]Record, error) {
	raws, err := a.detector.PredictRaw(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to run detector: %w", err)
	}
	if len(raws) != len(batch) {
		return nil, fmt.Errorf("detector returned %d outputs for %d images", len(raws), len(batch))
	}

	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := a.normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize detections for image %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalize converts one image's raw detections into a Record.
func (a *Adapter) normalize(raw RawOutput) (Record, error) {
	if err := raw.Validate(); err != nil {
		return Record{}, err
	}

	cands := make([]candidate, 0, len(raw.Boxes))
	for i := range raw.Boxes {
		cands = append(cands, candidate{box: raw.Boxes[i], score: raw.Scores[i], label: raw.Labels[i]})
	}

	for _, pp := range []postprocessor{
		suppressOverlapping(a.iouThresh),
		filterScore(a.scoreThresh),
	} {
		cands = pp(cands)
	}

	rec := Record{
		Boxes:      make([]Box, 0, len(cands)),
		Objectness: make([]float64, 0, len(cands)),
	}
	for _, c := range cands {
		rec.Boxes = append(rec.Boxes, c.box)
		rec.Objectness = append(rec.Objectness, 1.0)
	}
	if len(cands) > 0 {
		rec.ClassScores = expandClassScores(cands, a.numClasses)
	}
	return rec, nil
}

// expandClassScores builds the N×C class distribution matrix from scalar
// confidences: row[label] = score, every other entry = (1−score)/(C−1).
func expandClassScores(cands []candidate, numClasses int) *mat.Dense {
	scores := mat.NewDense(len(cands), numClasses, nil)
	for i, c := range cands {
		rest := (1.0 - c.score) / float64(numClasses-1)
		for j := 0; j < numClasses; j++ {
			if j == c.label {
				scores.Set(i, j, c.score)
			} else {
				scores.Set(i, j, rest)
			}
		}
	}
	return scores
}

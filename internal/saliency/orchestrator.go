package saliency

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/saliency-tools/internal/detect"
	"github.com/ironsheep/saliency-tools/internal/imaging"
	"github.com/ironsheep/saliency-tools/internal/render"
)

// batchReplicas is how many times the input image is replicated across the
// batch dimension. Replication exercises the batched inference path of the
// wrapped detector; it must not change per-image semantics. imageIndex
// selects the image of interest within that batch.
const (
	batchReplicas = 2
	imageIndex    = 0
)

// RunConfig configures a single explanation run.
type RunConfig struct {
	// NumClasses is the C dimension of every expanded class-score row.
	NumClasses int

	// MaskCount and MaskResX/Y are passed through to the estimator.
	MaskCount          int
	MaskResX, MaskResY int

	// Device is the inference device, chosen once per run.
	Device string

	// SavePath is where the figure (or the placeholder) is written.
	SavePath string
}

// Explanation is a successful run's outcome: the composed figure and the
// path it was saved to.
type Explanation struct {
	Figure   image.Image
	SavePath string
}

// Orchestrator drives the end-to-end explanation pipeline for one image:
// load, detect, estimate, filter, render.
//
// Each Run is an independent single-threaded pass with no state shared
// across runs, so distinct runs are safe to issue concurrently from the
// caller's side; the orchestrator itself provides no parallelism.
type Orchestrator struct {
	detector  detect.RawDetector
	estimator Estimator
}

// NewOrchestrator pairs a raw detector with a saliency estimator.
func NewOrchestrator(detector detect.RawDetector, estimator Estimator) *Orchestrator {
	return &Orchestrator{detector: detector, estimator: estimator}
}

// Run produces the saliency explanation figure for the image at imagePath
// and writes it to cfg.SavePath.
//
// The returned *Explanation is nil — with a nil error — when no valid
// detection survives: either the detector found nothing above threshold, or
// every saliency map came back containing NaN. That terminal case still
// writes a placeholder artifact to cfg.SavePath, and callers must check for
// it explicitly; it is a distinguished outcome, not a failure.
//
// Errors are reserved for real faults: unreadable image, inference
// failures, or detector/estimator output that violates the record
// contracts. None of these are retried.
func (o *Orchestrator) Run(ctx context.Context, imagePath string, cfg RunConfig) (*Explanation, error) {
	baseImg, err := imaging.Load(imagePath)
	if err != nil {
		return nil, err
	}
	tensor := imaging.ToTensor(baseImg)

	adapter := detect.NewAdapter(o.detector, cfg.NumClasses)
	batch := imaging.Replicate(tensor, batchReplicas)

	records, err := adapter.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
	}

	scores, err := o.estimator.Estimate(ctx, adapter, batch, records, EstimateConfig{
		MaskCount: cfg.MaskCount,
		MaskResX:  cfg.MaskResX,
		MaskResY:  cfg.MaskResY,
		Device:    cfg.Device,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate saliency: %w", err)
	}
	if len(scores) != len(records) {
		return nil, fmt.Errorf("estimator returned results for %d images, want %d", len(scores), len(records))
	}

	target := records[imageIndex]
	maps := scores[imageIndex]
	if len(maps) != target.Len() {
		return nil, fmt.Errorf("estimator returned %d saliency maps for %d detections", len(maps), target.Len())
	}

	// Keep only maps free of NaN; one bad map never fails the run.
	panels := make([]render.Panel, 0, len(maps))
	for i, res := range maps {
		if !res.Valid() {
			log.Printf("dropping detection %d: saliency map contains NaN", i)
			continue
		}
		panels = append(panels, render.Panel{
			Saliency: res.Detection,
			Box:      target.Boxes[i],
			Label:    target.TopClass(i),
		})
	}

	if len(panels) == 0 {
		placeholder := render.Placeholder(baseImg.Bounds().Dx(), baseImg.Bounds().Dy())
		if err := render.Save(placeholder, cfg.SavePath); err != nil {
			return nil, err
		}
		return nil, nil
	}

	fig, err := render.ComposeFigure(baseImg, panels)
	if err != nil {
		return nil, err
	}
	if err := render.Save(fig, cfg.SavePath); err != nil {
		return nil, err
	}
	return &Explanation{Figure: fig, SavePath: cfg.SavePath}, nil
}

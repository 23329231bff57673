package saliency

import (
	"context"

	"github.com/ironsheep/saliency-tools/internal/detect"
	"github.com/ironsheep/saliency-tools/internal/imaging"
)

// Result is one raw saliency result: the per-pixel weighting an estimator
// produced for a single target detection. The tensor is aligned to the
// image's spatial dimensions and may be single- or 3-channel.
type Result struct {
	Detection imaging.Tensor
}

// Valid reports whether the result is usable. An estimator that could not
// produce a stable score for a detection (mask degeneracy, numerical
// issues) emits NaN values; a single NaN anywhere invalidates the whole
// map — it is not partially salvageable.
func (r Result) Valid() bool {
	return !r.Detection.HasNaN()
}

// EstimateConfig carries the knobs an estimator exposes. Device selection
// is threaded through explicitly rather than read from ambient state.
type EstimateConfig struct {
	// MaskCount is how many random masks to evaluate. More masks cost
	// more inference but yield higher-quality maps.
	MaskCount int

	// MaskResX, MaskResY is the mask resolution before upscaling. Higher
	// resolutions give finer maps but need more masks to converge.
	MaskResX, MaskResY int

	// Device names the inference device ("cpu", "cuda", ...). Empty lets
	// the estimator pick.
	Device string
}

// Estimator is the randomized masking saliency procedure, treated as a
// black-box external collaborator.
//
// Estimate queries model many times with perturbed versions of the batch
// images and returns, per image, one Result per target detection, in the
// same order as the corresponding Record's boxes. The sampling and
// aggregation internals are entirely the estimator's concern, as is any
// reproducibility guarantee: outputs are not expected to be bit-identical
// across runs unless the estimator seeds its own randomness.
//
// Estimation is an expensive blocking call, issued exactly once per run
// with no retry.
type Estimator interface {
	Estimate(ctx context.Context, model *detect.Adapter, batch []imaging.Tensor,
		targets []detect.Record, cfg EstimateConfig) ([][]Result, error)
}

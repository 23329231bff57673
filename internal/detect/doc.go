// Package detect normalizes raw object-detector output into the uniform
// detection records the saliency estimator consumes.
//
// A wrapped detector only has to satisfy the RawDetector contract: boxes,
// per-box confidences, and per-box predicted class indices. The Adapter
// applies the normalization policy (light IoU suppression, confidence
// filtering, uniform class-score expansion, unit objectness) and packages
// the survivors into Records.
//
// # Invariants
//
// For every Record, len(Boxes) == ClassScores rows == len(Objectness).
// A record with zero detections is a valid terminal state, not an error;
// it propagates downstream as "nothing to explain for this image".
//
// # Lifecycle
//
// Records are built fresh on every Predict call and never cached or shared
// across runs.
package detect

// Package saliency orchestrates black-box saliency explanations for object
// detections.
//
// The orchestrator ties the pieces together: it loads and normalizes the
// input image, runs the wrapped detector through the normalization adapter
// to get baseline detection records, hands those records to a randomized
// masking estimator as explanation targets, discards any saliency map the
// estimator marked unstable (NaN), and renders one figure panel per
// surviving detection.
//
// The estimator itself is an external collaborator behind the Estimator
// interface; any implementation satisfying the contract can be substituted
// without changes to this layer.
//
// # Terminal case
//
// "Nothing to show" — no detections above threshold, or all maps
// invalidated — is not an error. Run returns a nil *Explanation after
// writing a placeholder artifact, and callers check for it explicitly.
package saliency

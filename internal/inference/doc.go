// Package inference provides HTTP clients for the external model services:
// a detection endpoint satisfying detect.RawDetector and a randomized
// masking saliency endpoint satisfying saliency.Estimator.
//
// Images travel as PNG files in multipart requests; structured data
// (detection records, mask parameters) travels as JSON form fields. Every
// call is issued exactly once with no retry and no client-side timeout —
// model inference is expected to block until it completes.
package inference

// Package render composes saliency explanation figures.
//
// The assembler takes the detections that survived validity filtering and
// produces a single multi-panel figure: one panel per detection, each
// overlaying that detection's saliency heat map on the original image with
// the bounding box and predicted class label drawn on top. When nothing
// survives, a fixed placeholder card is produced instead.
//
// Heat maps use an inferno-style colormap (dark for low influence, bright
// yellow for high). Bounding boxes are always red; the color carries no
// information.
package render

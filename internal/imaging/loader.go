package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Load opens and decodes the image at path, normalized for model input.
//
// The decoded image is converted to NRGBA with a fixed RGB channel order and
// EXIF orientation applied, so every downstream consumer (detector,
// estimator, renderer) sees the same pixel layout regardless of the source
// format.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a valid PNG, JPEG, or GIF image
//
// A missing or unreadable image is a fatal resource error for the run;
// callers do not retry.
func Load(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.Clone(img), nil
}

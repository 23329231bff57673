package imaging

import (
	"image"
	"math"
)

// Tensor is a dense float64 image tensor in HWC layout.
//
// Channels hold RGB values in [0, 1] when the tensor was produced from an
// image; saliency tensors returned by an estimator may hold arbitrary
// (including negative or NaN) values. C is 1 for single-channel maps and
// 3 for color data.
type Tensor struct {
	H, W, C int
	Data    []float64 // len == H*W*C, row-major, channel-minor
}

// NewTensor allocates a zero-filled tensor with the given dimensions.
func NewTensor(h, w, c int) Tensor {
	return Tensor{H: h, W: w, C: c, Data: make([]float64, h*w*c)}
}

// At returns the value at row y, column x, channel c.
func (t Tensor) At(y, x, c int) float64 {
	return t.Data[(y*t.W+x)*t.C+c]
}

// Set stores v at row y, column x, channel c.
func (t Tensor) Set(y, x, c int, v float64) {
	t.Data[(y*t.W+x)*t.C+c] = v
}

// HasNaN reports whether any element of the tensor is NaN.
//
// Saliency estimators signal an unstable per-detection score by emitting
// NaN values; a single NaN invalidates the whole map.
func (t Tensor) HasNaN() bool {
	for _, v := range t.Data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the tensor.
func (t Tensor) Clone() Tensor {
	out := Tensor{H: t.H, W: t.W, C: t.C, Data: make([]float64, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}

// ToTensor converts an image to a 3-channel RGB tensor with values in [0, 1].
//
// The channel order is fixed (R, G, B); alpha is discarded. This is the
// normalization every model input goes through, so the detector and the
// estimator always see the same representation of a given image.
func ToTensor(img image.Image) Tensor {
	bounds := img.Bounds()
	t := NewTensor(bounds.Dy(), bounds.Dx(), 3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			row := y - bounds.Min.Y
			col := x - bounds.Min.X
			t.Set(row, col, 0, float64(r)/65535.0)
			t.Set(row, col, 1, float64(g)/65535.0)
			t.Set(row, col, 2, float64(b)/65535.0)
		}
	}
	return t
}

// FromTensor renders a tensor back into an NRGBA image.
//
// Values are clamped to [0, 1] before quantization. Single-channel tensors
// produce a grayscale image; 3-channel tensors are treated as RGB. NaN
// values clamp to 0.
func FromTensor(t Tensor) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.W, t.H))
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			var r, g, b uint8
			if t.C >= 3 {
				r = quantize(t.At(y, x, 0))
				g = quantize(t.At(y, x, 1))
				b = quantize(t.At(y, x, 2))
			} else {
				v := quantize(t.At(y, x, 0))
				r, g, b = v, v, v
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
	}
	return img
}

// Replicate returns n independent copies of t, forming a batch.
//
// The copies share no backing storage, so mutating one batch element never
// leaks into another.
func Replicate(t Tensor, n int) []Tensor {
	batch := make([]Tensor, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, t.Clone())
	}
	return batch
}

func quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createPatternImage builds a 2x2 image with distinct corner colors.
func createPatternImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	return img
}

func TestToTensorChannelOrder(t *testing.T) {
	tensor := ToTensor(createPatternImage())

	if tensor.H != 2 || tensor.W != 2 || tensor.C != 3 {
		t.Fatalf("unexpected tensor shape %dx%dx%d", tensor.H, tensor.W, tensor.C)
	}

	// Top-left pixel is pure red: R channel 1, G and B 0.
	if got := tensor.At(0, 0, 0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("red channel = %v, want 1.0", got)
	}
	if got := tensor.At(0, 0, 1); got != 0 {
		t.Errorf("green channel = %v, want 0", got)
	}
	if got := tensor.At(0, 1, 1); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("green pixel G channel = %v, want 1.0", got)
	}
	if got := tensor.At(1, 0, 2); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("blue pixel B channel = %v, want 1.0", got)
	}
}

func TestFromTensorRoundTrip(t *testing.T) {
	src := createPatternImage()
	out := FromTensor(ToTensor(src))

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if src.NRGBAAt(x, y) != out.NRGBAAt(x, y) {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, out.NRGBAAt(x, y), src.NRGBAAt(x, y))
			}
		}
	}
}

func TestFromTensorClampsAndGrayscale(t *testing.T) {
	tensor := NewTensor(1, 3, 1)
	tensor.Set(0, 0, 0, -0.5)
	tensor.Set(0, 1, 0, 0.5)
	tensor.Set(0, 2, 0, 2.0)

	out := FromTensor(tensor)
	if got := out.NRGBAAt(0, 0); got.R != 0 {
		t.Errorf("negative value quantized to %d, want 0", got.R)
	}
	if got := out.NRGBAAt(1, 0); got.R != 128 {
		t.Errorf("0.5 quantized to %d, want 128", got.R)
	}
	if got := out.NRGBAAt(2, 0); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("overflow quantized to %v, want white", got)
	}
}

func TestHasNaN(t *testing.T) {
	tensor := NewTensor(2, 2, 1)
	if tensor.HasNaN() {
		t.Error("zero tensor reported NaN")
	}

	tensor.Set(1, 0, 0, math.NaN())
	if !tensor.HasNaN() {
		t.Error("tensor with NaN not detected")
	}
}

func TestReplicateIndependence(t *testing.T) {
	tensor := NewTensor(1, 1, 3)
	tensor.Set(0, 0, 0, 0.5)

	batch := Replicate(tensor, 2)
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}

	batch[0].Set(0, 0, 0, 0.9)
	if got := batch[1].At(0, 0, 0); got != 0.5 {
		t.Errorf("mutation leaked across batch copies: got %v, want 0.5", got)
	}
	if got := tensor.At(0, 0, 0); got != 0.5 {
		t.Errorf("mutation leaked into the source tensor: got %v, want 0.5", got)
	}
}

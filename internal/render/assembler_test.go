package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/saliency-tools/internal/detect"
	img "github.com/ironsheep/saliency-tools/internal/imaging"
)

func createBaseImage(w, h int) *image.NRGBA {
	base := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base.SetNRGBA(x, y, color.NRGBA{60, 60, 60, 255})
		}
	}
	return base
}

func createPanel(label int) Panel {
	saliency := img.NewTensor(4, 4, 1)
	saliency.Set(1, 1, 0, 1.0)
	saliency.Set(2, 2, 0, 0.5)
	return Panel{
		Saliency: saliency,
		Box:      detect.Box{X1: 2, Y1: 2, X2: 10, Y2: 10},
		Label:    label,
	}
}

func TestComposeFigureDimensions(t *testing.T) {
	base := createBaseImage(20, 16)

	for _, count := range []int{1, 2, 3} {
		panels := make([]Panel, 0, count)
		for i := 0; i < count; i++ {
			panels = append(panels, createPanel(i))
		}

		fig, err := ComposeFigure(base, panels)
		if err != nil {
			t.Fatalf("ComposeFigure with %d panels failed: %v", count, err)
		}
		if w := fig.Bounds().Dx(); w != 20*count {
			t.Errorf("%d panels: width = %d, want %d", count, w, 20*count)
		}
		if h := fig.Bounds().Dy(); h != 16 {
			t.Errorf("%d panels: height = %d, want 16", count, h)
		}
	}
}

func TestComposeFigureNoPanels(t *testing.T) {
	if _, err := ComposeFigure(createBaseImage(10, 10), nil); err == nil {
		t.Fatal("expected error for zero panels")
	}
}

func TestHeatmapHandlesFlatSaliency(t *testing.T) {
	// All-zero and all-negative maps must not divide by zero or panic;
	// they render as the colormap's dark end.
	zero := img.NewTensor(4, 4, 1)
	negative := img.NewTensor(4, 4, 1)
	for i := range negative.Data {
		negative.Data[i] = -1.0
	}

	for name, tensor := range map[string]img.Tensor{"zero": zero, "negative": negative} {
		out := heatmap(tensor, 8, 8)
		if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
			t.Errorf("%s: heatmap dims %v, want 8x8", name, out.Bounds())
		}
	}
}

func TestHeatmapUpscalesToImageSize(t *testing.T) {
	saliency := img.NewTensor(4, 4, 3)
	saliency.Set(1, 1, 0, 0.9)

	out := heatmap(saliency, 32, 24)
	if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 24 {
		t.Errorf("heatmap dims %v, want 32x24", out.Bounds())
	}
}

func TestPlaceholderDimensions(t *testing.T) {
	ph := Placeholder(120, 90)
	if ph.Bounds().Dx() != 120 || ph.Bounds().Dy() != 90 {
		t.Errorf("placeholder dims %v, want 120x90", ph.Bounds())
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "fig.png")

	if err := Save(createBaseImage(4, 4), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestSaveUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fig.xyz")
	if err := Save(createBaseImage(4, 4), path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ironsheep/saliency-tools/internal/detect"
	img "github.com/ironsheep/saliency-tools/internal/imaging"
)

// Rendering conventions. The box color is fixed by convention, never
// data-dependent.
const (
	heatOpacity    = 0.6
	heatBlurRadius = 3.0
	boxLineWidth   = 2.0
	labelFontSize  = 16.0
	captionMargin  = 6.0
)

var boxColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

var labelFont *truetype.Font

// init parses the embedded label font once.
func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	labelFont = f
}

func labelFace(size float64) font.Face {
	return truetype.NewFace(labelFont, &truetype.Options{Size: size})
}

// Panel is one explanation panel: a saliency map paired with the detection
// it explains. Label is the predicted class index (the argmax of the
// detection's expanded class-score row).
type Panel struct {
	Saliency img.Tensor
	Box      detect.Box
	Label    int
}

// ComposeFigure renders one panel per detection onto a single canvas,
// left to right.
//
// Each panel overlays the detection's saliency heat map on the original
// image, then draws exactly one bounding box and class label on top.
// Single- and multi-detection cases are handled identically: panels is
// always indexed as a list, so the figure width is len(panels) times the
// base image width.
//
// ComposeFigure requires at least one panel; callers handle the
// zero-detection case with Placeholder instead.
func ComposeFigure(base image.Image, panels []Panel) (image.Image, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no panels to compose")
	}

	w := base.Bounds().Dx()
	h := base.Bounds().Dy()
	dc := gg.NewContext(w*len(panels), h)

	for i, p := range panels {
		panel := renderPanel(base, p)
		dc.DrawImage(panel, i*w, 0)
		dc.SetFontFace(labelFace(labelFontSize))
		dc.SetColor(color.White)
		dc.DrawString("detection "+strconv.Itoa(i), float64(i*w)+captionMargin, labelFontSize+captionMargin)
	}
	return dc.Image(), nil
}

// renderPanel blends one saliency heat map over the base image and draws
// the detection's box and label.
func renderPanel(base image.Image, p Panel) image.Image {
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()

	heat := heatmap(p.Saliency, w, h)
	blended := blend.Opacity(base, heat, heatOpacity)

	dc := gg.NewContextForImage(blended)
	dc.SetColor(boxColor)
	dc.SetLineWidth(boxLineWidth)
	dc.DrawRectangle(p.Box.X1, p.Box.Y1, p.Box.X2-p.Box.X1, p.Box.Y2-p.Box.Y1)
	dc.Stroke()

	dc.SetFontFace(labelFace(labelFontSize))
	dc.SetColor(boxColor)
	y := p.Box.Y1 - 4
	if y < labelFontSize {
		// Box touches the top edge; put the label inside it.
		y = p.Box.Y1 + labelFontSize + 2
	}
	dc.DrawString(strconv.Itoa(p.Label), p.Box.X1+2, y)

	return dc.Image()
}

// heatmap converts a saliency tensor into a w×h colormapped image.
//
// Channels are averaged, negative values are dropped (only positive
// influence is visualized), and the remainder is min-max normalized before
// colormapping. The map is upscaled to the image dimensions and lightly
// blurred to smooth the block artifacts low-resolution masks leave behind.
func heatmap(t img.Tensor, w, h int) image.Image {
	gray := image.NewGray(image.Rect(0, 0, t.W, t.H))

	maxVal := 0.0
	values := make([]float64, t.H*t.W)
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			sum := 0.0
			for c := 0; c < t.C; c++ {
				sum += t.At(y, x, c)
			}
			v := sum / float64(t.C)
			if v < 0 {
				v = 0
			}
			values[y*t.W+x] = v
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if maxVal > 0 {
		for i, v := range values {
			gray.Pix[i] = uint8(v / maxVal * 255)
		}
	}

	scaled := imaging.Resize(gray, w, h, imaging.Lanczos)
	smoothed := blur.Gaussian(scaled, heatBlurRadius)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := smoothed.At(x, y).RGBA()
			out.SetNRGBA(x, y, heatColor(float64(r)/65535.0))
		}
	}
	return out
}

// Placeholder builds the fixed "no detections found" card written when no
// valid detection survives filtering.
func Placeholder(w, h int) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetRGB(0.15, 0.15, 0.18)
	dc.Clear()
	dc.SetFontFace(labelFace(labelFontSize))
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.DrawStringAnchored("no detections found", float64(w)/2, float64(h)/2, 0.5, 0.5)
	return dc.Image()
}

// Save persists a figure to path, creating the parent directory if needed.
// The encoding format follows the file extension (PNG, JPEG, GIF, ...).
func Save(fig image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(fig, path); err != nil {
		return fmt.Errorf("failed to save figure: %w", err)
	}
	return nil
}

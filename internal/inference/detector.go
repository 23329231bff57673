package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ironsheep/saliency-tools/internal/detect"
	"github.com/ironsheep/saliency-tools/internal/imaging"
)

// DetectorClient talks to a remote model server's detection endpoint and
// implements detect.RawDetector.
//
// The batch images travel as PNG files in a multipart request; the server
// responds with one boxes/scores/labels triple per image. No timeout is set
// on the underlying client: inference is expected to block until
// completion, and the call is issued exactly once (no retry).
type DetectorClient struct {
	baseURL   string
	modelPath string // server-side path of a fine-tuned model; empty = server's pretrained default
	device    string
	client    *http.Client
}

// NewDetectorClient points a client at the detection service. modelPath
// selects a fine-tuned model hosted by the server (empty picks the
// pretrained fallback); device is forwarded verbatim.
func NewDetectorClient(baseURL, modelPath, device string) *DetectorClient {
	return &DetectorClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelPath: modelPath,
		device:    device,
		client:    &http.Client{},
	}
}

// rawDetectionPayload mirrors the server's per-image detection JSON.
type rawDetectionPayload struct {
	Boxes  [][4]float64 `json:"boxes"`
	Scores []float64    `json:"scores"`
	Labels []int        `json:"labels"`
}

// PredictRaw sends the batch to the /predict endpoint and decodes the
// per-image raw detections, order-preserving.
func (c *DetectorClient) PredictRaw(ctx context.Context, batch []imaging.Tensor) ([]detect.RawOutput, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for i, t := range batch {
		part, err := writer.CreateFormFile("images", fmt.Sprintf("image-%d.png", i))
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if err := png.Encode(part, imaging.FromTensor(t)); err != nil {
			return nil, fmt.Errorf("encode batch image %d: %w", i, err)
		}
	}
	if err := writeModelFields(writer, c.modelPath, c.device); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []rawDetectionPayload `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	outputs := make([]detect.RawOutput, 0, len(result.Detections))
	for _, d := range result.Detections {
		out := detect.RawOutput{
			Boxes:  make([]detect.Box, 0, len(d.Boxes)),
			Scores: d.Scores,
			Labels: d.Labels,
		}
		for _, b := range d.Boxes {
			out.Boxes = append(out.Boxes, detect.Box{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]})
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// CheckHealth verifies the detection service is reachable.
func (c *DetectorClient) CheckHealth(ctx context.Context) error {
	return checkHealth(ctx, c.client, c.baseURL)
}

func writeModelFields(w *multipart.Writer, modelPath, device string) error {
	if modelPath != "" {
		if err := w.WriteField("model", modelPath); err != nil {
			return fmt.Errorf("write model field: %w", err)
		}
	}
	if device != "" {
		if err := w.WriteField("device", device); err != nil {
			return fmt.Errorf("write device field: %w", err)
		}
	}
	return nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

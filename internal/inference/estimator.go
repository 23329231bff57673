package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ironsheep/saliency-tools/internal/detect"
	"github.com/ironsheep/saliency-tools/internal/imaging"
	"github.com/ironsheep/saliency-tools/internal/saliency"
)

// EstimatorClient talks to a remote randomized-masking saliency service and
// implements saliency.Estimator.
//
// The service hosts the same model the in-process adapter wraps, so the
// adapter argument to Estimate only contributes its class count; the model
// itself is never serialized. Mask sampling, similarity scoring, and
// aggregation all happen server-side.
//
// JSON cannot represent NaN, so the service marks undefined saliency scores
// as null; the client maps those cells back to NaN, which the orchestrator's
// validity filter then drops.
type EstimatorClient struct {
	baseURL string
	device  string
	client  *http.Client
}

// NewEstimatorClient points a client at the saliency service.
func NewEstimatorClient(baseURL, device string) *EstimatorClient {
	return &EstimatorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		device:  device,
		client:  &http.Client{},
	}
}

// recordPayload is the wire form of one detection record.
type recordPayload struct {
	Boxes       [][4]float64 `json:"boxes"`
	ClassScores [][]float64  `json:"class_scores"`
	Objectness  []float64    `json:"objectness"`
}

// tensorPayload is the wire form of one per-detection saliency tensor:
// flat HWC values with null marking cells the estimator could not score.
type tensorPayload struct {
	Height   int        `json:"height"`
	Width    int        `json:"width"`
	Channels int        `json:"channels"`
	Values   []*float64 `json:"values"`
}

type resultPayload struct {
	Detection tensorPayload `json:"detection"`
}

// Estimate posts the batch, the explanation targets, and the mask
// parameters to the /saliency endpoint, and decodes one saliency result per
// target detection per image.
func (c *EstimatorClient) Estimate(ctx context.Context, model *detect.Adapter, batch []imaging.Tensor,
	targets []detect.Record, cfg saliency.EstimateConfig,
) ([][]saliency.Result, error) {
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

	targetJSON, err := json.Marshal(encodeRecords(targets))
	if err != nil {
		return nil, fmt.Errorf("encode targets: %w", err)
	}
	fields := map[string]string{
		"targets":     string(targetJSON),
		"mask_count":  strconv.Itoa(cfg.MaskCount),
		"mask_res":    fmt.Sprintf("%dx%d", cfg.MaskResX, cfg.MaskResY),
		"num_classes": strconv.Itoa(model.NumClasses()),
	}
	device := cfg.Device
	if device == "" {
		device = c.device
	}
	if device != "" {
		fields["device"] = device
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write %s field: %w", k, err)
		}
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/saliency", body)
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
		return nil, fmt.Errorf("saliency estimation failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Saliency [][]resultPayload `json:"saliency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	scores := make([][]saliency.Result, 0, len(result.Saliency))
	for i, perImage := range result.Saliency {
		maps := make([]saliency.Result, 0, len(perImage))
		for j, rp := range perImage {
			tensor, err := decodeTensor(rp.Detection)
			if err != nil {
				return nil, fmt.Errorf("saliency map %d for image %d: %w", j, i, err)
			}
			maps = append(maps, saliency.Result{Detection: tensor})
		}
		scores = append(scores, maps)
	}
	return scores, nil
}

// CheckHealth verifies the saliency service is reachable.
func (c *EstimatorClient) CheckHealth(ctx context.Context) error {
	return checkHealth(ctx, c.client, c.baseURL)
}

func encodeRecords(targets []detect.Record) []recordPayload {
	payloads := make([]recordPayload, 0, len(targets))
	for _, rec := range targets {
		p := recordPayload{
			Boxes:       make([][4]float64, 0, rec.Len()),
			ClassScores: make([][]float64, 0, rec.Len()),
			Objectness:  rec.Objectness,
		}
		for i, b := range rec.Boxes {
			p.Boxes = append(p.Boxes, [4]float64{b.X1, b.Y1, b.X2, b.Y2})
			row := rec.ClassScores.RawRowView(i)
			p.ClassScores = append(p.ClassScores, append([]float64(nil), row...))
		}
		payloads = append(payloads, p)
	}
	return payloads
}

func decodeTensor(p tensorPayload) (imaging.Tensor, error) {
	want := p.Height * p.Width * p.Channels
	if want <= 0 || len(p.Values) != want {
		return imaging.Tensor{}, fmt.Errorf("tensor shape %dx%dx%d does not match %d values",
			p.Height, p.Width, p.Channels, len(p.Values))
	}
	t := imaging.NewTensor(p.Height, p.Width, p.Channels)
	for i, v := range p.Values {
		if v == nil {
			t.Data[i] = math.NaN()
		} else {
			t.Data[i] = *v
		}
	}
	return t, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/saliency-tools/internal/inference"
	"github.com/ironsheep/saliency-tools/internal/saliency"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// pretrainedClassCount is the class count of the model server's generic
// pretrained fallback, used when no fine-tuned model path is given.
const pretrainedClassCount = 91

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("saliency-explain %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	imagePath := flag.String("image", "", "path to the image to explain (required)")
	modelPath := flag.String("model", "", "fine-tuned model path on the model server; empty uses the pretrained fallback")
	classes := flag.Int("classes", pretrainedClassCount, "number of classes the model predicts")
	out := flag.String("out", "out/saliency.png", "output path for the explanation figure")
	masks := flag.Int("masks", 25, "number of random masks (more is slower, higher quality)")
	maskRes := flag.String("mask-res", "4x4", "mask resolution WxH before upscaling")
	device := flag.String("device", "", "inference device override; empty lets the server choose")
	detectorURL := flag.String("detector-url", "http://localhost:8500", "detection service base URL")
	estimatorURL := flag.String("estimator-url", "http://localhost:8500", "saliency service base URL")
	flag.Parse()

	// Logging goes to stderr; stdout carries only the result path.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("SALIENCY_LOG_LEVEL") == "debug" {
		log.Printf("saliency-explain v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "missing required -image flag")
		flag.Usage()
		os.Exit(2)
	}

	resX, resY, err := parseMaskRes(*maskRes)
	if err != nil {
		log.Fatalf("invalid -mask-res: %v", err)
	}

	numClasses := *classes
	if *modelPath == "" {
		log.Printf("no model path given, using pretrained fallback (%d classes)", pretrainedClassCount)
		numClasses = pretrainedClassCount
	}

	detector := inference.NewDetectorClient(*detectorURL, *modelPath, *device)
	estimator := inference.NewEstimatorClient(*estimatorURL, *device)
	orch := saliency.NewOrchestrator(detector, estimator)

	explanation, err := orch.Run(context.Background(), *imagePath, saliency.RunConfig{
		NumClasses: numClasses,
		MaskCount:  *masks,
		MaskResX:   resX,
		MaskResY:   resY,
		Device:     *device,
		SavePath:   *out,
	})
	if err != nil {
		log.Fatalf("explanation failed: %v", err)
	}
	if explanation == nil {
		fmt.Printf("no valid detections; placeholder written to %s\n", *out)
		return
	}
	fmt.Printf("saliency figure written to %s\n", explanation.SavePath)
}

// parseMaskRes parses a "WxH" resolution string such as "4x4".
func parseMaskRes(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	var w, h int
	if _, err := fmt.Sscanf(parts[0], "%d", &w); err != nil {
		return 0, 0, fmt.Errorf("bad width in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &h); err != nil {
		return 0, 0, fmt.Errorf("bad height in %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("resolution must be positive, got %q", s)
	}
	return w, h, nil
}

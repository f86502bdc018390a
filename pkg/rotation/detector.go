package rotation

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/muesli/smartcrop"
)

// FaceDetector finds faces in an image. Implementations may block.
type FaceDetector interface {
	DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// SalientDetector proposes crop regions of the given aspect, best first.
type SalientDetector interface {
	DetectSalient(ctx context.Context, img image.Image, width, height int) ([]image.Rectangle, error)
}

// PigoDetector detects faces with a pigo cascade.
type PigoDetector struct {
	classifier *pigo.Pigo
	tuning     TuningConfig
}

// NewPigoDetector unpacks a facefinder cascade.
func NewPigoDetector(cascade []byte, tuning TuningConfig) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking face cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier, tuning: tuning}, nil
}

// LoadPigoDetector reads the cascade at path.
func LoadPigoDetector(path string, tuning TuningConfig) (*PigoDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face cascade: %w", err)
	}
	return NewPigoDetector(data, tuning)
}

// DetectFaces runs the cascade in a goroutine so a cancelled context returns
// promptly; the cascade itself cannot be interrupted.
func (d *PigoDetector) DetectFaces(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	type detectResult struct {
		faces []image.Rectangle
	}
	resultChan := make(chan detectResult, 1)

	go func() {
		resultChan <- detectResult{faces: d.detect(img)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		return result.faces, nil
	}
}

func (d *PigoDetector) detect(img image.Image) []image.Rectangle {
	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	minSize := minDim * d.tuning.FaceDetectMinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minDim,
		ShiftFactor: d.tuning.FaceDetectShift,
		ScaleFactor: d.tuning.FaceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.tuning.FaceIoUThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < d.tuning.FaceDetectConfidence {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half))
	}
	return faces
}

// SmartcropDetector finds the most interesting region with smartcrop.
type SmartcropDetector struct {
	resizer *resizer
}

// NewSmartcropDetector creates a detector whose internal downscaling uses
// the given filter.
func NewSmartcropDetector(resampler imaging.ResampleFilter) *SmartcropDetector {
	return &SmartcropDetector{resizer: &resizer{resampler: resampler}}
}

// DetectSalient returns the single best crop of the requested aspect.
func (d *SmartcropDetector) DetectSalient(ctx context.Context, img image.Image, width, height int) ([]image.Rectangle, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	analyzer := smartcrop.NewAnalyzer(d.resizer)

	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, width, height)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", result.err)
		}
		if result.crop.Empty() {
			return nil, nil
		}
		return []image.Rectangle{result.crop}, nil
	}
}

// resizer implements smartcrop.Resizer on top of imaging.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

package rotation

import (
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rk/wallify/util/log"
)

// Adjuster crops an image to its salient region and scales it to the
// target size.
type Adjuster struct {
	detector  SalientDetector
	resampler imaging.ResampleFilter
	timeout   time.Duration
}

// NewAdjuster creates an Adjuster. A nil detector always scales the whole image.
func NewAdjuster(detector SalientDetector, resampler imaging.ResampleFilter) *Adjuster {
	return &Adjuster{detector: detector, resampler: resampler, timeout: DetectTimeout}
}

// Fit returns an image of exactly width x height. The first salient region,
// clamped to the image bounds, is cropped before scaling; without one the
// whole image is scaled, as it is when detection fails or outlasts
// DetectTimeout. Aspect ratio is not preserved.
func (a *Adjuster) Fit(ctx context.Context, img image.Image, width, height int) image.Image {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	src := img
	if region, ok := a.salientRegion(ctx, img, width, height); ok {
		src = imaging.Crop(img, region)
	}
	return imaging.Resize(src, width, height, a.resampler)
}

func (a *Adjuster) salientRegion(ctx context.Context, img image.Image, width, height int) (image.Rectangle, bool) {
	if a.detector == nil {
		return image.Rectangle{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	regions, err := a.detector.DetectSalient(ctx, img, width, height)
	if err != nil {
		log.Printf("%v", &DetectionError{Detector: "salient", Err: err})
		return image.Rectangle{}, false
	}
	if len(regions) == 0 {
		return image.Rectangle{}, false
	}
	region := regions[0].Intersect(img.Bounds())
	if region.Empty() {
		return image.Rectangle{}, false
	}
	return region, true
}

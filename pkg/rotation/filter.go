package rotation

import (
	"context"
	"errors"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rk/wallify/util/log"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Selection is a candidate that passed the content filter.
type Selection struct {
	Candidate Candidate
	Path      string // scratch file, removed by the caller
	Image     image.Image
}

// ContentFilter downloads candidates and rejects the ones showing faces.
type ContentFilter struct {
	downloader Downloader
	detector   FaceDetector
	metrics    *Metrics
	timeout    time.Duration
}

// NewContentFilter creates a filter. A nil detector accepts every image.
func NewContentFilter(downloader Downloader, detector FaceDetector, metrics *Metrics) *ContentFilter {
	return &ContentFilter{downloader: downloader, detector: detector, metrics: metrics, timeout: DetectTimeout}
}

// HasFace reports whether the detector found a face. Each call is bounded by
// DetectTimeout. Detector failures, timeouts included, are logged and
// treated as no face.
func (f *ContentFilter) HasFace(ctx context.Context, img image.Image) bool {
	if f.detector == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	faces, err := f.detector.DetectFaces(ctx, img)
	if err != nil {
		log.Printf("%v", &DetectionError{Detector: "face", Err: err})
		return false
	}
	return len(faces) > 0
}

// SelectNonFaceCandidate walks pool in order and returns the first candidate
// that downloads, decodes and shows no face. Every examined candidate is
// removed from pool, including the returned one. A download or face check
// interrupted by ctx leaves its candidate in place.
func (f *ContentFilter) SelectNonFaceCandidate(ctx context.Context, pool *Pool) (*Selection, bool) {
	for pool.Len() > 0 {
		if ctx.Err() != nil {
			return nil, false
		}
		c := pool.Items()[0]

		path, err := f.downloader.Download(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false
			}
			pool.Remove(c.URL)
			if errors.Is(err, ErrUndersized) {
				f.metrics.rejected("undersized")
			} else {
				f.metrics.rejected("fetch")
			}
			log.Printf("Skipping candidate: %v", err)
			continue
		}

		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			os.Remove(path)
			pool.Remove(c.URL)
			f.metrics.rejected("decode")
			log.Printf("Skipping candidate: %v", &DecodeError{URL: c.URL, Err: err})
			continue
		}

		hasFace := f.HasFace(ctx, img)
		if ctx.Err() != nil {
			os.Remove(path)
			return nil, false
		}
		pool.Remove(c.URL)

		if hasFace {
			os.Remove(path)
			f.metrics.rejected("face")
			log.Printf("Discarding %s: face detected", c.URL)
			continue
		}

		return &Selection{Candidate: c, Path: path, Image: img}, true
	}
	return nil, false
}

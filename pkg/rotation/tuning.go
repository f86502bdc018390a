package rotation

import "github.com/disintegration/imaging"

// TuningConfig holds the detector thresholds and image processing knobs.
type TuningConfig struct {
	// Face detection (pigo)
	FaceDetectConfidence float32 `json:"face_detect_confidence"`   // Default: 10.0 (minimum Q for a hit)
	FaceDetectMinSizePct int     `json:"face_detect_min_size_pct"` // Default: 5 (% of the shorter side)
	FaceScaleFactor      float64 `json:"face_scale_factor"`        // Default: 1.1
	FaceDetectShift      float64 `json:"face_detect_shift"`        // Default: 0.1 (stride)
	FaceIoUThreshold     float64 `json:"face_iou_threshold"`       // Default: 0.2 (clustering)

	// Composition
	Resampler imaging.ResampleFilter `json:"-"` // Default: Lanczos

	// Encoding
	EncodingQuality int `json:"encoding_quality"` // Default: 92
}

// DefaultTuningConfig returns the standard values.
func DefaultTuningConfig() TuningConfig {
	return TuningConfig{
		FaceDetectConfidence: 10.0,
		FaceDetectMinSizePct: 5,
		FaceScaleFactor:      1.1,
		FaceDetectShift:      0.1,
		FaceIoUThreshold:     0.2,
		Resampler:            imaging.Lanczos,
		EncodingQuality:      92,
	}
}

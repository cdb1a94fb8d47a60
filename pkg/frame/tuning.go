package frame

import "github.com/disintegration/imaging"

// Tuning holds the thresholds used by the compositor.
type Tuning struct {
	AspectTolerance float64 `json:"aspect_tolerance"` // Default: 0.01 (no-op below this)

	// Face logic
	FaceIoUThreshold     float64 `json:"face_iou_threshold"`       // Default: 0.2 (Clustering)
	FaceScaleFactor      float64 `json:"face_scale_factor"`        // Default: 1.1 (pigo internal)
	FaceDetectConfidence float32 `json:"face_detect_confidence"`   // Default: 10.0 (Base filter)
	FaceDetectMinSizePct int     `json:"face_detect_min_size_pct"` // Default: 1 (1% of min dim)
	FaceDetectShift      float64 `json:"face_detect_shift"`        // Default: 0.1 (Stride)

	// Encoding
	EncodingQuality int                    `json:"encoding_quality"` // Default: 95
	Resampler       imaging.ResampleFilter `json:"-"`
}

// DefaultTuning returns the standard compositor values.
func DefaultTuning() Tuning {
	return Tuning{
		AspectTolerance:      0.01,
		FaceIoUThreshold:     0.2,
		FaceScaleFactor:      1.1,
		FaceDetectConfidence: 10.0,
		FaceDetectMinSizePct: 1,
		FaceDetectShift:      0.1,
		EncodingQuality:      95,
		Resampler:            imaging.Lanczos,
	}
}

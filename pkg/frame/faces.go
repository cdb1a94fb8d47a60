package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// ErrNoFace is returned by FaceDetector.Find when no face clears the confidence threshold.
var ErrNoFace = errors.New("no face found")

// Face is a detected face and its detection score.
type Face struct {
	Rect image.Rectangle
	Q    float32
}

// FaceDetector finds faces with a pigo cascade.
type FaceDetector struct {
	classifier *pigo.Pigo
	tuning     Tuning
}

// cascadeHeaderLen covers the version, tree depth and tree count pigo reads
// before the trees themselves.
const (
	cascadeHeaderLen = 16
	maxTreeDepth     = 16
)

// NewFaceDetector unpacks a pigo facefinder cascade. A truncated or
// malformed cascade is reported as an error.
func NewFaceDetector(cascade []byte, tuning Tuning) (d *FaceDetector, err error) {
	if len(cascade) < cascadeHeaderLen {
		return nil, fmt.Errorf("unpacking face cascade: %d bytes is shorter than the header", len(cascade))
	}
	depth := binary.LittleEndian.Uint32(cascade[8:])
	trees := binary.LittleEndian.Uint32(cascade[12:])
	if depth == 0 || depth > maxTreeDepth {
		return nil, fmt.Errorf("unpacking face cascade: tree depth %d out of range", depth)
	}
	// Each tree holds 2^depth-1 node codes, 2^depth leaf predictions and a threshold.
	if need := uint64(trees) * (8 << depth); need > uint64(len(cascade)-cascadeHeaderLen) {
		return nil, fmt.Errorf("unpacking face cascade: %d trees need %d bytes, have %d", trees, need, len(cascade)-cascadeHeaderLen)
	}

	// pigo indexes the cascade without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("unpacking face cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking face cascade: %w", err)
	}
	return &FaceDetector{classifier: classifier, tuning: tuning}, nil
}

// LoadFaceDetector reads the cascade at path.
func LoadFaceDetector(path string, tuning Tuning) (*FaceDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading face cascade: %w", err)
	}
	return NewFaceDetector(data, tuning)
}

// Find returns the most confident face in img, in img's coordinate space.
func (d *FaceDetector) Find(img image.Image) (Face, error) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	minDim := min(cols, rows)

	minSize := minDim * d.tuning.FaceDetectMinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}
	if minSize > minDim {
		return Face{}, ErrNoFace
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minDim,
		ShiftFactor: d.tuning.FaceDetectShift,
		ScaleFactor: d.tuning.FaceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(pigo.ImgToNRGBA(img)),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.tuning.FaceIoUThreshold)

	best := -1
	for i, det := range dets {
		if det.Q < d.tuning.FaceDetectConfidence {
			continue
		}
		if best < 0 || det.Q > dets[best].Q {
			best = i
		}
	}
	if best < 0 {
		return Face{}, ErrNoFace
	}

	det := dets[best]
	half := det.Scale / 2
	rect := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).
		Add(bounds.Min).
		Intersect(bounds)
	return Face{Rect: rect, Q: det.Q}, nil
}

package frame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/dixieflatline76/Framer/util/log"
)

// ErrDecode is returned when the input bytes are not a decodable image.
var ErrDecode = errors.New("image could not be decoded")

// Composite is an encoded, framed image.
type Composite struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

type faceFinder interface {
	Find(img image.Image) (Face, error)
}

// Compositor places images onto canvases of a target aspect ratio.
type Compositor struct {
	tuning Tuning
	faces  faceFinder // nil disables face-aware crop
}

// NewCompositor creates a compositor. faces may be nil.
func NewCompositor(tuning Tuning, faces *FaceDetector) *Compositor {
	c := &Compositor{tuning: tuning}
	if faces != nil {
		c.faces = faces
	}
	return c
}

// Tuning returns the compositor's tuning values.
func (c *Compositor) Tuning() Tuning {
	return c.tuning
}

// FaceAware reports whether crop mode re-centres on faces.
func (c *Compositor) FaceAware() bool {
	return c.faces != nil
}

// Decode decodes an image from a byte slice with context awareness.
func (c *Compositor) Decode(ctx context.Context, data []byte, contentType string) (image.Image, string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w (%s): %v", ErrDecode, contentType, err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// Encode encodes img as PNG or JPEG. An empty content type means PNG.
func (c *Compositor) Encode(ctx context.Context, img image.Image, contentType string) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error
	switch contentType {
	case "", "image/png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "image/jpeg":
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.tuning.EncodingQuality))
	default:
		return nil, fmt.Errorf("unsupported format: %s", contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// matches reports whether img is already within tolerance of ratio.
func (c *Compositor) matches(img image.Image, ratio Ratio) bool {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return true
	}
	source := float64(b.Dx()) / float64(b.Dy())
	return math.Abs(ratio.Value()-source) < c.tuning.AspectTolerance
}

// PadSize returns the canvas size Pad uses for a w x h source.
func PadSize(w, h int, ratio Ratio) (int, int) {
	target := ratio.Value()
	source := float64(w) / float64(h)
	if target > source {
		return int(math.Round(float64(h) * target)), h
	}
	return w, int(math.Round(float64(w) / target))
}

// Pad letterboxes img onto an opaque black canvas of the target ratio.
// The source is centred and never scaled. Sources already within the
// aspect tolerance are returned unchanged.
func (c *Compositor) Pad(ctx context.Context, img image.Image, ratio Ratio) (image.Image, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if c.matches(img, ratio) {
		return img, nil
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cw, ch := PadSize(w, h, ratio)
	offset := image.Pt(
		int(math.Round(float64(cw-w)/2)),
		int(math.Round(float64(ch-h)/2)),
	)

	canvas := imaging.New(cw, ch, color.Black)
	canvas = imaging.Overlay(canvas, img, offset, 1.0)
	log.Debugf("padded %dx%d to %dx%d (%s) at %v", w, h, cw, ch, ratio, offset)
	return canvas, nil
}

// CropSize returns the largest w x h window of ratio that fits a w x h source.
func CropSize(w, h int, ratio Ratio) (int, int) {
	target := ratio.Value()
	source := float64(w) / float64(h)
	if target > source {
		return w, min(h, int(math.Round(float64(w)/target)))
	}
	return min(w, int(math.Round(float64(h)*target))), h
}

// Crop cuts the largest window of the target ratio out of img. The window is
// placed by smartcrop, then re-centred on a face when one is found.
func (c *Compositor) Crop(ctx context.Context, img image.Image, ratio Ratio) (image.Image, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if c.matches(img, ratio) {
		return img, nil
	}

	bounds := img.Bounds()
	cw, ch := CropSize(bounds.Dx(), bounds.Dy(), ratio)

	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: c.tuning.Resampler})

	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, cw, ch)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	var center image.Point
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", result.err)
		}
		center = midpoint(result.crop)
	}

	if c.faces != nil {
		face, err := c.faces.Find(img)
		if err == nil {
			log.Debugf("face found at %v (Q: %.2f), centring crop", face.Rect, face.Q)
			center = midpoint(face.Rect)
		} else {
			log.Debugf("no face used for crop: %v", err)
		}
	}

	window := placeWindow(bounds, cw, ch, center)
	log.Debugf("cropped %v to %v (%s)", bounds, window, ratio)
	return imaging.Crop(img, window), nil
}

// Fit applies the given fit mode.
func (c *Compositor) Fit(ctx context.Context, img image.Image, ratio Ratio, fit Fit) (image.Image, error) {
	switch fit {
	case FitCrop:
		return c.Crop(ctx, img, ratio)
	case FitPad, "":
		return c.Pad(ctx, img, ratio)
	}
	return nil, fmt.Errorf("unsupported fit mode %q", fit)
}

// Compose decodes data, fits it to ratio and encodes the result as PNG.
func (c *Compositor) Compose(ctx context.Context, data []byte, contentType string, ratio Ratio, fit Fit) (*Composite, error) {
	img, _, err := c.Decode(ctx, data, contentType)
	if err != nil {
		return nil, err
	}

	framed, err := c.Fit(ctx, img, ratio, fit)
	if err != nil {
		return nil, err
	}

	out, err := c.Encode(ctx, framed, "image/png")
	if err != nil {
		return nil, err
	}

	return &Composite{
		Data:        out,
		ContentType: "image/png",
		Width:       framed.Bounds().Dx(),
		Height:      framed.Bounds().Dy(),
	}, nil
}

// placeWindow centres a w x h window on center, clamped inside bounds.
func placeWindow(bounds image.Rectangle, w, h int, center image.Point) image.Rectangle {
	x := center.X - w/2
	y := center.Y - h/2
	x = max(bounds.Min.X, min(x, bounds.Max.X-w))
	y = max(bounds.Min.Y, min(y, bounds.Max.Y-h))
	return image.Rect(x, y, x+w, y+h)
}

func midpoint(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// resizer implements the smartcrop.Resizer interface.
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

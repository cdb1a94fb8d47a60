package frame

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{255, 0, 0, 255}

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{red}, image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertColor(t *testing.T, img image.Image, x, y int, want color.Color) {
	t.Helper()
	gr, gg, gb, ga := img.At(x, y).RGBA()
	wr, wg, wb, wa := want.RGBA()
	assert.Equal(t, [4]uint32{wr, wg, wb, wa}, [4]uint32{gr, gg, gb, ga}, "pixel at (%d,%d)", x, y)
}

func TestPad(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)
	ctx := context.Background()

	sizes := [][2]int{{1024, 1024}, {1920, 1080}, {1080, 1920}, {800, 600}, {333, 777}, {1001, 999}}

	for _, size := range sizes {
		for _, ratio := range Ratios() {
			w, h := size[0], size[1]
			t.Run(ratio.String(), func(t *testing.T) {
				src := createTestImage(w, h)
				out, err := c.Pad(ctx, src, ratio)
				require.NoError(t, err)

				b := out.Bounds()
				cw, ch := b.Dx(), b.Dy()

				// Canvas contains the source without scaling
				assert.GreaterOrEqual(t, cw, w)
				assert.GreaterOrEqual(t, ch, h)
				assert.True(t, cw == w || ch == h, "one side keeps the source length")

				got := float64(cw) / float64(ch)
				if cw == w && ch == h {
					assert.InDelta(t, ratio.Value(), got, c.Tuning().AspectTolerance)
					return
				}
				assert.InDelta(t, ratio.Value(), got, ratio.Value()/float64(ch)+1/float64(ch))

				// Source centred, padding black
				ox, oy := (cw-w+1)/2, (ch-h+1)/2
				assertColor(t, out, b.Min.X+ox, b.Min.Y+oy, red)
				assertColor(t, out, b.Min.X+ox+w-1, b.Min.Y+oy+h-1, red)
				if ox > 0 {
					assertColor(t, out, b.Min.X, b.Min.Y+ch/2, color.Black)
					assertColor(t, out, b.Max.X-1, b.Min.Y+ch/2, color.Black)
				}
				if oy > 0 {
					assertColor(t, out, b.Min.X+cw/2, b.Min.Y, color.Black)
					assertColor(t, out, b.Min.X+cw/2, b.Max.Y-1, color.Black)
				}
			})
		}
	}
}

func TestPadKnownSizes(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		ratio  Ratio
		cw, ch int
	}{
		{"square to wide", 1000, 1000, RatioWide, 1778, 1000},
		{"square to tall", 1000, 1000, RatioTall, 1000, 1778},
		{"wide to square", 1600, 900, RatioSquare, 1600, 1600},
		{"landscape to portrait", 800, 600, RatioPortrait, 800, 1067},
		{"portrait to landscape", 600, 800, RatioLandscape, 1067, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cw, ch := PadSize(tt.w, tt.h, tt.ratio)
			assert.Equal(t, tt.cw, cw)
			assert.Equal(t, tt.ch, ch)
		})
	}
}

func TestPadWithinTolerance(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)

	tests := []struct {
		name  string
		w, h  int
		ratio Ratio
	}{
		{"exact square", 512, 512, RatioSquare},
		{"near square", 1000, 1001, RatioSquare},
		{"exact wide", 1920, 1080, RatioWide},
		{"near tall", 1080, 1921, RatioTall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := createTestImage(tt.w, tt.h)
			out, err := c.Pad(context.Background(), src, tt.ratio)
			require.NoError(t, err)
			assert.Same(t, src, out)
		})
	}
}

func TestPadTransparentSource(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)
	src := image.NewNRGBA(image.Rect(0, 0, 100, 50)) // fully transparent

	out, err := c.Pad(context.Background(), src, RatioSquare)
	require.NoError(t, err)

	// The canvas stays opaque black under a transparent source.
	assertColor(t, out, 50, 50, color.Black)
}

func TestCrop(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)

	tests := []struct {
		name  string
		w, h  int
		ratio Ratio
	}{
		{"square to wide", 400, 400, RatioWide},
		{"square to tall", 400, 400, RatioTall},
		{"wide to square", 640, 360, RatioSquare},
		{"landscape to portrait", 400, 300, RatioPortrait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := createTestImage(tt.w, tt.h)
			out, err := c.Crop(context.Background(), src, tt.ratio)
			require.NoError(t, err)

			b := out.Bounds()
			cw, ch := CropSize(tt.w, tt.h, tt.ratio)
			assert.Equal(t, cw, b.Dx())
			assert.Equal(t, ch, b.Dy())
			assert.LessOrEqual(t, b.Dx(), tt.w)
			assert.LessOrEqual(t, b.Dy(), tt.h)
			assert.True(t, b.Dx() == tt.w || b.Dy() == tt.h, "crop keeps one full side")
			assert.InDelta(t, tt.ratio.Value(), float64(b.Dx())/float64(b.Dy()), 0.02)
		})
	}
}

func TestPlaceWindow(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)

	assert.Equal(t, image.Rect(25, 0, 75, 50), placeWindow(bounds, 50, 50, image.Pt(50, 25)))
	assert.Equal(t, image.Rect(0, 0, 50, 50), placeWindow(bounds, 50, 50, image.Pt(3, 25)), "clamped left")
	assert.Equal(t, image.Rect(50, 0, 100, 50), placeWindow(bounds, 50, 50, image.Pt(99, 25)), "clamped right")
}

func TestDecode(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)

	t.Run("png", func(t *testing.T) {
		img, format, err := c.Decode(context.Background(), encodePNG(t, createTestImage(10, 20)), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())
	})

	t.Run("not an image", func(t *testing.T) {
		_, _, err := c.Decode(context.Background(), []byte("definitely not pixels"), "image/png")
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := c.Decode(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestEncode(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)
	src := createTestImage(8, 8)

	for _, ct := range []string{"", "image/png", "image/jpeg"} {
		data, err := c.Encode(context.Background(), src, ct)
		require.NoError(t, err, ct)
		assert.NotEmpty(t, data)
	}

	_, err := c.Encode(context.Background(), src, "image/tiff")
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)
	data := encodePNG(t, createTestImage(300, 200))

	out, err := c.Compose(context.Background(), data, "image/png", RatioTall, FitPad)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 300, out.Width)
	assert.Equal(t, 533, out.Height)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 533), decoded.Bounds())

	_, err = c.Compose(context.Background(), []byte("junk"), "image/png", RatioTall, FitPad)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestCanceledContext(t *testing.T) {
	c := NewCompositor(DefaultTuning(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Pad(ctx, createTestImage(10, 20), RatioSquare)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Crop(ctx, createTestImage(10, 20), RatioSquare)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Compose(ctx, encodePNG(t, createTestImage(10, 20)), "image/png", RatioSquare, FitPad)
	assert.ErrorIs(t, err, context.Canceled)
}

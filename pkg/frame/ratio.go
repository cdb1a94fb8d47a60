package frame

import (
	"fmt"
	"strings"
)

// Ratio is a target width:height proportion.
type Ratio string

// Supported aspect ratios.
const (
	RatioSquare    Ratio = "1:1"
	RatioWide      Ratio = "16:9"
	RatioTall      Ratio = "9:16"
	RatioLandscape Ratio = "4:3"
	RatioPortrait  Ratio = "3:4"
)

var ratioDims = map[Ratio][2]int{
	RatioSquare:    {1, 1},
	RatioWide:      {16, 9},
	RatioTall:      {9, 16},
	RatioLandscape: {4, 3},
	RatioPortrait:  {3, 4},
}

// Ratios returns the supported ratios in display order.
func Ratios() []Ratio {
	return []Ratio{RatioSquare, RatioWide, RatioTall, RatioLandscape, RatioPortrait}
}

// ParseRatio parses "W:H". Only the supported ratios are accepted.
func ParseRatio(s string) (Ratio, error) {
	r := Ratio(strings.TrimSpace(s))
	if _, ok := ratioDims[r]; !ok {
		return "", fmt.Errorf("unsupported aspect ratio %q", s)
	}
	return r, nil
}

// Dims returns the width and height terms of the ratio.
func (r Ratio) Dims() (int, int) {
	d, ok := ratioDims[r]
	if !ok {
		return 1, 1
	}
	return d[0], d[1]
}

// Value returns width divided by height.
func (r Ratio) Value() float64 {
	w, h := r.Dims()
	return float64(w) / float64(h)
}

func (r Ratio) String() string {
	return string(r)
}

// Fit selects how a source is made to match a ratio.
type Fit string

// Fit modes.
const (
	FitPad  Fit = "pad"  // letterbox onto a black canvas
	FitCrop Fit = "crop" // smart crop, face aware when a cascade is loaded
)

// Fits returns the supported fit modes.
func Fits() []Fit {
	return []Fit{FitPad, FitCrop}
}

// ParseFit parses a fit mode. The empty string means FitPad.
func ParseFit(s string) (Fit, error) {
	switch Fit(strings.ToLower(strings.TrimSpace(s))) {
	case "", FitPad:
		return FitPad, nil
	case FitCrop:
		return FitCrop, nil
	}
	return "", fmt.Errorf("unsupported fit mode %q", s)
}

package generation

import (
	"fmt"
	"strings"
)

// Style is a named visual style appended to the prompt.
type Style string

// Supported styles.
const (
	StyleNone           Style = "none"
	StylePhotorealistic Style = "photorealistic"
	StyleCinematic      Style = "cinematic"
	StyleAnime          Style = "anime"
	StyleDigitalArt     Style = "digital-art"
	StyleWatercolor     Style = "watercolor"
	StyleOilPainting    Style = "oil-painting"
	Style3DRender       Style = "3d-render"
	StylePixelArt       Style = "pixel-art"
	StyleLineArt        Style = "line-art"
)

type styleInfo struct {
	label  string
	suffix string
}

var styles = map[Style]styleInfo{
	StyleNone:           {"No style", ""},
	StylePhotorealistic: {"Photorealistic", "photorealistic, natural lighting, sharp focus, high detail"},
	StyleCinematic:      {"Cinematic", "cinematic still, dramatic lighting, shallow depth of field, film grain"},
	StyleAnime:          {"Anime", "anime style, clean line work, vibrant cel shading"},
	StyleDigitalArt:     {"Digital art", "digital painting, concept art, rich colours"},
	StyleWatercolor:     {"Watercolor", "watercolor painting, soft washes, visible paper texture"},
	StyleOilPainting:    {"Oil painting", "oil painting, thick brush strokes, classical composition"},
	Style3DRender:       {"3D render", "3D render, global illumination, physically based materials"},
	StylePixelArt:       {"Pixel art", "pixel art, limited palette, crisp pixels"},
	StyleLineArt:        {"Line art", "black and white line art, clean ink outlines, no shading"},
}

// Styles returns every style in display order.
func Styles() []Style {
	return []Style{
		StyleNone, StylePhotorealistic, StyleCinematic, StyleAnime, StyleDigitalArt,
		StyleWatercolor, StyleOilPainting, Style3DRender, StylePixelArt, StyleLineArt,
	}
}

// ParseStyle parses a style tag. The empty string means StyleNone.
func ParseStyle(s string) (Style, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StyleNone, nil
	}
	if _, ok := styles[Style(s)]; !ok {
		return "", fmt.Errorf("unsupported style %q", s)
	}
	return Style(s), nil
}

// Label is the human-readable style name.
func (s Style) Label() string {
	return styles[s].label
}

// Suffix is the prompt fragment for the style; empty for StyleNone.
func (s Style) Suffix() string {
	return styles[s].suffix
}

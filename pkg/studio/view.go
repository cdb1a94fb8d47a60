package studio

import (
	"time"

	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
)

// Kind is what the page currently displays.
type Kind string

// View kinds. Exactly one is shown at a time.
const (
	KindEmpty   Kind = "empty"
	KindLoading Kind = "loading"
	KindError   Kind = "error"
	KindImage   Kind = "image"
)

// View is the single thing the page displays.
type View struct {
	Kind     Kind        `json:"kind"`
	Message  string      `json:"message,omitempty"` // loading line or error text
	Result   *ResultInfo `json:"result,omitempty"`  // set only for KindImage
	CanRetry bool        `json:"can_retry"`
	Seq      int         `json:"seq"`
}

// Result is a composited image held for display and download.
type Result struct {
	ID          string
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Ratio       frame.Ratio
	Fit         frame.Fit
	Mode        generation.Mode
	CreatedAt   time.Time
}

// ResultInfo is the metadata of a Result without its bytes.
type ResultInfo struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Ratio       frame.Ratio     `json:"aspect_ratio"`
	Fit         frame.Fit       `json:"fit"`
	Mode        generation.Mode `json:"mode"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Info returns the result's metadata.
func (r *Result) Info() *ResultInfo {
	return &ResultInfo{
		ID:          r.ID,
		URL:         "/api/images/" + r.ID,
		ContentType: r.ContentType,
		Width:       r.Width,
		Height:      r.Height,
		Ratio:       r.Ratio,
		Fit:         r.Fit,
		Mode:        r.Mode,
		CreatedAt:   r.CreatedAt,
	}
}

// Filename is a download name for the result.
func (r *Result) Filename() string {
	ext := ".png"
	if r.ContentType == "image/jpeg" {
		ext = ".jpg"
	}
	return "framer-" + r.CreatedAt.Format("20060102-150405") + ext
}

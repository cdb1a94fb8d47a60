package studio

import (
	"fmt"

	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
)

// Params are the form values of one generation.
type Params struct {
	Prompt         string                     `json:"prompt"`
	NegativePrompt string                     `json:"negative_prompt,omitempty"`
	Style          generation.Style           `json:"style,omitempty"`
	Ratio          frame.Ratio                `json:"aspect_ratio"`
	Fit            frame.Fit                  `json:"fit,omitempty"`
	Reference      *generation.ReferenceImage `json:"-"`
}

// Defaults are applied to empty Params fields.
type Defaults struct {
	Style generation.Style
	Ratio frame.Ratio
	Fit   frame.Fit
}

// request validates p and builds the generation request.
func (p *Params) request(d Defaults) (*generation.Request, error) {
	if p.Style == "" {
		p.Style = d.Style
	}
	if p.Ratio == "" {
		p.Ratio = d.Ratio
	}
	if p.Fit == "" {
		p.Fit = d.Fit
	}

	fit, err := frame.ParseFit(string(p.Fit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	p.Fit = fit

	req, err := generation.BuildRequest(generation.Params{
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Style:          p.Style,
		Ratio:          p.Ratio,
		Reference:      p.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return req, nil
}

package generation

import (
	"fmt"
	"strings"

	"github.com/dixieflatline76/Framer/pkg/frame"
)

// Mode is the kind of call a Request makes.
type Mode string

// Request modes.
const (
	ModeTextToImage Mode = "text-to-image"
	ModeImageEdit   Mode = "image-edit"
)

// ReferenceImage is an uploaded photo that guides an edit.
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// Params are the user-facing inputs to a generation.
type Params struct {
	Prompt         string
	NegativePrompt string
	Style          Style
	Ratio          frame.Ratio
	Reference      *ReferenceImage
}

// Request is a validated, ready to send generation call.
type Request struct {
	params Params
	text   string
}

// BuildRequest validates p and composes the prompt text for its mode.
func BuildRequest(p Params) (*Request, error) {
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.NegativePrompt = strings.TrimSpace(p.NegativePrompt)
	if p.Prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if p.Style == "" {
		p.Style = StyleNone
	}
	if _, ok := styles[p.Style]; !ok {
		return nil, fmt.Errorf("unsupported style %q", p.Style)
	}
	if _, err := frame.ParseRatio(string(p.Ratio)); err != nil {
		return nil, err
	}
	if p.Reference != nil && len(p.Reference.Data) == 0 {
		p.Reference = nil
	}

	r := &Request{params: p}
	if r.Mode() == ModeImageEdit {
		r.text = editInstruction(p)
	} else {
		r.text = textPrompt(p)
	}
	return r, nil
}

// Mode reports whether the request is text-to-image or a reference edit.
func (r *Request) Mode() Mode {
	if r.params.Reference != nil {
		return ModeImageEdit
	}
	return ModeTextToImage
}

// Text is the prompt or instruction sent to the model.
func (r *Request) Text() string {
	return r.text
}

// Ratio is the requested aspect ratio.
func (r *Request) Ratio() frame.Ratio {
	return r.params.Ratio
}

// Reference is the guiding image, nil in text-to-image mode.
func (r *Request) Reference() *ReferenceImage {
	return r.params.Reference
}

// Params returns the normalised parameters.
func (r *Request) Params() Params {
	return r.params
}

func textPrompt(p Params) string {
	var b strings.Builder
	b.WriteString(sentence(p.Prompt))
	if suffix := p.Style.Suffix(); suffix != "" {
		b.WriteString(" Style: " + sentence(suffix))
	}
	if p.NegativePrompt != "" {
		b.WriteString(" Avoid: " + sentence(p.NegativePrompt))
	}
	return b.String()
}

func editInstruction(p Params) string {
	var b strings.Builder
	b.WriteString("Create a new image of the person in the attached photo. ")
	b.WriteString("Preserve their likeness exactly: keep the same face, facial features, skin tone, hair and overall identity so they are clearly recognisable. ")
	b.WriteString("Place them in this scene: " + sentence(p.Prompt))
	if suffix := p.Style.Suffix(); suffix != "" {
		b.WriteString(" Render it in this style: " + sentence(suffix))
	}
	if p.NegativePrompt != "" {
		b.WriteString(" Avoid: " + sentence(p.NegativePrompt))
	}
	b.WriteString(fmt.Sprintf(" Compose the image for a %s aspect ratio.", p.Ratio))
	return b.String()
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

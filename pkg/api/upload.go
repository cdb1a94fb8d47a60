package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dixieflatline76/Framer/pkg/frame"
	"github.com/dixieflatline76/Framer/pkg/generation"
	"github.com/dixieflatline76/Framer/pkg/studio"
)

var errUploadTooLarge = errors.New("upload too large")

var allowedUploadTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/heic", "image/heif"}

type generateBody struct {
	Prompt            string `json:"prompt"`
	NegativePrompt    string `json:"negative_prompt"`
	Style             string `json:"style"`
	AspectRatio       string `json:"aspect_ratio"`
	Fit               string `json:"fit"`
	Reference         []byte `json:"reference,omitempty"` // base64 in JSON
	ReferenceMIMEType string `json:"reference_mime_type,omitempty"`
}

// parseParams reads generation parameters from a JSON body or a multipart form.
func (s *Server) parseParams(w http.ResponseWriter, r *http.Request) (studio.Params, error) {
	// Leave room for the form fields around the file.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes*2+(1<<20))

	var body generateBody
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return studio.Params{}, err
			}
			return studio.Params{}, fmt.Errorf("invalid request body")
		}
	case "multipart/form-data", "application/x-www-form-urlencoded":
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return studio.Params{}, err
		}
		body.Prompt = r.FormValue("prompt")
		body.NegativePrompt = r.FormValue("negative_prompt")
		body.Style = r.FormValue("style")
		body.AspectRatio = r.FormValue("aspect_ratio")
		body.Fit = r.FormValue("fit")

		data, mimeType, err := s.readReference(r)
		if err != nil {
			return studio.Params{}, err
		}
		body.Reference, body.ReferenceMIMEType = data, mimeType
	default:
		return studio.Params{}, fmt.Errorf("unsupported content type %q", mediaType)
	}

	return s.toParams(body)
}

func (s *Server) toParams(body generateBody) (studio.Params, error) {
	p := studio.Params{
		Prompt:         body.Prompt,
		NegativePrompt: body.NegativePrompt,
		Ratio:          frame.Ratio(strings.TrimSpace(body.AspectRatio)),
	}

	// Blank fields fall back to the studio defaults.
	if strings.TrimSpace(body.Style) != "" {
		style, err := generation.ParseStyle(body.Style)
		if err != nil {
			return studio.Params{}, err
		}
		p.Style = style
	}
	if strings.TrimSpace(body.Fit) != "" {
		fit, err := frame.ParseFit(body.Fit)
		if err != nil {
			return studio.Params{}, err
		}
		p.Fit = fit
	}

	if len(body.Reference) > 0 {
		if int64(len(body.Reference)) > s.opts.MaxUploadBytes {
			return studio.Params{}, errUploadTooLarge
		}
		mimeType, err := uploadType(body.Reference, body.ReferenceMIMEType, "")
		if err != nil {
			return studio.Params{}, err
		}
		p.Reference = &generation.ReferenceImage{Data: body.Reference, MIMEType: mimeType}
	}
	return p, nil
}

// readReference returns the optional "reference" file of a multipart form.
func (s *Server) readReference(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("reference")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading reference image: %w", err)
	}
	defer file.Close()

	if header.Size > s.opts.MaxUploadBytes {
		return nil, "", errUploadTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading reference image: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, "", errUploadTooLarge
	}
	if len(data) == 0 {
		return nil, "", nil
	}

	mimeType, err := uploadType(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// uploadType resolves and checks the MIME type of an upload from its bytes.
// The declared type and file extension only choose between HEIC and HEIF,
// which http.DetectContentType does not recognise.
func uploadType(data []byte, declared, filename string) (string, error) {
	sniffed := http.DetectContentType(data)
	for _, allowed := range allowedUploadTypes {
		if sniffed == allowed {
			return sniffed, nil
		}
	}

	if isHEIF(data) {
		mt, _, _ := mime.ParseMediaType(declared)
		if mt == "image/heic" || mt == "image/heif" {
			return mt, nil
		}
		if strings.ToLower(filepath.Ext(filename)) == ".heif" {
			return "image/heif", nil
		}
		return "image/heic", nil
	}

	return "", fmt.Errorf("unsupported reference image type %q; use PNG, JPEG, WebP, GIF or HEIC", sniffed)
}

var heifBrands = []string{"heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1"}

// isHEIF reports whether data starts with an ISO BMFF ftyp box of a HEIF brand.
func isHEIF(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	for _, b := range heifBrands {
		if brand == b {
			return true
		}
	}
	return false
}

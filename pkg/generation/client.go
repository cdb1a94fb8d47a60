package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/dixieflatline76/Framer/util/log"
)

const enhanceInstruction = `You improve prompts for an image generation model.
Rewrite the user's idea as one vivid, concrete prompt of at most 80 words: name the subject, setting, lighting, composition and mood.
Keep every element the user asked for. Reply with the prompt text only, without quotes, lists or commentary.`

// Image is a single generated image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator produces images and prompt suggestions.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Image, error)
	Enhance(ctx context.Context, prompt string) (string, error)
}

// modelService is the subset of *genai.Models the client calls.
type modelService interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Client.
type Options struct {
	APIKey            string
	ImageModel        string
	EditModel         string
	TextModel         string
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client calls the Gemini API. It is safe for concurrent use.
type Client struct {
	models     modelService
	imageModel string
	editModel  string
	textModel  string
	limiter    *rate.Limiter
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, serviceError(ErrConfiguration, "missing API key")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create genai client: %v", ErrConfiguration, err)
	}

	return newClient(client.Models, opts), nil
}

func newClient(models modelService, opts Options) *Client {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	return &Client{
		models:     models,
		imageModel: opts.ImageModel,
		editModel:  opts.EditModel,
		textModel:  opts.TextModel,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

// Generate sends exactly one request and returns the single image it produced.
func (c *Client) Generate(ctx context.Context, req *Request) (*Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var img *Image
	var err error
	switch req.Mode() {
	case ModeImageEdit:
		img, err = c.edit(ctx, req)
	default:
		img, err = c.textToImage(ctx, req)
	}
	if err != nil {
		log.Printf("generation (%s) failed after %v: %v", req.Mode(), time.Since(start), err)
		return nil, err
	}

	log.Printf("generation (%s) returned %d bytes of %s in %v", req.Mode(), len(img.Data), img.MIMEType, time.Since(start))
	return img, nil
}

func (c *Client) textToImage(ctx context.Context, req *Request) (*Image, error) {
	log.Debugf("GenerateImages model=%s ratio=%s prompt=%q", c.imageModel, req.Ratio(), req.Text())

	resp, err := c.models.GenerateImages(ctx, c.imageModel, req.Text(), &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      string(req.Ratio()),
		OutputMIMEType:   "image/png",
		IncludeRAIReason: true,
	})
	if err != nil {
		return nil, classify(err)
	}

	var filtered string
	for _, gen := range resp.GeneratedImages {
		if gen == nil {
			continue
		}
		if gen.Image != nil && len(gen.Image.ImageBytes) > 0 {
			mime := gen.Image.MIMEType
			if mime == "" {
				mime = http.DetectContentType(gen.Image.ImageBytes)
			}
			return &Image{Data: gen.Image.ImageBytes, MIMEType: mime}, nil
		}
		if gen.RAIFilteredReason != "" {
			filtered = gen.RAIFilteredReason
		}
	}

	if filtered != "" {
		return nil, serviceError(ErrSafetyBlocked, filtered)
	}
	return nil, ErrNoImage
}

func (c *Client) edit(ctx context.Context, req *Request) (*Image, error) {
	ref := req.Reference()
	log.Debugf("GenerateContent model=%s ratio=%s reference=%s (%d bytes)", c.editModel, req.Ratio(), ref.MIMEType, len(ref.Data))

	parts := []*genai.Part{
		genai.NewPartFromBytes(ref.Data, ref.MIMEType),
		genai.NewPartFromText(req.Text()),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.models.GenerateContent(ctx, c.editModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, classify(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		detail := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			detail = resp.PromptFeedback.BlockReasonMessage
		}
		return nil, serviceError(ErrSafetyBlocked, detail)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, ErrNoImage
	}

	cand := resp.Candidates[0]
	var text []string
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = http.DetectContentType(part.InlineData.Data)
				}
				return &Image{Data: part.InlineData.Data, MIMEType: mime}, nil
			}
			if part.Text != "" {
				text = append(text, strings.TrimSpace(part.Text))
			}
		}
	}

	if isSafetyFinish(string(cand.FinishReason)) {
		return nil, serviceError(ErrSafetyBlocked, string(cand.FinishReason))
	}
	return nil, serviceError(ErrNoImage, strings.Join(text, " "))
}

// Enhance asks the text model for a richer version of prompt.
func (c *Client) Enhance(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(enhanceInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.9),
	})
	if err != nil {
		return "", classify(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", serviceError(ErrSafetyBlocked, string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoSuggestion
	}

	suggestion := strings.Trim(strings.TrimSpace(resp.Text()), `"'`)
	if suggestion == "" {
		return "", ErrNoSuggestion
	}
	return suggestion, nil
}

func isSafetyFinish(reason string) bool {
	switch reason {
	case "SAFETY", "IMAGE_SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII", "IMAGE_PROHIBITED_CONTENT":
		return true
	}
	return false
}

// classify maps a transport or API error onto the package sentinels.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return fmt.Errorf("calling image service: %w", err)
	}

	detail := apiErr.Message
	if detail == "" {
		detail = apiErr.Status
	}
	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return serviceError(ErrConfiguration, detail)
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "api key"):
		return serviceError(ErrConfiguration, detail)
	case apiErr.Code == http.StatusTooManyRequests:
		return serviceError(ErrRejected, "quota exceeded, try again later")
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return serviceError(ErrRejected, detail)
	}
	return fmt.Errorf("image service error %d: %s", apiErr.Code, detail)
}

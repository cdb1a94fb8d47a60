package generation

import (
	"context"
	"errors"

	"github.com/dixieflatline76/Framer/pkg/frame"
)

var (
	// ErrSafetyBlocked means the service refused the prompt or image on safety grounds.
	ErrSafetyBlocked = errors.New("blocked by safety filters")
	// ErrRejected means the service rejected the request as invalid or over quota.
	ErrRejected = errors.New("request rejected by the image service")
	// ErrNoImage means the service answered without an image.
	ErrNoImage = errors.New("no image returned")
	// ErrNoSuggestion means the text model answered without text.
	ErrNoSuggestion = errors.New("no suggestion returned")
	// ErrConfiguration means the client is missing or has a bad API key.
	ErrConfiguration = errors.New("image service is not configured")
	// ErrEmptyPrompt means no prompt text was given.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// ServiceError attaches the service's own explanation to one of the sentinels.
type ServiceError struct {
	Kind   error
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func serviceError(kind error, detail string) error {
	return &ServiceError{Kind: kind, Detail: detail}
}

// Describe turns any failure into a message suitable for showing to a user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var detail string
	var se *ServiceError
	if errors.As(err, &se) {
		detail = se.Detail
	}
	withDetail := func(msg string) string {
		if detail == "" {
			return msg
		}
		return msg + " (" + detail + ")"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The image service took too long to respond. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, ErrEmptyPrompt):
		return "Please describe the image you want."
	case errors.Is(err, ErrSafetyBlocked):
		return withDetail("This request was blocked by the safety filters. Try rephrasing the prompt or using a different reference image.")
	case errors.Is(err, ErrConfiguration):
		return withDetail("The image service is not configured correctly. Check the API key.")
	case errors.Is(err, ErrRejected):
		return withDetail("The image service rejected the request.")
	case errors.Is(err, ErrNoImage):
		return withDetail("No image was returned. Try again or adjust the prompt.")
	case errors.Is(err, ErrNoSuggestion):
		return "No suggestion was returned. Please try again."
	case errors.Is(err, frame.ErrDecode):
		return "The returned image could not be read."
	}
	return "Something went wrong: " + err.Error()
}

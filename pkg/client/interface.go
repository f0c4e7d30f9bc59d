package client

import (
	"context"

	"github.com/menta2k/image-captioner/pkg/types"
)

// CaptionClient is the contract every vision backend satisfies.
type CaptionClient interface {
	// Load makes sure the model weights are resident on the backend.
	// First call may download the model and take minutes.
	Load(ctx context.Context, model string) error

	// Caption asks the model to describe a base64-encoded image and returns
	// zero or more caption candidates.
	Caption(ctx context.Context, model, prompt, imgB64 string) ([]types.Candidate, error)
}

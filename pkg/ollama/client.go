package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/image-captioner/pkg/device"
	"github.com/menta2k/image-captioner/pkg/types"
)

// Client wraps the Ollama API client for image captioning.
type Client struct {
	client *api.Client
	device device.Choice
}

// NewClient creates a new Ollama client bound to the given device choice.
func NewClient(ollamaURL string, dev device.Choice) (*Client, error) {
	// Parse the provided URL
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	// Create client with the specified URL, ignoring environment
	client := api.NewClient(baseURL, http.DefaultClient)

	return &Client{client: client, device: dev}, nil
}

// options translates the device choice into Ollama runtime options.
// num_gpu=0 keeps every layer off the GPU.
func (c *Client) options() map[string]any {
	opts := map[string]any{}
	if c.device == device.CPU {
		opts["num_gpu"] = 0
	}
	return opts
}

// Load issues an empty generate request, which instructs Ollama to pull the
// model into memory and keep it resident. The first call may download the
// weights and can take minutes on a cold server.
func (c *Client) Load(ctx context.Context, model string) error {
	// Add timeout if context doesn't have one (cold loads are slow)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	req := &api.GenerateRequest{
		Model:   model,
		Options: c.options(),
	}

	err := c.client.Generate(ctx, req, func(api.GenerateResponse) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama load error: %v", err)
	}
	return nil
}

// Caption sends the image to the vision model and returns the generated
// caption candidates. Ollama produces a single completion per request, so
// the result holds at most one candidate.
func (c *Client) Caption(ctx context.Context, model, prompt, imgB64 string) ([]types.Candidate, error) {
	// Add timeout if context doesn't have one (vision models are slow on CPU)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	// Decode base64 image to raw bytes
	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: c.options(),
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}

	if responseContent == "" {
		return nil, nil
	}

	return []types.Candidate{{GeneratedText: responseContent}}, nil
}

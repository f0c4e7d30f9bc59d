// Package captioner generates natural-language descriptions of images using
// pretrained vision-language models served by Ollama or a llama.cpp server.
//
// The model is loaded lazily on the first caption request and cached for the
// process lifetime. Accelerated hardware is used when available; if the first
// load fails there, the library falls back to CPU once and stays on CPU.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		captioner "github.com/menta2k/image-captioner"
//	)
//
//	func main() {
//		c, err := captioner.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := c.CaptionFile(context.Background(), "photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Println(result)
//	}
//
// The package consists of four main components:
//
// 1. Device (pkg/device): picks accelerated hardware or CPU at startup
// 2. Loader (pkg/loader): lazy once-only model loading with CPU fallback
// 3. Caption (pkg/caption): normalization, inference and error classification
// 4. Backends (pkg/ollama, pkg/llamacpp): inference server clients
//
// Every captioning call returns a display-ready string: either the trimmed
// caption behind a success marker or a guidance message describing what went
// wrong. Errors are only returned for problems outside the captioning
// pipeline itself, such as an unreadable input file.
package captioner

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/menta2k/image-captioner/pkg/caption"
	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/device"
	"github.com/menta2k/image-captioner/pkg/llamacpp"
	"github.com/menta2k/image-captioner/pkg/loader"
	"github.com/menta2k/image-captioner/pkg/ollama"
	"github.com/menta2k/image-captioner/pkg/processing"
	"github.com/menta2k/image-captioner/pkg/types"
)

// Version of the image captioner library
const Version = "1.0.0"

// Options configures a Captioner.
type Options struct {
	// Backend picks the inference server flavor. Defaults to Ollama.
	Backend types.Backend
	// BackendURL is the inference server address. Empty selects the
	// conventional local address for the chosen backend.
	BackendURL string
	// Model overrides loader.DefaultModel.
	Model string
	// Device forces a device choice. Empty means detect at construction.
	Device device.Choice
	// Factory overrides backend construction entirely, mainly for tests.
	Factory loader.Factory
	// Caption tunes prompt and image delivery.
	Caption caption.Options
}

// Captioner provides a high-level interface for image captioning
type Captioner struct {
	loader    *loader.Loader
	service   *caption.Service
	processor *processing.Processor
}

// New creates a Captioner with default configuration: Ollama on
// localhost, the default model and auto-detected device.
func New() (*Captioner, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Captioner with custom configuration
func NewWithOptions(opts Options) (*Captioner, error) {
	if opts.Backend == "" {
		opts.Backend = types.BackendOllama
	}
	if !opts.Backend.Valid() {
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", opts.Backend)
	}
	if opts.Model == "" {
		opts.Model = loader.DefaultModel
	}
	if opts.Device == "" {
		opts.Device = device.Detect()
	}
	if opts.Factory == nil {
		opts.Factory = BackendFactory(opts.Backend, opts.BackendURL)
	}
	if opts.Caption == (caption.Options{}) {
		opts.Caption = caption.DefaultOptions()
	}

	l := loader.New(opts.Model, opts.Device, opts.Factory)

	return &Captioner{
		loader:    l,
		service:   caption.NewWithOptions(l, opts.Caption),
		processor: processing.NewProcessor(),
	}, nil
}

// BackendFactory returns a loader.Factory for the given backend flavor.
func BackendFactory(backend types.Backend, url string) loader.Factory {
	return func(dev device.Choice) (client.CaptionClient, error) {
		switch backend {
		case types.BackendLlamaCpp:
			if url == "" {
				url = "http://localhost:8080"
			}
			return llamacpp.NewClient(url, dev)
		default:
			target := url
			if target == "" {
				target = "http://localhost:11434"
			}
			return ollama.NewClient(target, dev)
		}
	}
}

// CaptionImage generates a caption for an in-memory image. The result is
// always a display-ready string.
func (c *Captioner) CaptionImage(ctx context.Context, img image.Image) string {
	return c.service.GenerateCaption(ctx, img)
}

// CaptionFile loads an image from a file and captions it.
func (c *Captioner) CaptionFile(ctx context.Context, path string) (string, error) {
	img, err := c.processor.LoadImage(path)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	return c.service.GenerateCaption(ctx, img), nil
}

// CaptionReader decodes an image from a stream and captions it.
func (c *Captioner) CaptionReader(ctx context.Context, reader io.Reader) (string, error) {
	img, err := c.processor.LoadImageFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return c.service.GenerateCaption(ctx, img), nil
}

// CaptionSource captions an image from a file path or http(s) URL.
func (c *Captioner) CaptionSource(ctx context.Context, source string) (string, error) {
	img, err := c.processor.LoadImageSmart(source)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	return c.service.GenerateCaption(ctx, img), nil
}

// EnsureLoaded warms the model up front instead of on the first request.
func (c *Captioner) EnsureLoaded(ctx context.Context) error {
	_, err := c.loader.EnsureLoaded(ctx)
	return err
}

// Device returns the current device choice.
func (c *Captioner) Device() device.Choice {
	return c.loader.Device()
}

// Service exposes the underlying caption service, e.g. for a web front end.
func (c *Captioner) Service() *caption.Service {
	return c.service
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

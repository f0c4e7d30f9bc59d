// Package caption turns an uploaded image into a natural-language
// description using a lazily loaded vision-language model.
package caption

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/menta2k/image-captioner/pkg/loader"
	"github.com/menta2k/image-captioner/pkg/processing"
)

// DefaultPrompt is the instruction sent to the model alongside the image.
const DefaultPrompt = "Describe this image in one short sentence."

// User-facing messages, displayed verbatim by the web form.
const (
	msgNoImage = "❌ Please upload an image first!"

	msgLoadFailed = "❌ Failed to load AI model. This might be due to:\n" +
		"• Internet connection issues\n" +
		"• Insufficient memory\n" +
		"• Missing dependencies\n\n" +
		"Please try restarting the application."

	msgEmptyResult = "❌ Could not generate a caption for this image."

	msgOutOfMemory = "❌ Out of memory error. Try:\n" +
		"• Using a smaller image\n" +
		"• Restarting the application\n" +
		"• Using CPU instead of GPU"

	msgNetwork = "❌ Network error. Please check your internet connection."
)

// Options tunes how images are handed to the model.
type Options struct {
	Prompt      string
	SendFormat  string // jpg or png
	SendMaxDim  int    // max long side in px, 0 keeps original
	SendQuality int    // JPEG quality 1-100
}

// DefaultOptions returns the settings used by New.
func DefaultOptions() Options {
	return Options{
		Prompt:      DefaultPrompt,
		SendFormat:  "jpg",
		SendMaxDim:  1536,
		SendQuality: 85,
	}
}

// Service generates captions for images. All failure paths are converted
// into human-readable strings; no error ever reaches the caller.
type Service struct {
	loader    *loader.Loader
	processor *processing.Processor
	opts      Options
}

// New creates a caption service with default options.
func New(l *loader.Loader) *Service {
	return NewWithOptions(l, DefaultOptions())
}

// NewWithOptions creates a caption service with custom send options.
func NewWithOptions(l *loader.Loader, opts Options) *Service {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.SendFormat == "" {
		opts.SendFormat = "jpg"
	}
	if opts.SendQuality == 0 {
		opts.SendQuality = 85
	}
	return &Service{
		loader:    l,
		processor: processing.NewProcessor(),
		opts:      opts,
	}
}

// GenerateCaption describes the image. The returned string is either the
// trimmed caption prefixed with a success marker or a guidance message for
// one of the failure categories.
func (s *Service) GenerateCaption(ctx context.Context, img image.Image) string {
	if img == nil {
		slog.Info("caption requested without an image")
		return msgNoImage
	}

	handle, err := s.loader.EnsureLoaded(ctx)
	if err != nil {
		return msgLoadFailed
	}

	// The model expects three-channel color input
	if !processing.IsThreeChannel(img) {
		img = s.processor.NormalizeColor(img)
		slog.Info("converted image to RGB format")
	}

	imgB64, err := s.processor.PrepareImageForModel(img, s.opts.SendFormat, s.opts.SendMaxDim, s.opts.SendQuality)
	if err != nil {
		slog.Error("failed to encode image for model", "error", err)
		return fmt.Sprintf("❌ Processing error: %v", err)
	}

	slog.Info("processing image")
	candidates, err := handle.Client.Caption(ctx, handle.Model, s.opts.Prompt, imgB64)
	if err != nil {
		slog.Error("caption generation failed", "error", err, "kind", ClassifyError(err.Error()))
		return guidanceFor(err)
	}

	if len(candidates) == 0 {
		slog.Warn("model returned empty result")
		return msgEmptyResult
	}

	result := strings.TrimSpace(candidates[0].GeneratedText)
	slog.Info("generated caption", "caption", result)
	return "🎯 " + result
}

// guidanceFor converts an inference failure into user-facing text.
func guidanceFor(err error) string {
	switch ClassifyError(err.Error()) {
	case KindOutOfMemory:
		return msgOutOfMemory
	case KindConnectivity:
		return msgNetwork
	default:
		return fmt.Sprintf("❌ Processing error: %v", err)
	}
}

package captioner

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/device"
	"github.com/menta2k/image-captioner/pkg/loader"
	"github.com/menta2k/image-captioner/pkg/types"
)

type stubClient struct {
	loadCalls int
}

func (s *stubClient) Load(ctx context.Context, model string) error {
	s.loadCalls++
	return nil
}

func (s *stubClient) Caption(ctx context.Context, model, prompt, imgB64 string) ([]types.Candidate, error) {
	return []types.Candidate{{GeneratedText: "  a facade caption  "}}, nil
}

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

func newStubCaptioner(t *testing.T) (*Captioner, *stubClient) {
	t.Helper()

	stub := &stubClient{}
	c, err := NewWithOptions(Options{
		Device: device.CPU,
		Factory: func(device.Choice) (client.CaptionClient, error) {
			return stub, nil
		},
	})
	if err != nil {
		t.Fatalf("NewWithOptions failed: %v", err)
	}
	return c, stub
}

func TestNewWithOptionsRejectsUnknownBackend(t *testing.T) {
	if _, err := NewWithOptions(Options{Backend: "tensorflow"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestCaptionImage(t *testing.T) {
	c, _ := newStubCaptioner(t)

	result := c.CaptionImage(context.Background(), createTestImage(64, 48))

	if result != "🎯 a facade caption" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestCaptionImageNil(t *testing.T) {
	c, stub := newStubCaptioner(t)

	result := c.CaptionImage(context.Background(), nil)

	if !strings.Contains(result, "Please upload an image first!") {
		t.Errorf("unexpected result: %q", result)
	}
	if stub.loadCalls != 0 {
		t.Error("nil image must not load the model")
	}
}

func TestCaptionReader(t *testing.T) {
	c, _ := newStubCaptioner(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(32, 32)); err != nil {
		t.Fatal(err)
	}

	result, err := c.CaptionReader(context.Background(), &buf)
	if err != nil {
		t.Fatalf("CaptionReader failed: %v", err)
	}
	if !strings.Contains(result, "a facade caption") {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestCaptionReaderBadData(t *testing.T) {
	c, _ := newStubCaptioner(t)

	if _, err := c.CaptionReader(context.Background(), strings.NewReader("junk")); err == nil {
		t.Error("expected an error for undecodable data")
	}
}

func TestEnsureLoadedWarmsTheModel(t *testing.T) {
	c, stub := newStubCaptioner(t)

	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded failed: %v", err)
	}
	if stub.loadCalls != 1 {
		t.Errorf("expected 1 load call, got %d", stub.loadCalls)
	}

	// A caption afterwards reuses the warm handle
	c.CaptionImage(context.Background(), createTestImage(16, 16))
	if stub.loadCalls != 1 {
		t.Errorf("caption after warmup should not reload, got %d load calls", stub.loadCalls)
	}
}

func TestDeviceAccessor(t *testing.T) {
	c, _ := newStubCaptioner(t)
	if c.Device() != device.CPU {
		t.Errorf("unexpected device: %s", c.Device())
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %q, want %q", GetVersion(), Version)
	}
}

func TestDefaultModelUsed(t *testing.T) {
	c, _ := newStubCaptioner(t)

	if err := c.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded failed: %v", err)
	}
	// Default model comes from the loader package
	if loader.DefaultModel == "" {
		t.Fatal("loader.DefaultModel must not be empty")
	}
}

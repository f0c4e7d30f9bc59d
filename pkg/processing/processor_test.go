package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

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

func TestDecodeImagePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(40, 30)); err != nil {
		t.Fatal(err)
	}

	img, err := NewProcessor().DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("unexpected bounds: %v", img.Bounds())
	}
}

func TestDecodeImageJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(40, 30), nil); err != nil {
		t.Fatal(err)
	}

	img, err := NewProcessor().DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 40 {
		t.Errorf("unexpected width: %d", img.Bounds().Dx())
	}
}

func TestDecodeImageGarbage(t *testing.T) {
	if _, err := NewProcessor().DecodeImage([]byte("not an image")); err == nil {
		t.Error("expected an error for garbage data")
	}
}

func TestLoadImageFromReader(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(20, 20)); err != nil {
		t.Fatal(err)
	}

	img, err := NewProcessor().LoadImageFromReader(&buf)
	if err != nil {
		t.Fatalf("LoadImageFromReader failed: %v", err)
	}
	if img.Bounds().Dx() != 20 {
		t.Errorf("unexpected width: %d", img.Bounds().Dx())
	}
}

func TestIsThreeChannel(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420), true},
		{"gray", image.NewGray(image.Rect(0, 0, 8, 8)), false},
		{"paletted", image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White}), false},
		{"transparent nrgba", image.NewNRGBA(image.Rect(0, 0, 8, 8)), false},
		{"opaque rgba", createTestImage(8, 8), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsThreeChannel(tt.img); got != tt.want {
				t.Errorf("IsThreeChannel(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNormalizeColor(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}

	out := NewProcessor().NormalizeColor(gray)

	if !out.Opaque() {
		t.Error("normalized image is not opaque")
	}
	if !IsThreeChannel(out) {
		t.Error("normalized image does not report three-channel encoding")
	}
	if out.Bounds() != gray.Bounds() {
		t.Errorf("normalization changed bounds: %v", out.Bounds())
	}
}

func TestNormalizeColorFlattensAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	// Fully transparent; flattening should yield the white background
	out := NewProcessor().NormalizeColor(img)

	r, g, b, a := out.At(1, 1).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("expected opaque white, got r=%d g=%d b=%d a=%d", r, g, b, a)
	}
}

func TestPrepareImageForModelResizes(t *testing.T) {
	p := NewProcessor()

	b64, err := p.PrepareImageForModel(createTestImage(3000, 1500), "jpg", 1024, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("result is not valid base64: %v", err)
	}

	img, err := p.DecodeImage(data)
	if err != nil {
		t.Fatalf("result is not a decodable image: %v", err)
	}
	if img.Bounds().Dx() != 1024 {
		t.Errorf("expected long side 1024, got %d", img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 512 {
		t.Errorf("expected aspect-preserving resize, got height %d", img.Bounds().Dy())
	}
}

func TestPrepareImageForModelKeepsSmallImages(t *testing.T) {
	p := NewProcessor()

	b64, err := p.PrepareImageForModel(createTestImage(200, 100), "png", 1024, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, _ := base64.StdEncoding.DecodeString(b64)
	img, err := p.DecodeImage(data)
	if err != nil {
		t.Fatalf("result is not a decodable image: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("small image should keep its size, got %v", img.Bounds())
	}
}

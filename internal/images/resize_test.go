package images_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/geocoder89/taskhub/internal/images"
)

// builds an in-memory JPEG of the given dimensions
func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	return buf.Bytes()
}

func TestNormalizeAvatarProducesFixedSizePNG(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{name: "landscape", width: 800, height: 300},
		{name: "portrait", width: 120, height: 900},
		{name: "tiny", width: 10, height: 10},
		{name: "already_square", width: 250, height: 250},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			out, err := images.NormalizeAvatar(makeJPEG(t, tt.width, tt.height))

			if err != nil {
				t.Fatalf("normalize avatar: %v", err)
			}

			decoded, err := png.Decode(bytes.NewReader(out))

			if err != nil {
				t.Fatalf("output is not a valid PNG: %v", err)
			}

			bounds := decoded.Bounds()

			if bounds.Dx() != images.AvatarSize || bounds.Dy() != images.AvatarSize {
				t.Fatalf("got %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), images.AvatarSize, images.AvatarSize)
			}
		})
	}
}

func TestNormalizeAvatarRejectsGarbage(t *testing.T) {
	if _, err := images.NormalizeAvatar([]byte("definitely not an image")); err == nil {
		t.Fatal("expected an error for undecodable input")
	}
}

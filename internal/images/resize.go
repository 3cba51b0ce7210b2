package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// AvatarSize is the fixed edge length of every stored avatar.
	AvatarSize = 250
)

// NormalizeAvatar decodes uploaded image bytes, center-crops and scales them
// onto a 250x250 canvas, and re-encodes as PNG regardless of input format.
func NormalizeAvatar(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data))

	if err != nil {
		return nil, fmt.Errorf("decode avatar image: %w", err)
	}

	img := imaging.Fill(src, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer

	err = imaging.Encode(&buf, img, imaging.PNG)

	if err != nil {
		return nil, fmt.Errorf("encode avatar png: %w", err)
	}

	return buf.Bytes(), nil
}

package canvas

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

var ErrNotDataURL = errors.New("not a PNG data URL")

// EncodeDataURL encodes img as a PNG data URL, the payload stored with every
// flower.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DataURLBytes returns the raw PNG bytes carried by a data URL.
func DataURLBytes(s string) ([]byte, error) {
	payload, ok := strings.CutPrefix(s, pngDataURLPrefix)
	if !ok {
		return nil, ErrNotDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return raw, nil
}

// DecodeDataURL decodes a PNG data URL back into an image.
func DecodeDataURL(s string) (image.Image, error) {
	raw, err := DataURLBytes(s)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

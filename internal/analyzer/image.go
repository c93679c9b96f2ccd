package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const MaxImageBytes = 10 << 20

var (
	ErrInvalidImage  = errors.New("please upload a valid image file")
	ErrImageTooLarge = errors.New("file size must be less than 10MB")
)

// Image is a validated upload.
type Image struct {
	Data      []byte
	MediaType string
	Format    string
	Width     int
	Height    int
	Filename  string
}

// visionFormats are accepted as-is by both inference providers.
var visionFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// ValidateImage checks an upload the same way the web client does (declared
// image/* type, under 10MB) and additionally that the bytes decode.
func ValidateImage(data []byte, contentType, filename string) (Image, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return Image{}, ErrInvalidImage
	}
	if len(data) == 0 {
		return Image{}, ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Image{
		Data:      data,
		MediaType: "image/" + format,
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Filename:  filename,
	}, nil
}

// ForVision returns an image in a format the providers accept, re-encoding
// GIF, BMP and TIFF uploads as PNG.
func (img Image) ForVision() (Image, error) {
	if mt, ok := visionFormats[img.Format]; ok {
		img.MediaType = mt
		return img, nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return Image{}, fmt.Errorf("transcode %s to png: %w", img.Format, err)
	}
	out := img
	out.Data = buf.Bytes()
	out.Format = "png"
	out.MediaType = "image/png"
	return out, nil
}

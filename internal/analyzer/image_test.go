package analyzer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 3), []color.Color{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	img, err := ValidateImage(encodePNG(t, 8, 5), "image/png", "scan.png")
	if err != nil {
		t.Fatalf("ValidateImage: %v", err)
	}
	if img.Format != "png" || img.MediaType != "image/png" || img.Width != 8 || img.Height != 5 || img.Filename != "scan.png" {
		t.Fatalf("unexpected image %+v", img)
	}
}

func TestValidateImageRejections(t *testing.T) {
	png := encodePNG(t, 2, 2)
	for _, tc := range []struct {
		name        string
		data        []byte
		contentType string
		want        error
	}{
		{name: "not image type", data: png, contentType: "application/pdf", want: ErrInvalidImage},
		{name: "empty", data: nil, contentType: "image/png", want: ErrInvalidImage},
		{name: "garbage", data: []byte("definitely not pixels"), contentType: "image/jpeg", want: ErrInvalidImage},
		{name: "too large", data: make([]byte, MaxImageBytes+1), contentType: "image/png", want: ErrImageTooLarge},
	} {
		if _, err := ValidateImage(tc.data, tc.contentType, "x"); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestForVisionKeepsSupportedFormats(t *testing.T) {
	data := encodePNG(t, 3, 3)
	img, err := ValidateImage(data, "image/png", "")
	if err != nil {
		t.Fatal(err)
	}
	out, err := img.ForVision()
	if err != nil {
		t.Fatalf("ForVision: %v", err)
	}
	if !bytes.Equal(out.Data, data) || out.MediaType != "image/png" {
		t.Fatalf("png should pass through unchanged, got %s", out.MediaType)
	}
}

func TestForVisionTranscodesGIF(t *testing.T) {
	img, err := ValidateImage(encodeGIF(t), "image/gif", "scan.gif")
	if err != nil {
		t.Fatalf("ValidateImage: %v", err)
	}
	if img.Format != "gif" {
		t.Fatalf("expected gif, got %s", img.Format)
	}
	out, err := img.ForVision()
	if err != nil {
		t.Fatalf("ForVision: %v", err)
	}
	if out.Format != "png" || out.MediaType != "image/png" {
		t.Fatalf("expected png transcode, got %+v", out.MediaType)
	}
	if _, err := png.Decode(bytes.NewReader(out.Data)); err != nil {
		t.Fatalf("transcoded bytes are not png: %v", err)
	}
	if out.Width != 4 || out.Height != 3 {
		t.Fatalf("dimensions should carry over, got %dx%d", out.Width, out.Height)
	}
}

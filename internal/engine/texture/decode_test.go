package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("encoding png: %v", err)
	}

	rgba, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rgba.Bounds().Dx() != 2 || rgba.Bounds().Dy() != 2 {
		t.Fatalf("bounds: got %v", rgba.Bounds())
	}
	if got := rgba.RGBAAt(1, 0); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("pixel (1,0): got %v, want green", got)
	}
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage()); err != nil {
		t.Fatalf("encoding bmp: %v", err)
	}

	rgba, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rgba.RGBAAt(0, 1); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("pixel (0,1): got %v, want blue", got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error decoding garbage, got nil")
	}
}

func TestImageToRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 11))
	src.SetRGBA(11, 10, color.RGBA{R: 9, A: 255})

	got := ImageToRGBA(src)
	if got.Bounds().Min != (image.Point{}) {
		t.Fatalf("bounds should start at origin, got %v", got.Bounds())
	}
	if got.RGBAAt(1, 0) != (color.RGBA{R: 9, A: 255}) {
		t.Errorf("pixel not moved to origin-relative position")
	}
}

func TestSolid(t *testing.T) {
	img := Solid(color.RGBA{R: 1, G: 2, B: 3, A: 4})
	if len(img.Pix) != 4 || img.Pix[0] != 1 || img.Pix[3] != 4 {
		t.Errorf("Solid pixels: got %v", img.Pix)
	}
}

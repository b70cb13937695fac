// Package capture writes frames read back from the GPU to PNG files.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrPixelSize is returned when the pixel buffer does not match the frame size.
var ErrPixelSize = errors.New("pixel data size mismatch")

// Photo saves scene photos into one directory.
type Photo struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewPhoto creates a photo writer. An empty dir means the working directory.
func NewPhoto(outputDir, prefix string) *Photo {
	if prefix == "" {
		prefix = "photo"
	}
	return &Photo{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// FromPixels converts bottom-up RGBA rows, as glReadPixels returns them,
// into a top-down image.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrPixelSize, width, height, width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// SavePixels flips and saves a frame read back from the GPU.
func (p *Photo) SavePixels(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}
	return p.Save(img)
}

// Save writes img as a PNG and returns its path.
func (p *Photo) Save(img image.Image) (string, error) {
	if p.outputDir != "" {
		if err := os.MkdirAll(p.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := p.filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(file, img); err != nil {
		file.Close()
		os.Remove(filename)
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}

// filename is prefix_timestamp_id.png; the short id keeps photos taken within
// the same millisecond apart.
func (p *Photo) filename() string {
	timestamp := p.now().Format("2006-01-02_15-04-05.000")
	id := uuid.NewString()[:8]
	name := fmt.Sprintf("%s_%s_%s.png", p.prefix, timestamp, id)
	if p.outputDir != "" {
		name = filepath.Join(p.outputDir, name)
	}
	return name
}

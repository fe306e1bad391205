// Package debug writes lightmap atlases and frame captures to disk.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// ErrUnknownFormat is returned for an image format the exporter cannot write.
var ErrUnknownFormat = errors.New("unknown image format")

// Encode writes img to w in the given format (png, bmp, tga or webp).
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tga":
		return tga.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Exporter saves images into one output directory.
type Exporter struct {
	outputDir string
	format    string
}

// NewExporter creates an exporter writing format files into outputDir.
func NewExporter(outputDir, format string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		format:    strings.ToLower(format),
	}
}

// SetOutputDir sets the output directory.
func (e *Exporter) SetOutputDir(dir string) {
	e.outputDir = dir
}

// Format returns the file format written by the exporter.
func (e *Exporter) Format() string {
	return e.format
}

// Save writes img as <name>.<format> and returns the file path.
func (e *Exporter) Save(name string, img image.Image) (string, error) {
	if e.outputDir != "" {
		if err := os.MkdirAll(e.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := SanitizeName(name) + "." + e.format
	if e.outputDir != "" {
		filename = filepath.Join(e.outputDir, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := Encode(file, img, e.format); err != nil {
		file.Close()
		os.Remove(filename)
		return "", fmt.Errorf("encoding %s: %w", e.format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return filename, nil
}

// CaptureFromPixels saves a frame read back from OpenGL.
// pixels should be in RGBA format with width*height*4 bytes, bottom row first.
func (e *Exporter) CaptureFromPixels(prefix string, pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return e.Save(fmt.Sprintf("%s_%s", prefix, timestamp), img)
}

// SanitizeName turns a material path like "brick/brickwall001" into a
// file-system safe base name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

package debug

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 100), B: 7, A: 255})
		}
	}
	return img
}

func TestEncodeFormats(t *testing.T) {
	img := testImage()
	tests := []struct {
		format string
		magic  []byte
	}{
		{"png", []byte("\x89PNG")},
		{"PNG", []byte("\x89PNG")},
		{"bmp", []byte("BM")},
		{"webp", []byte("RIFF")},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, img, tt.format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), tt.magic) {
				t.Errorf("output starts with %q, want %q", buf.Bytes()[:4], tt.magic)
			}
		})
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, testImage(), "jpeg")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestExporterSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := NewExporter(dir, "bmp")

	path, err := e.Save("brick/brickwall001", testImage())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(dir, "brick_brickwall001.bmp"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", got.Bounds())
	}
	r, g, _, _ := got.At(3, 1).RGBA()
	if r>>8 != 180 || g>>8 != 100 {
		t.Errorf("pixel (3,1) = %d,%d, want 180,100", r>>8, g>>8)
	}
}

func TestExporterUnknownFormatRemovesFile(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "gif")
	if _, err := e.Save("x", testImage()); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files left behind, got %d", len(entries))
	}
}

func TestCaptureFromPixelsFlips(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, "png")

	// 1x2 frame, bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := e.CaptureFromPixels("shot", pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, b, _ := img.At(0, 0).RGBA(); b>>8 != 255 {
		t.Error("top row should be blue after flip")
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r>>8 != 255 {
		t.Error("bottom row should be red after flip")
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	e := NewExporter(t.TempDir(), "png")
	if _, err := e.CaptureFromPixels("shot", make([]byte, 3), 1, 1); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"brick/brickwall001": "brick_brickwall001",
		`maps\a b`:           "maps_a_b",
		"":                   "unnamed",
		"plain":              "plain",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeTGARoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), "tga"); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := tga.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	r, g, b, _ := got.At(2, 1).RGBA()
	if r>>8 != 120 || g>>8 != 100 || b>>8 != 7 {
		t.Errorf("pixel (2,1) = %d,%d,%d, want 120,100,7", r>>8, g>>8, b>>8)
	}
}

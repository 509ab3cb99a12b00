package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestImageService_ResizeImage(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"square", 160, 160, 60, 60},
		{"wide", 200, 100, 80, 40},
		{"small stays", 40, 30, 40, 30},
		{"tall", 60, 240, 15, 60},
	}

	svc := NewImageService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.ResizeImage(context.Background(), testPNG(t, tt.width, tt.height), 80, 60)
			if err != nil {
				t.Fatalf("ResizeImage failed: %v", err)
			}
			img, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("result is not a JPEG: %v", err)
			}
			if got := img.Bounds(); got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImageService_InvalidData(t *testing.T) {
	svc := NewImageService()
	if _, err := svc.ResizeImage(context.Background(), []byte("not an image"), 80, 60); err == nil {
		t.Error("expected error for invalid image data")
	}
	if _, err := svc.ConvertToJPEG(context.Background(), []byte("not an image")); err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestImageService_ConvertToJPEG(t *testing.T) {
	out, err := NewImageService().ConvertToJPEG(context.Background(), testPNG(t, 120, 90))
	if err != nil {
		t.Fatalf("ConvertToJPEG failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("result is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 90 {
		t.Errorf("size changed to %v", img.Bounds())
	}
}

func TestImageService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewImageService().ResizeImage(ctx, testPNG(t, 10, 10), 80, 60); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "clock.gg")

	if err := WriteFile(context.Background(), path, []byte("package")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, ok := ReadCached(path)
	if !ok || string(data) != "package" {
		t.Errorf("ReadCached() = %q, %v", data, ok)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestReadCached_Missing(t *testing.T) {
	dir := t.TempDir()

	if _, ok := ReadCached(filepath.Join(dir, "missing.jpg")); ok {
		t.Error("missing file should not be reported as cached")
	}

	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := ReadCached(empty); ok {
		t.Error("empty file should not be reported as cached")
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/companion/internal/model"
)

// createTestImage creates a simple gradient image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(w, h), nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(w, h)); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_PNG(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	orig, err := p.Process(bytes.NewReader(encodePNG(t, 120, 80)), "u1", "sunset.png")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if orig.Width != 120 || orig.Height != 80 {
		t.Errorf("dimensions = %dx%d, want 120x80", orig.Width, orig.Height)
	}
	if orig.MimeType != model.MimeTypePNG || orig.Filename != "sunset.png" {
		t.Errorf("MimeType = %q, Filename = %q", orig.MimeType, orig.Filename)
	}
	if !orig.TakenAt.IsZero() {
		t.Errorf("TakenAt = %v, want zero without EXIF", orig.TakenAt)
	}
	want := filepath.Join(dir, "originals", "u1", "sunset.png")
	if abs, _ := filepath.Abs(want); orig.Path != abs {
		t.Errorf("Path = %q, want %q", orig.Path, abs)
	}
	if _, err := os.Stat(orig.Path); err != nil {
		t.Errorf("original not written: %v", err)
	}
}

func TestProcess_Rejects(t *testing.T) {
	p := NewProcessor(t.TempDir())

	tiff := []byte("II*\x00\x08\x00\x00\x00rest-of-tiff")
	if _, err := p.Process(bytes.NewReader(tiff), "u", "scan.tiff"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("TIFF error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := p.Process(bytes.NewReader([]byte("plain text")), "u", "a.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("text error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := p.Process(bytes.NewReader(encodePNG(t, 4, 4)), "../escape", "a.png"); err == nil {
		t.Error("path traversal in uuid should fail")
	}
}

func TestCreateVariants(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	orig, err := p.Process(bytes.NewReader(encodeJPEG(t, 1200, 900)), "u2", "garden.jpeg")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	variants, err := p.CreateVariants(orig.Path, "u2", orig.Filename)
	if err != nil {
		t.Fatalf("CreateVariants: %v", err)
	}

	got := map[string][2]int{}
	for _, v := range variants {
		got[v.Name] = [2]int{v.Width, v.Height}
		if _, err := os.Stat(v.Path); err != nil {
			t.Errorf("%s not written: %v", v.Name, err)
		}
	}
	want := map[string][2]int{
		model.SizeThumbnail: {400, 300},
		model.SizeCard:      {768, 576},
		model.SizeTablet:    {1024, 768},
	}
	if len(got) != len(want) {
		t.Fatalf("variants = %v, want %v (desktop would upscale)", got, want)
	}
	for name, dims := range want {
		if got[name] != dims {
			t.Errorf("%s = %v, want %v", name, got[name], dims)
		}
	}

	if err := p.Delete("u2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, d := range []string{"originals", model.SizeThumbnail, model.SizeTablet} {
		if _, err := os.Stat(filepath.Join(dir, d, "u2")); !os.IsNotExist(err) {
			t.Errorf("%s/u2 still exists", d)
		}
	}
}

func TestDeleteRejectsTraversal(t *testing.T) {
	p := NewProcessor(t.TempDir())
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if err := p.Delete(id); err == nil {
			t.Errorf("Delete(%q) should fail", id)
		}
	}
}

func TestApplyOrientation(t *testing.T) {
	tests := []struct {
		orientation int
		w, h        int
	}{
		{0, 10, 20}, {1, 10, 20}, {2, 10, 20}, {3, 10, 20}, {4, 10, 20},
		{5, 20, 10}, {6, 20, 10}, {7, 20, 10}, {8, 20, 10}, {9, 10, 20},
	}
	for _, tt := range tests {
		b := applyOrientation(createTestImage(10, 20), tt.orientation).Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("orientation %d: %dx%d, want %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.w, tt.h)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in, format, want string
	}{
		{"a.jpg", "jpeg", "a.jpg"},
		{"a.JPEG", "jpeg", "a.JPEG"},
		{"a.webp", "jpeg", "a.jpg"},
		{"a.png", "png", "a.png"},
		{"noext", "gif", "noext.gif"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.in, tt.format); got != tt.want {
			t.Errorf("outputFilename(%q, %q) = %q, want %q", tt.in, tt.format, got, tt.want)
		}
	}
}

func TestURLs(t *testing.T) {
	if got := OriginalURL("abc", "p.jpg"); got != "/uploads/originals/abc/p.jpg" {
		t.Errorf("OriginalURL = %q", got)
	}
	if got := SizeURL(model.SizeCard, "abc", "p.jpg"); got != "/uploads/card/abc/p.jpg" {
		t.Errorf("SizeURL = %q", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"gif", []byte("GIF89a......"), "gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"html", []byte("<html></html>"), ""},
	}
	for _, tt := range tests {
		if got := detectFormat(tt.data); got != tt.want {
			t.Errorf("%s: detectFormat = %q, want %q", tt.name, got, tt.want)
		}
	}
	if got := detectFormat(encodeJPEG(t, 2, 2)); got != "jpeg" {
		t.Errorf("jpeg: detectFormat = %q", got)
	}
}

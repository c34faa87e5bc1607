// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded photos and renders the fixed set of
// display sizes. Files live under <uploads>/originals/<uuid>/ and
// <uploads>/<size>/<uuid>/.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/companion/internal/model"
)

// MaxPixels bounds the decoded size of an upload.
const MaxPixels = 60_000_000

const originalQuality = 95

// Errors returned for rejected uploads.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image dimensions too large")
)

// Original describes a stored, orientation-corrected upload.
type Original struct {
	Filename string
	MimeType string
	Width    int
	Height   int
	Size     int64
	TakenAt  time.Time // zero when the photo carries no EXIF date
	Path     string
}

// Variant describes one generated display size.
type Variant struct {
	Name   string
	Width  int
	Height int
	Size   int64
	Path   string
}

// Processor reads and writes image files below uploadDir.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// UploadDir returns the storage root.
func (p *Processor) UploadDir() string {
	return p.uploadDir
}

// Process validates, decodes and auto-rotates an upload and saves it as the
// original. EXIF is not carried over. WebP input is stored as JPEG since no
// pure Go WebP encoder exists.
func (p *Processor) Process(r io.Reader, uuid, filename string) (*Original, error) {
	if err := checkID(uuid); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	meta := readExif(data)
	img = applyOrientation(img, meta.orientation)

	outFormat := format
	if format == "webp" {
		outFormat = "jpeg"
	}
	filename = outputFilename(filename, outFormat)

	encoded, err := encodeImage(img, outFormat, originalQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	fp, err := p.saveFile(filepath.Join("originals", uuid), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("saving original: %w", err)
	}

	b := img.Bounds()
	return &Original{
		Filename: filename,
		MimeType: formatToMimeType(outFormat),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Size:     int64(len(encoded)),
		TakenAt:  meta.takenAt,
		Path:     fp,
	}, nil
}

// CreateVariant renders one size from the stored original. It returns nil
// without error when the size would only upscale a non-cropped image.
func (p *Processor) CreateVariant(srcPath, uuid, filename, name string, cfg model.ImageSizeConfig) (*Variant, error) {
	if err := checkID(uuid); err != nil {
		return nil, err
	}
	img, err := imaging.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("opening original: %w", err)
	}

	var resized image.Image
	switch {
	case cfg.Crop:
		resized = imaging.Fill(img, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	case img.Bounds().Dx() <= cfg.Width:
		return nil, nil
	case cfg.Height == 0:
		resized = imaging.Resize(img, cfg.Width, 0, imaging.Lanczos)
	default:
		resized = imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	encoded, err := encodeImage(resized, formatFromFilename(filename), cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	fp, err := p.saveFile(filepath.Join(name, uuid), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", name, err)
	}

	b := resized.Bounds()
	return &Variant{Name: name, Width: b.Dx(), Height: b.Dy(), Size: int64(len(encoded)), Path: fp}, nil
}

// CreateVariants renders every configured size in model.ImageSizeOrder.
// Individual failures are collected; an error is returned only when no size
// could be produced and at least one failed.
func (p *Processor) CreateVariants(srcPath, uuid, filename string) ([]Variant, error) {
	var (
		out  []Variant
		errs []error
	)
	for _, name := range model.ImageSizeOrder {
		v, err := p.CreateVariant(srcPath, uuid, filename, name, model.ImageSizes[name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Delete removes the original and every size for uuid.
func (p *Processor) Delete(uuid string) error {
	if err := checkID(uuid); err != nil {
		return err
	}
	dirs := append([]string{"originals"}, model.ImageSizeOrder...)
	for _, d := range dirs {
		if err := os.RemoveAll(filepath.Join(p.uploadDir, d, uuid)); err != nil {
			return fmt.Errorf("removing %s: %w", d, err)
		}
	}
	return nil
}

// checkID rejects media ids that could name another directory.
func checkID(uuid string) error {
	if uuid == "" || strings.ContainsAny(uuid, `/\.`) {
		return fmt.Errorf("invalid media id %q", uuid)
	}
	return nil
}

// OriginalURL returns the public path of an original.
func OriginalURL(uuid, filename string) string {
	return path.Join("/uploads/originals", uuid, filename)
}

// SizeURL returns the public path of a generated size.
func SizeURL(size, uuid, filename string) string {
	return path.Join("/uploads", size, uuid, filename)
}

// DetectMimeType sniffs the MIME type of data.
func DetectMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = ct[:i]
	}
	return ct
}

type exifMeta struct {
	orientation int
	takenAt     time.Time
}

func readExif(data []byte) exifMeta {
	meta := exifMeta{orientation: 1}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if o, err := tag.Int(0); err == nil {
			meta.orientation = o
		}
	}
	if t, err := x.DateTime(); err == nil {
		meta.takenAt = t.UTC()
	}
	return meta
}

// applyOrientation undoes the EXIF orientation (1-8) so pixels are upright.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs the image format. TIFF is rejected outright
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	switch DetectMimeType(data) {
	case model.MimeTypeJPEG:
		return "jpeg"
	case model.MimeTypePNG:
		return "png"
	case model.MimeTypeGIF:
		return "gif"
	case model.MimeTypeWebP:
		return "webp"
	default:
		return ""
	}
}

func formatFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	default:
		return "jpeg"
	}
}

var formatExt = map[string]string{"jpeg": ".jpg", "png": ".png", "gif": ".gif"}

// outputFilename makes the extension match the stored format.
func outputFilename(filename, format string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	want := formatExt[format]
	if ext == want || (format == "jpeg" && ext == ".jpeg") {
		return filename
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + want
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	case "webp":
		return model.MimeTypeWebP
	default:
		return model.MimeTypeJPEG
	}
}

// saveFile writes data to uploadDir/subDir/filename, refusing any path that
// escapes uploadDir.
func (p *Processor) saveFile(subDir, filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", errors.New("invalid filename")
	}
	cleanSub := filepath.Clean(subDir)
	if strings.Contains(cleanSub, "..") || filepath.IsAbs(cleanSub) {
		return "", errors.New("invalid subdirectory")
	}

	base, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("resolving upload dir: %w", err)
	}
	dir := filepath.Join(base, cleanSub)
	if rel, err := filepath.Rel(base, dir); err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("path traversal detected")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	fp := filepath.Join(dir, name)
	if err := os.WriteFile(fp, data, 0o644); err != nil {
		return "", err
	}
	return fp, nil
}

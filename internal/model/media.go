// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Image size names generated for every upload.
const (
	SizeThumbnail = "thumbnail"
	SizeCard      = "card"
	SizeTablet    = "tablet"
	SizeDesktop   = "desktop"
)

// Accepted upload MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// ImageSizeConfig defines one generated size. A zero Height keeps the
// aspect ratio; Crop fills the exact box from the centre.
type ImageSizeConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool
}

// ImageSizes is the set of sizes generated for each uploaded image.
var ImageSizes = map[string]ImageSizeConfig{
	SizeThumbnail: {Width: 400, Height: 300, Quality: 80, Crop: true},
	SizeCard:      {Width: 768, Height: 576, Quality: 85, Crop: true},
	SizeTablet:    {Width: 1024, Quality: 85},
	SizeDesktop:   {Width: 1920, Quality: 90},
}

// ImageSizeOrder lists size names from smallest to largest.
var ImageSizeOrder = []string{SizeThumbnail, SizeCard, SizeTablet, SizeDesktop}

// IsSupportedMimeType reports whether uploads of this type are accepted.
func IsSupportedMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

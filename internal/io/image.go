package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	"image/png"

	"github.com/NobeKanai/dvtag/internal/model"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService turns downloaded cover art into embeddable PNG covers.
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Download cover art
//	imageData, _ := fetcher.FetchCover(ctx, rel)
//
//	// Decode, fit within 1000x1000 and re-encode as PNG
//	cover, _ := svc.ToCover(ctx, imageData, 1000)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// ToCover decodes a JPEG, PNG, GIF or WebP image and re-encodes it as PNG.
//
// When maxSize is positive and either edge is longer, the image is scaled
// down so that its longer edge equals maxSize. The aspect ratio is kept and
// the Catmull-Rom kernel is used.
func (s *ImageService) ToCover(ctx context.Context, data []byte, maxSize int) (*model.Cover, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if maxSize > 0 {
		img = fit(img, maxSize)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &model.Cover{
		Data:   buf.Bytes(),
		MIME:   "image/png",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img down to fit within a maxSize square.
func fit(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSize && height <= maxSize {
		return img
	}

	if width >= height {
		height = max(1, height*maxSize/width)
		width = maxSize
	} else {
		width = max(1, width*maxSize/height)
		height = maxSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

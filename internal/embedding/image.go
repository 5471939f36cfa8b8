package embedding

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hyperjump/kagami/internal/errortypes"
)

// DecodeImage decodes JPEG, PNG, GIF, BMP, TIFF or WebP bytes.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errortypes.InvalidImage("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errortypes.InvalidImage("decode: %v", err)
	}
	return img, format, nil
}

// PrepareImage resizes img to exactly width x height with a bicubic (Catmull-Rom) filter.
// Aspect ratio is not preserved. Images that already match are returned as is.
func PrepareImage(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

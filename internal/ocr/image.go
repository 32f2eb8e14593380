package ocr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension bounds the longest image axis before transmission
	// to keep request payloads and remote-side processing cost down.
	DefaultMaxDimension = 1024
	// DefaultJPEGQuality is the lossy re-encode quality for outbound images.
	DefaultJPEGQuality = 80
)

// Normalize scales src down so that neither axis exceeds maxDim, preserving
// aspect ratio. Images already within the bound are returned unchanged.
func Normalize(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return src
	}

	scale := float64(maxDim) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// DataURL re-encodes img as a JPEG at the given quality and wraps it in a
// base64 data URL suitable for an image_url content part.
func DataURL(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/jpeg;base64," + encoded, nil
}

// Prepare decodes an uploaded image, bounds its resolution, and returns the
// data URL to embed in the recognition request. Decode or encode failure is
// terminal for the recognition attempt.
func Prepare(r io.Reader, maxDim, quality int) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return DataURL(Normalize(img, maxDim), quality)
}

// Package media is the client-side image pipeline: attachments and avatars
// are downscaled before upload so the blob store never sees an oversized
// original.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// Longer edge clamp; images already within bounds keep their dimensions.
	maxEdge = 1200
	// Fixed JPEG re-encode quality.
	jpegQuality = 85
)

// DownscaleImage re-encodes an image as JPEG, preserving aspect ratio and
// clamping the longer edge to 1200px. Images within bounds are never
// upscaled. The input must decode as JPEG, PNG, or GIF.
func DownscaleImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nw, nh := w, h
	if w > maxEdge || h > maxEdge {
		if w > h {
			nh = int(math.Round(float64(h) * maxEdge / float64(w)))
			nw = maxEdge
		} else {
			nw = int(math.Round(float64(w) * maxEdge / float64(h)))
			nh = maxEdge
		}
	}

	var out image.Image = src
	if nw != w || nh != h {
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

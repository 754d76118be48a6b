// Package imaging normalizes uploaded product photos before they are
// stored in the database.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

// maxEdge caps the longest side of a stored photo. Product photos are
// thumbnails on handheld scanners, so they stay small.
const maxEdge = 512

const jpegQuality = 80

// Normalize validates raw upload bytes, shrinks the photo so its longest
// edge is at most maxEdge, and re-encodes it as JPEG. The MIME type is
// sniffed from the bytes rather than taken from the client. Returns the
// encoded bytes and their MIME type.
func Normalize(data []byte) ([]byte, string, error) {
	switch mime := http.DetectContentType(data); mime {
	case "image/jpeg", "image/png":
	default:
		return nil, "", fmt.Errorf("unsupported image format %s, want JPEG or PNG", mime)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	if r := img.Bounds(); r.Dx() > maxEdge || r.Dy() > maxEdge {
		dst := image.NewRGBA(fit(r))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, r, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// fit scales a rectangle down so its longest edge equals maxEdge,
// preserving aspect ratio.
func fit(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()

	longest := w
	if h > w {
		longest = h
	}
	scale := float64(maxEdge) / float64(longest)

	w = int(float64(w) * scale)
	h = int(float64(h) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Rect(0, 0, w, h)
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}

package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"postdeck/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultPreviewMaxDimension = 640
	JPEGQuality                = 82
	WebPQuality                = 70
)

// Preview formats accepted by Render.
const (
	FormatOriginal = "original"
	FormatJPEG     = "jpeg"
	FormatWebP     = "webp"
)

// Rendition is the payload served for a preview handle.
type Rendition struct {
	ContentType string
	Content     []byte
}

// Renderer produces display renditions for preview handles.
type Renderer struct {
	MaxDimension int
}

// NewRenderer returns a renderer that fits images into maxDimension pixels.
func NewRenderer(maxDimension int) *Renderer {
	if maxDimension <= 0 {
		maxDimension = DefaultPreviewMaxDimension
	}
	return &Renderer{MaxDimension: maxDimension}
}

// NormalizeFormat maps a query value onto a supported format.
func NormalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatWebP:
		return FormatWebP
	case FormatJPEG, "jpg":
		return FormatJPEG
	default:
		return FormatOriginal
	}
}

// Render returns a downscaled JPEG or WebP for images when asked to, and the
// stored bytes otherwise. Videos are always served as stored.
func (r *Renderer) Render(item models.MediaItem, content []byte, format string) (Rendition, error) {
	format = NormalizeFormat(format)
	if !item.IsImage() || format == FormatOriginal {
		return Rendition{ContentType: item.ContentType, Content: content}, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return Rendition{}, fmt.Errorf("decode %s: %w", item.Filename, err)
	}
	fitted := resizeToFit(decoded, r.MaxDimension, r.MaxDimension)

	buf := bytes.NewBuffer(nil)
	switch format {
	case FormatWebP:
		if err := webp.Encode(buf, fitted, &webp.Options{Quality: float32(WebPQuality)}); err != nil {
			return Rendition{}, fmt.Errorf("encode webp: %w", err)
		}
		return Rendition{ContentType: "image/webp", Content: buf.Bytes()}, nil
	default:
		if err := jpeg.Encode(buf, fitted, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return Rendition{}, fmt.Errorf("encode jpeg: %w", err)
		}
		return Rendition{ContentType: "image/jpeg", Content: buf.Bytes()}, nil
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// Package imaging turns transport-encoded image payloads into pixel
// buffers and prepares face crops for the embedding encoder. It is pure:
// no state, no side effects beyond CPU.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lousa-digital/chamada/internal/domain"
)

const (
	// DefaultMaxBytes bounds the accepted payload size. Anything larger is
	// rejected before decoding to keep memory bounded.
	DefaultMaxBytes = 10 * 1024 * 1024
	// DefaultMinBytes rejects payloads too small to be a real photo.
	DefaultMinBytes = 100
	// DefaultMaxPixels bounds decoded dimensions (width * height).
	DefaultMaxPixels = 36_000_000 // ~ 6000x6000
)

// Limits configures the decoder's input bounds.
type Limits struct {
	MaxBytes  int
	MinBytes  int
	MaxPixels int
}

// DefaultLimits returns the standard decoder bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:  DefaultMaxBytes,
		MinBytes:  DefaultMinBytes,
		MaxPixels: DefaultMaxPixels,
	}
}

// Decoder validates and decodes encoded images (JPEG, PNG, WebP).
type Decoder struct {
	limits Limits
}

// NewDecoder creates a Decoder with the given limits. Zero fields fall
// back to defaults.
func NewDecoder(limits Limits) *Decoder {
	def := DefaultLimits()
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = def.MaxBytes
	}
	if limits.MinBytes <= 0 {
		limits.MinBytes = def.MinBytes
	}
	if limits.MaxPixels <= 0 {
		limits.MaxPixels = def.MaxPixels
	}
	return &Decoder{limits: limits}
}

// FaceImage is a decoded picture plus its source context. Transient; it
// lives for the duration of one detect+encode call and is never stored.
type FaceImage struct {
	Pixels image.Image
	Data   []byte
	Width  int
	Height int
	Format string
	Source domain.ImageSource
}

// Decode turns an encoded payload into a FaceImage, enforcing the
// configured byte and pixel bounds. Corrupt data, unsupported formats
// and out-of-bounds payloads all return domain.ErrDecodeFailed.
func (d *Decoder) Decode(data []byte, source domain.ImageSource) (*FaceImage, error) {
	if len(data) < d.limits.MinBytes {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("payload too small: %d bytes", len(data)))
	}
	if len(data) > d.limits.MaxBytes {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("payload too large: %d bytes (max %d)", len(data), d.limits.MaxBytes))
	}

	// DecodeConfig reads only the header, so oversized dimensions are
	// rejected before allocating the full pixel buffer.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("decode header: %w", err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > d.limits.MaxPixels {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("dimensions %dx%d outside bounds", cfg.Width, cfg.Height))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("decode image: %w", err))
	}

	bounds := img.Bounds()
	return &FaceImage{
		Pixels: img,
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		Source: source,
	}, nil
}

// CropFace cuts the detected face region out of the frame, pads it by
// margin (fraction of the box size) and scales it to size x size pixels,
// re-encoded as JPEG for the embedding encoder.
func CropFace(img *FaceImage, box domain.BoundingBox, margin float64, size int) ([]byte, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("invalid bounding box %dx%d", box.Width, box.Height)
	}

	padX := int(float64(box.Width) * margin)
	padY := int(float64(box.Height) * margin)

	rect := image.Rect(box.X-padX, box.Y-padY, box.X+box.Width+padX, box.Y+box.Height+padY)
	rect = rect.Intersect(img.Pixels.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("bounding box outside image bounds")
	}

	crop := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(crop, crop.Bounds(), img.Pixels, rect, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, crop, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}

package stdimg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ExportPrefix and ExportTimeLayout build download names such as
// enhanced_20240131_235959.png.
const (
	ExportPrefix     = "enhanced_"
	ExportTimeLayout = "20060102_150405"
)

// DefaultMaxPixels caps Decode and DecodeBytes at 64 megapixels.
const DefaultMaxPixels = 64 << 20

// Decode reads an encoded image (PNG, JPEG, GIF, BMP, TIFF or WebP) and
// forces it to single-channel grayscale. It returns the detected format.
// Any failure is reported as a *DecodeError and no image is returned.
func Decode(r io.Reader) (*image.Gray, string, error) {
	if r == nil {
		return nil, "", &DecodeError{Op: "read", Err: errors.New("nil reader")}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", &DecodeError{Op: "read", Err: err}
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*image.Gray, string, error) {
	return DecodeBytesLimit(data, DefaultMaxPixels)
}

// DecodeBytesLimit is DecodeBytes with an explicit cap on width*height.
// The header is checked before any pixel buffer is allocated. A cap <= 0
// disables the check.
func DecodeBytesLimit(data []byte, maxPixels int64) (*image.Gray, string, error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Op: "image", Err: errors.New("empty input")}
	}
	if maxPixels > 0 {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, "", &DecodeError{Op: "config", Err: err}
		}
		if px := int64(cfg.Width) * int64(cfg.Height); px > maxPixels {
			return nil, "", &DecodeError{
				Op:  format,
				Err: fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels),
			}
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Op: "image", Err: err}
	}
	if b := img.Bounds(); b.Empty() {
		return nil, "", &DecodeError{Op: format, Err: fmt.Errorf("empty image bounds %v", b)}
	}
	return ToGray(img), format, nil
}

// EncodePNG serializes img losslessly as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename returns the timestamp-qualified download name for t.
func ExportFilename(t time.Time) string {
	return ExportPrefix + t.Format(ExportTimeLayout) + ".png"
}

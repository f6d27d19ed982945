package stdimg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"
)

func TestDecodePNGRoundTrip(t *testing.T) {
	src := makeGray(9, 5, func(x, y int) uint8 { return uint8(x*25 + y) })
	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("expected PNG signature")
	}
	got, format, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if format != "png" {
		t.Fatalf("format = %q, want png", format)
	}
	if !EqualGray(src, got) {
		t.Fatalf("PNG round trip is not lossless")
	}
}

func TestDecodeForcesGrayscale(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			rgba.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	img, format, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %q, want jpeg", format)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	// pure red has luminance ~76; allow for JPEG chroma loss
	if v := img.GrayAt(2, 2).Y; v < 60 || v > 95 {
		t.Fatalf("unexpected gray level %d for red", v)
	}
}

func TestDecodeCorruptInput(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("definitely not an image"),
		[]byte("\x89PNG\r\n\x1a\n\x00\x00garbage"),
	}
	for _, in := range inputs {
		img, _, err := DecodeBytes(in)
		if img != nil {
			t.Fatalf("no image expected for %q", in)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected *DecodeError for %q, got %T %v", in, err, err)
		}
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("DecodeError should match ErrDecode")
		}
	}
	if _, _, err := Decode(nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("nil reader should be a decode error, got %v", err)
	}
}

func TestDecodeKeepsGrayPNG(t *testing.T) {
	src := makeSolidGray(3, 3, 77)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	img, _, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.GrayAt(1, 1).Y != 77 {
		t.Fatalf("gray sample changed: %d", img.GrayAt(1, 1).Y)
	}
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2024, time.January, 31, 23, 59, 5, 0, time.UTC)
	if got := ExportFilename(ts); got != "enhanced_20240131_235905.png" {
		t.Fatalf("ExportFilename = %q", got)
	}
	if _, err := EncodePNG(nil); !errors.Is(err, ErrNilImage) {
		t.Fatalf("expected ErrNilImage, got %v", err)
	}
}

// pngWithDimensions encodes a 1x1 gray PNG and rewrites its IHDR chunk to
// declare w x h. Only the header is valid; the pixel data stays 1x1.
func pngWithDimensions(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, makeSolidGray(1, 1, 0)); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	data := buf.Bytes()
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc at 29
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	data := pngWithDimensions(t, 95000, 95000)
	img, _, err := DecodeBytes(data)
	if img != nil {
		t.Fatalf("no image expected for a 95000x95000 header")
	}
	if !errors.Is(err, ErrTooManyPixels) || !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrTooManyPixels wrapped in a decode error, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Op != "png" {
		t.Fatalf("expected *DecodeError for png, got %#v", err)
	}
}

func TestDecodeBytesLimit(t *testing.T) {
	data, err := EncodePNG(makeSolidGray(64, 64, 9))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if _, _, err := DecodeBytesLimit(data, 64*64-1); !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("64x64 should exceed a %d pixel cap, got %v", 64*64-1, err)
	}
	img, _, err := DecodeBytesLimit(data, 64*64)
	if err != nil {
		t.Fatalf("64x64 at an exact cap: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.GrayAt(10, 10).Y != 9 {
		t.Fatalf("unexpected decode %v / %d", img.Bounds(), img.GrayAt(10, 10).Y)
	}
	if _, _, err := DecodeBytesLimit(data, 0); err != nil {
		t.Fatalf("a zero cap disables the check: %v", err)
	}
}

func TestDecodeIgnoresAlpha(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	nrgba.SetNRGBA(1, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 10})
	nrgba.SetNRGBA(2, 0, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	img, _, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	want := []uint8{255, 128, 40}
	for x, w := range want {
		if got := img.GrayAt(x, 0).Y; got != w {
			t.Fatalf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestDecodeIgnoresPaletteTransparency(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, G: 255, B: 255, A: 0},
		color.NRGBA{R: 0, G: 0, B: 0, A: 255},
	}
	p := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	p.SetColorIndex(0, 0, 0)
	p.SetColorIndex(1, 0, 1)
	var buf bytes.Buffer
	if err := png.Encode(&buf, p); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	img, _, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if img.GrayAt(0, 0).Y != 255 || img.GrayAt(1, 0).Y != 0 {
		t.Fatalf("palette decode = %d,%d want 255,0", img.GrayAt(0, 0).Y, img.GrayAt(1, 0).Y)
	}
}

func TestToGrayNRGBA64KeepsColour(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 1, 1))
	src.SetNRGBA64(0, 0, color.NRGBA64{R: 0xffff, G: 0xffff, B: 0xffff, A: 0})
	if got := ToGray(src).GrayAt(0, 0).Y; got != 255 {
		t.Fatalf("transparent white NRGBA64 = %d, want 255", got)
	}
}

package cli

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

func clearTerminalEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID", "PREVIEW_BACKEND"} {
		t.Setenv(k, "")
	}
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("NO_CHAFA", "1")
}

func testImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 16)
	}
	return img
}

// TestPreviewInlineSequence checks that an inline-capable terminal gets an
// OSC 1337 sequence carrying the lossless PNG.
func TestPreviewInlineSequence(t *testing.T) {
	clearTerminalEnv(t)
	t.Setenv("TERM_PROGRAM", "WezTerm")

	img := testImage()
	var buf bytes.Buffer
	if err := previewTo(&buf, img); err != nil {
		t.Fatalf("preview error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b]1337;File=name=preview.png;inline=1;") {
		t.Fatalf("expected inline 1337 sequence, got: %q", out)
	}

	payload := out[strings.Index(out, ":")+1:]
	payload = payload[:strings.Index(payload, "\a")]
	dec, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	got, format, err := stdimg.DecodeBytes(dec)
	if err != nil || format != "png" {
		t.Fatalf("payload is not a PNG: %v (%s)", err, format)
	}
	if !stdimg.EqualGray(img, got) {
		t.Fatalf("preview payload changed pixel values")
	}
}

func TestPreviewKittyChunks(t *testing.T) {
	clearTerminalEnv(t)
	t.Setenv("TERM", "xterm-kitty")

	// incompressible payload so the base64 spans several chunks
	blob := make([]byte, 9000)
	for i := range blob {
		blob[i] = byte(i * 7919 >> 3)
	}
	var buf bytes.Buffer
	if err := previewBytes(&buf, blob, PreviewSize{Cols: 10, Rows: 5}); err != nil {
		t.Fatalf("previewBytes: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,t=d,q=2,c=10,r=5,m=1;") {
		t.Fatalf("unexpected first chunk header: %q", out[:40])
	}
	if n := strings.Count(out, "\x1b_G"); n != 3 {
		t.Fatalf("expected 3 chunks for %d base64 bytes, got %d", base64.StdEncoding.EncodedLen(len(blob)), n)
	}
	if !strings.Contains(out, "\x1b_Gm=0;") {
		t.Fatalf("last chunk should carry m=0")
	}
}

func TestPreviewNoBackend(t *testing.T) {
	clearTerminalEnv(t)
	var buf bytes.Buffer
	if err := previewTo(&buf, testImage()); err == nil {
		t.Fatalf("expected an error without any preview backend")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", buf.String())
	}
}

func TestComputePreviewSize(t *testing.T) {
	big := computePreviewSize(image.NewGray(image.Rect(0, 0, 4000, 1000)))
	if big.Cols != maxCols {
		t.Fatalf("wide image should be clamped to %d cols, got %d", maxCols, big.Cols)
	}
	small := computePreviewSize(image.NewGray(image.Rect(0, 0, 4, 4)))
	if small.Cols != minCols || small.Rows != minRows {
		t.Fatalf("tiny image should use minimum size, got %+v", small)
	}
}

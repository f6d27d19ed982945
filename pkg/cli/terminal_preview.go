package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// Terminal previews for kitty (graphics protocol) and iTerm2-style inline
// images (OSC 1337), with chafa as a character-cell fallback.
//
// Environment:
//   - PREVIEW_BACKEND=kitty|inline|chafa tries that backend first.
//   - PREVIEW_DEBUG=1 logs detection decisions to stderr.
//   - NO_CHAFA=1 disables the chafa fallback.
var previewDebug bool

func init() {
	debug := os.Getenv("PREVIEW_DEBUG")
	if debug == "1" || debug == "true" {
		previewDebug = true
	}
}

func debugf(format string, args ...interface{}) {
	if previewDebug {
		fmt.Fprintf(os.Stderr, "xray-preview: "+format+"\n", args...)
	}
}

// isKitty also accepts ghostty and Konsole, which speak the kitty protocol.
func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("KONSOLE_VERSION") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		debugf("TERM_PROGRAM indicates inline-capable: %s", os.Getenv("TERM_PROGRAM"))
		return true
	}
	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "wezterm") || strings.Contains(term, "tabby") || strings.Contains(term, "vscode")
}

func hasChafa() bool {
	if os.Getenv("NO_CHAFA") == "1" {
		return false
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether any preview backend is likely to work.
func PreviewSupported() bool {
	return isKitty() || isInlineImageCapable() || hasChafa()
}

// PreviewSize is the character-cell area an image preview occupies.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

const (
	cellW   = 8
	cellH   = 16
	minCols = 6
	minRows = 3
	maxCols = 80
	maxRows = 40
)

// computePreviewSize fits the image into at most maxCols x maxRows cells,
// preserving aspect ratio and never scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	scale := math.Min(1, math.Min(maxCols*cellW/w, maxRows*cellH/h))

	cols := clampCells(int(math.Round(w*scale/cellW)), minCols, maxCols)
	rows := clampCells(int(math.Round(h*scale/cellH)), minRows, maxRows)
	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * cellW, PixelHeight: rows * cellH}
}

func clampCells(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PreviewImage shows img in the terminal on stdout. Previews are always PNG
// so grayscale levels survive untouched.
func PreviewImage(img image.Image) error {
	return previewTo(os.Stdout, img)
}

func previewTo(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	blob, err := stdimg.EncodePNG(img)
	if err != nil {
		return err
	}
	return previewBytes(w, blob, computePreviewSize(img))
}

type previewBackend struct {
	name string
	ok   func() bool
	send func(io.Writer, []byte, PreviewSize) error
}

var backends = []previewBackend{
	{"inline", isInlineImageCapable, sendInlineImage},
	{"kitty", isKitty, sendKittyImage},
	{"chafa", hasChafa, sendChafaImage},
}

// previewBytes tries the PREVIEW_BACKEND override first, then every
// detected backend in order.
func previewBytes(w io.Writer, blob []byte, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}
	override := strings.ToLower(os.Getenv("PREVIEW_BACKEND"))
	if override == "iterm" || override == "wezterm" {
		override = "inline"
	}
	if override != "" {
		for _, b := range backends {
			if b.name != override {
				continue
			}
			if err := b.send(w, blob, size); err == nil {
				return nil
			} else {
				debugf("override %s failed: %v", b.name, err)
			}
		}
	}

	var lastErr error
	for _, b := range backends {
		if b.name == override || !b.ok() {
			continue
		}
		debugf("attempting %s preview", b.name)
		if err := b.send(w, blob, size); err != nil {
			debugf("%s preview failed: %v", b.name, err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("terminal preview failed: %w", lastErr)
	}
	return fmt.Errorf("no preview protocol matched")
}

// postImageNewlines is the padding printed after an image so the prompt
// lands below it.
func postImageNewlines(rows int) int {
	switch {
	case rows <= 2:
		return 1
	case rows <= 6:
		return 2
	case rows <= 20:
		return 3
	default:
		return 4
	}
}

// sendKittyImage transmits a PNG with the kitty graphics protocol in
// base64 chunks of at most 4096 bytes. Only the first chunk carries the
// control keys; q=2 suppresses terminal responses.
func sendKittyImage(w io.Writer, data []byte, size PreviewSize) error {
	const chunkSize = 4096
	enc := base64.StdEncoding.EncodeToString(data)
	debugf("kitty placement: cols=%d rows=%d, %d bytes", size.Cols, size.Rows, len(data))

	var buf bytes.Buffer
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		if pos == 0 {
			fmt.Fprintf(&buf, "\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;", size.Cols, size.Rows, more)
		} else {
			fmt.Fprintf(&buf, "\x1b_Gm=%s;", more)
		}
		buf.WriteString(enc[pos:end])
		buf.WriteString("\x1b\\")
	}
	buf.WriteString(strings.Repeat("\n", postImageNewlines(size.Rows)))
	_, err := w.Write(buf.Bytes())
	return err
}

// sendInlineImage emits the iTerm2 OSC 1337 inline file sequence.
func sendInlineImage(w io.Writer, data []byte, size PreviewSize) error {
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	seq := "\x1b]1337;File=name=preview.png;inline=1;" + meta + ":" +
		base64.StdEncoding.EncodeToString(data) + "\a" +
		strings.Repeat("\n", postImageNewlines(0))
	_, err := io.WriteString(w, seq)
	return err
}

// sendChafaImage pipes the PNG through chafa for terminals without an
// image protocol.
func sendChafaImage(w io.Writer, data []byte, size PreviewSize) error {
	if !hasChafa() {
		return fmt.Errorf("chafa not available")
	}
	fill, symbols := "block", "block"
	if f := os.Getenv("CHAFA_FILL"); f != "" {
		fill = f
	}
	if s := os.Getenv("CHAFA_SYMBOLS"); s != "" {
		symbols = s
	}
	cmd := exec.Command("chafa", "--fill="+fill, "--symbols="+symbols, "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	_, err := io.WriteString(w, strings.Repeat("\n", postImageNewlines(size.Rows)))
	return err
}

package cli

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// PromptLine displays a prompt and reads a full line of input from reader.
// The returned string is trimmed of surrounding whitespace (including the newline).
func PromptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptLineOrFzf reads a full line and treats a lone "/" as a request to
// pick a file with fzf. If fzf is unavailable or cancelled the prompt is
// shown again for typed input. Reading the whole line keeps paths with
// spaces intact.
func PromptLineOrFzf(reader *bufio.Reader, prompt string) (string, error) {
	input, err := PromptLine(reader, prompt)
	if err != nil {
		return "", err
	}
	if input != "/" {
		return input, nil
	}
	sel, selErr := SelectFileWithFzf(".")
	if selErr == nil && sel != "" {
		fmt.Printf(" [fzf] %s\n", sel)
		return sel, nil
	}
	debugf("fzf selection failed: %v", selErr)
	return PromptLine(reader, prompt)
}

// LoadImage reads an image file and converts it to grayscale.
func LoadImage(path string) (*image.Gray, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return stdimg.Decode(f)
}

// SavePNG writes img losslessly as PNG. A missing extension gets ".png";
// the returned path is the one actually written.
func SavePNG(path string, img image.Image) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	data, err := stdimg.EncodePNG(img)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// GetImageInfo returns a one-line summary of a grayscale image's size and
// intensity distribution.
func GetImageInfo(img *image.Gray) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}
	b := img.Bounds()
	hist := stdimg.ComputeHistogram(img)
	lo, hi := -1, 0
	total, sum := 0, 0
	for v, n := range hist {
		if n == 0 {
			continue
		}
		if lo < 0 {
			lo = v
		}
		hi = v
		total += n
		sum += v * n
	}
	if total == 0 {
		return fmt.Sprintf("Width: %d, Height: %d", b.Dx(), b.Dy()), nil
	}
	return fmt.Sprintf("Width: %d, Height: %d, Min: %d, Max: %d, Mean: %.1f",
		b.Dx(), b.Dy(), lo, hi, float64(sum)/float64(total)), nil
}

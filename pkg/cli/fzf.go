package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// imageExtensions are the file types offered by the file picker; they match
// the decoders registered in stdimg.
var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

// SelectTechniqueWithFzf displays the techniques in fzf and returns the selected name.
func SelectTechniqueWithFzf(commands []stdimg.CommandSpec) (string, error) {
	var b strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, c.Description)
	}

	cmd := exec.Command("fzf", "--prompt=Technique> ", "--height=40%", "--border")
	cmd.Stdin = strings.NewReader(b.String())

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	name, _, _ := strings.Cut(selection, ":")
	if name = strings.TrimSpace(name); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no technique selected")
}

// findCommand builds the find | fzf pipeline used by SelectFileWithFzf.
func findCommand(startDir, previewCmd string) string {
	names := make([]string, 0, len(imageExtensions))
	for _, ext := range imageExtensions {
		names = append(names, "-iname '*."+ext+"'")
	}
	return fmt.Sprintf(
		"find %s -type f \\( %s \\) | fzf --height 100%% --border --prompt='Files> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		strings.Join(names, " -o "),
		previewCmd,
	)
}

// SelectFileWithFzf launches fzf over the image files found under startDir
// and returns the selected path. Requires find, bash and fzf in PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	// fzf --preview takes a single command line, so fallbacks are || chains.
	chafa := "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	var previewCmd string
	switch {
	case isKitty():
		previewCmd = "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		previewCmd = "imgcat {} 2>/dev/null || " + chafa
	default:
		previewCmd = chafa
	}

	cmd := exec.Command("bash", "-lc", findCommand(startDir, previewCmd))
	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	// kitty keeps preview images around otherwise
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages emits the kitty graphics "delete" control sequence.
// Terminals that don't understand it will ignore it.
func clearKittyImages() {
	if isKitty() {
		fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
	}
}

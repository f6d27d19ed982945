package cli

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// Options configures the interactive editor.
type Options struct {
	ImagePath  string
	UpdateRepo string
	// NoFzf skips fzf and always uses the numbered fallback lists.
	NoFzf bool
	// NoPreview disables terminal image previews.
	NoPreview bool
}

type editor struct {
	opts  Options
	in    *bufio.Reader
	store *StdMetaStore

	original *image.Gray
	path     string
	result   *stdimg.Result
}

func usage() {
	fmt.Println("Commands available:")
	fmt.Println("  /  - select and apply a technique to the original image")
	fmt.Println("  c  - show the transformation curve of the last result")
	fmt.Println("  r  - show the comparison report")
	fmt.Println("  o  - open another image")
	fmt.Println("  s  - save the processed image as PNG")
	fmt.Println("  w  - write the comparison report as PNG")
	fmt.Println("  i  - show image info")
	fmt.Println("  u  - check for updates")
	fmt.Println("  h  - show this help message")
	fmt.Println("  q  - quit")
}

// RunCLI starts the terminal editor on stdin.
func RunCLI(opts Options) error {
	return runEditor(opts, os.Stdin)
}

func runEditor(opts Options, r io.Reader) error {
	e := &editor{
		opts:  opts,
		in:    bufio.NewReader(r),
		store: NewMetaStoreFromStdimg(stdimg.Commands),
	}
	if opts.ImagePath != "" {
		if err := e.open(opts.ImagePath); err != nil {
			return fmt.Errorf("failed to read image %s: %w", opts.ImagePath, err)
		}
	}

	fmt.Println("X-Ray Enhancement Editor")
	usage()

	for {
		line, err := PromptLine(e.in, "> ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '/':
			if e.original == nil {
				fmt.Println("No image loaded. Press 'o' to open an image first, or provide an image path as the first argument.")
				continue
			}
			if err := e.applyTechnique(); err != nil {
				fmt.Fprintf(os.Stderr, "apply technique error: %v\n", err)
			}
		case 'c':
			if e.result == nil || e.result.LUT == nil {
				fmt.Println("no transformation curve: apply gamma, histogram equalization or contrast stretching first")
				continue
			}
			e.preview(stdimg.RenderCurveImage(*e.result.LUT, 320, 240))
		case 'r':
			if report := e.report(); report != nil {
				e.preview(report)
			}
		case 'o':
			path := e.pickFile()
			if path == "" {
				fmt.Println("open cancelled")
				continue
			}
			if err := e.open(path); err != nil {
				fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", path, err)
			}
		case 's':
			if e.result == nil {
				fmt.Println("nothing to save yet")
				continue
			}
			e.save(e.result.Image, stdimg.ExportFilename(time.Now()))
		case 'w':
			if report := e.report(); report != nil {
				e.save(report, "report_"+stdimg.ExportFilename(time.Now()))
			}
		case 'i':
			e.info()
		case 'u':
			if err := CheckForUpdates(e.opts.UpdateRepo, e.in); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
			}
		case 'h':
			usage()
		case 'q':
			fmt.Println("Exiting...")
			return nil
		default:
			fmt.Printf("unknown command %q, press h for help\n", line)
		}
	}
}

func (e *editor) open(path string) error {
	img, format, err := LoadImage(path)
	if err != nil {
		return err
	}
	e.original = img
	e.path = path
	e.result = nil
	fmt.Printf("Opened %s (%s)\n", path, format)
	e.preview(img)
	e.info()
	return nil
}

func (e *editor) pickFile() string {
	if !e.opts.NoFzf {
		if selected, err := SelectFileWithFzf("."); err == nil && selected != "" {
			return selected
		}
	}
	path, _ := PromptLine(e.in, "Enter path to image to open (leave empty to cancel): ")
	return path
}

// selectTechnique asks for a technique via fzf or a numbered list.
func (e *editor) selectTechnique() (string, error) {
	if !e.opts.NoFzf {
		if name, err := SelectTechniqueWithFzf(stdimg.Commands); err == nil && name != "" {
			return name, nil
		}
	}
	fmt.Println("Technique selection:")
	for i, c := range stdimg.Commands {
		fmt.Printf("  %d) %s - %s\n", i+1, c.Name, c.Label)
	}
	selection, err := PromptLine(e.in, "Enter number or technique name (leave empty to cancel): ")
	if err != nil || selection == "" {
		return "", nil
	}
	if idx, perr := strconv.Atoi(selection); perr == nil {
		if idx < 1 || idx > len(stdimg.Commands) {
			return "", fmt.Errorf("invalid selection %d", idx)
		}
		return stdimg.Commands[idx-1].Name, nil
	}
	if c, ok := stdimg.LookupCommand(selection); ok {
		return c.Name, nil
	}
	var matches []string
	for _, c := range stdimg.Commands {
		if strings.HasPrefix(c.Name, strings.ToLower(selection)) {
			matches = append(matches, c.Name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("unknown technique: %s", selection)
	default:
		return "", fmt.Errorf("ambiguous selection, candidates: %s", strings.Join(matches, ", "))
	}
}

// applyTechnique always starts from the original image, so results are
// comparable side by side.
func (e *editor) applyTechnique() error {
	name, err := e.selectTechnique()
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Println("selection cancelled")
		return nil
	}
	c, _ := stdimg.LookupCommand(name)
	tooltip, _, _ := e.store.GetCommandHelp(c.Name)
	fmt.Println("\n" + tooltip + "\n")

	rawArgs := make([]string, len(c.Args))
	for i, a := range c.Args {
		val, perr := PromptLine(e.in, fmt.Sprintf("%s (%s, default %s): ", a.Name, a.Type, a.Default))
		if perr != nil {
			fmt.Fprintf(os.Stderr, "input error: %v\n", perr)
		}
		rawArgs[i] = val
	}
	args, err := NormalizeArgsFromStd(e.store, c.Name, rawArgs)
	if err != nil {
		return fmt.Errorf("input validation: %w", err)
	}

	res, err := stdimg.ApplyCommand(e.original, c.Name, args)
	if err != nil {
		return err
	}
	e.result = &res
	fmt.Printf("Applied %s\n", res.Title())
	e.preview(res.Image)
	e.info()
	return nil
}

func (e *editor) report() *image.NRGBA {
	if e.result == nil {
		fmt.Println("no result yet: press / to apply a technique")
		return nil
	}
	return stdimg.RenderReport(e.original, e.result.Image, e.result.LUT, e.result.Title())
}

func (e *editor) save(img image.Image, suggested string) {
	out, _ := PromptLine(e.in, fmt.Sprintf("Enter output filename [%s]: ", suggested))
	if out == "" {
		out = suggested
	}
	written, err := SavePNG(out, img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
		return
	}
	fmt.Printf("Saved to %s\n", written)
}

func (e *editor) info() {
	if e.original == nil {
		fmt.Println("no image loaded")
		return
	}
	if info, err := GetImageInfo(e.original); err == nil {
		fmt.Println("Original:  " + info)
	}
	if e.result != nil {
		if info, err := GetImageInfo(e.result.Image); err == nil {
			fmt.Println("Processed: " + info)
		}
	}
}

// preview is best effort; terminals without image support just skip it.
func (e *editor) preview(img image.Image) {
	if e.opts.NoPreview {
		return
	}
	if err := PreviewImage(img); err != nil {
		debugf("preview skipped: %v", err)
	}
}

package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

var (
	//go:embed web/index.md
	indexMarkdown []byte
	//go:embed web/shell.html
	shellHTML string
)

var shell = template.Must(template.New("index").Parse(shellHTML))

type pageData struct {
	Intro    template.HTML
	Accept   string
	Commands []stdimg.CommandSpec
	Params   []stdimg.ArgSpec
}

// renderIndex converts the embedded Markdown (with TeX formulas rendered to
// MathML) and wraps it in the upload form.
func renderIndex(allowedFormats []string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			treeblood.MathML(),
		),
	)
	var intro bytes.Buffer
	if err := md.Convert(indexMarkdown, &intro); err != nil {
		return nil, fmt.Errorf("render index markdown: %w", err)
	}

	data := pageData{
		Intro:    template.HTML(intro.String()),
		Accept:   strings.Join(allowedFormats, ","),
		Commands: stdimg.Commands,
		Params:   formParams(stdimg.Commands),
	}
	var page bytes.Buffer
	if err := shell.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	return page.Bytes(), nil
}

// formParams lists each distinct argument once, in registry order.
func formParams(cmds []stdimg.CommandSpec) []stdimg.ArgSpec {
	seen := map[string]bool{}
	var out []stdimg.ArgSpec
	for _, c := range cmds {
		for _, a := range c.Args {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}

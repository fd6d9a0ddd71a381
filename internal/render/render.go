// Package render writes diagram graphs to image and document files and
// implements the BPMN and DMN renderers the conversion scheduler drives.
package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

// ErrUnsupportedFormat is returned for output files whose extension has
// no writer.
var ErrUnsupportedFormat = errors.New("unsupported output format")

type Format string

const (
	PNG     Format = "png"
	JPEG    Format = "jpeg"
	SVG     Format = "svg"
	PDF     Format = "pdf"
	DOT     Format = "dot"
	Mermaid Format = "mmd"
)

var extensions = map[string]Format{
	".png":  PNG,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".svg":  SVG,
	".pdf":  PDF,
	".dot":  DOT,
	".gv":   DOT,
	".mmd":  Mermaid,
}

// FormatOf picks the writer for path from its extension, ignoring case.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", path)
}

// Page controls the size of raster and PDF output. Minimums are in CSS
// pixels and are multiplied by Scale.
type Page struct {
	MinWidth  int
	MinHeight int
	Scale     float64
}

func (p Page) scale() float64 {
	if p.Scale <= 0 {
		return 1
	}
	return p.Scale
}

// WriteFile renders d into output, creating parent directories as needed.
func WriteFile(d *diagram.Diagram, output string, page Page) error {
	format, err := FormatOf(output)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "unable to create output directory")
		}
	}

	var data []byte
	switch format {
	case DOT:
		data = []byte(d.String())
	case Mermaid:
		data = []byte(d.Mermaid())
	case SVG:
		data, err = layoutSVG(d.Graph)
	case PNG, JPEG:
		data, err = raster(d.Graph, format, page)
	case PDF:
		data, err = document(d.Graph, page)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to render %s", output)
	}

	return os.WriteFile(output, data, 0644)
}

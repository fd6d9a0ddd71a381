package render

import (
	"bytes"
	"image/png"

	"github.com/emicklei/dot"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/diagram"
)

// pointsPerPixel converts CSS pixels to PDF points.
const pointsPerPixel = 72.0 / diagram.BaseDPI

// document renders g onto a single PDF page sized to the padded bitmap.
// The bitmap keeps its scaled resolution while the page keeps CSS size.
func document(g *dot.Graph, page Page) ([]byte, error) {
	img, err := bitmap(g, page)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return nil, errors.Wrap(err, "unable to encode page image")
	}

	b := img.Bounds()
	width := float64(b.Dx()) / page.scale() * pointsPerPixel
	height := float64(b.Dy()) / page.scale() * pointsPerPixel

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := uuid.NewString()
	pdf.RegisterImageOptionsReader(name, opts, &raw)
	pdf.ImageOptions(name, 0, 0, width, height, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, errors.Wrap(err, "unable to write pdf")
	}
	return out.Bytes(), nil
}

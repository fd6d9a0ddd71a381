package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"
	"github.com/kovidgoyal/imaging"
	"github.com/pkg/errors"
)

const jpegQuality = 90

// layout runs Graphviz over g.
func layout(g *dot.Graph, format graphviz.Format) ([]byte, error) {
	graph, err := graphviz.ParseBytes([]byte(g.String()))
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse graph")
	}
	defer graph.Close()

	gv := graphviz.New()
	defer gv.Close()

	var buf bytes.Buffer
	if err := gv.Render(graph, format, &buf); err != nil {
		return nil, errors.Wrap(err, "graphviz failed")
	}
	return buf.Bytes(), nil
}

func layoutSVG(g *dot.Graph) ([]byte, error) {
	return layout(g, graphviz.SVG)
}

// bitmap renders g as an image at least as large as the page minimums.
func bitmap(g *dot.Graph, page Page) (image.Image, error) {
	data, err := layout(g, graphviz.PNG)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode graphviz output")
	}

	scale := page.scale()
	minWidth := int(math.Ceil(float64(page.MinWidth) * scale))
	minHeight := int(math.Ceil(float64(page.MinHeight) * scale))
	return Pad(img, minWidth, minHeight), nil
}

// Pad centers img on a white canvas of at least width x height.
func Pad(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() >= width && b.Dy() >= height {
		return img
	}
	canvas := imaging.New(max(width, b.Dx()), max(height, b.Dy()), color.White)
	return imaging.PasteCenter(canvas, img)
}

func raster(g *dot.Graph, format Format, page Page) ([]byte, error) {
	img, err := bitmap(g, page)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if format == JPEG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", format)
	}
	return buf.Bytes(), nil
}

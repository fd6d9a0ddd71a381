package conversion

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// View selects which part of a DMN file is rendered.
type View string

const (
	ViewDRD               View = "drd"
	ViewDecision          View = "decision"
	ViewLiteralExpression View = "literalExpression"
)

// Views lists every supported DMN view, default first.
var Views = []View{ViewDRD, ViewDecision, ViewLiteralExpression}

const (
	DefaultMinDimensions = "400x300"
	DefaultScale         = 1.0
	DefaultView          = ViewDRD
)

type Dimensions struct {
	Width  int
	Height int
}

// RenderOptions is the normalized configuration shared by every render
// call in a run.
type RenderOptions struct {
	Title         bool
	Footer        bool
	Scale         float64
	MinDimensions Dimensions
	DMNView       View
}

// BPMNOptions is what the batch BPMN converter receives.
type BPMNOptions struct {
	MinDimensions     Dimensions
	Title             bool
	Footer            bool
	DeviceScaleFactor float64
}

// DMNOptions is what the DMN renderer receives.
type DMNOptions struct {
	Title         bool
	MinDimensions Dimensions
	View          View
}

func (o RenderOptions) BPMN() BPMNOptions {
	return BPMNOptions{
		MinDimensions:     o.MinDimensions,
		Title:             o.Title,
		Footer:            o.Footer,
		DeviceScaleFactor: o.Scale,
	}
}

func (o RenderOptions) DMN() DMNOptions {
	return DMNOptions{
		Title:         o.Title,
		MinDimensions: o.MinDimensions,
		View:          o.DMNView,
	}
}

// Flags holds option values as supplied by a user. A nil pointer means
// "not set"; an empty string was set explicitly and is validated.
type Flags struct {
	MinDimensions *string
	Title         *bool
	Footer        *bool
	Scale         *float64
	DMNView       *string
}

// Or returns f with every unset field taken from fallback.
func (f Flags) Or(fallback Flags) Flags {
	if f.MinDimensions == nil {
		f.MinDimensions = fallback.MinDimensions
	}
	if f.Title == nil {
		f.Title = fallback.Title
	}
	if f.Footer == nil {
		f.Footer = fallback.Footer
	}
	if f.Scale == nil {
		f.Scale = fallback.Scale
	}
	if f.DMNView == nil {
		f.DMNView = fallback.DMNView
	}
	return f
}

// Normalize applies defaults to flags and validates the result.
func Normalize(flags Flags) (RenderOptions, error) {
	opts := RenderOptions{
		Title:   true,
		Footer:  true,
		Scale:   DefaultScale,
		DMNView: DefaultView,
	}
	if flags.Title != nil {
		opts.Title = *flags.Title
	}
	if flags.Footer != nil {
		opts.Footer = *flags.Footer
	}

	if flags.Scale != nil {
		scale := *flags.Scale
		if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return RenderOptions{}, errors.Wrapf(ErrInvalidScale, "%v: must be greater than 0", scale)
		}
		opts.Scale = scale
	}

	dims := DefaultMinDimensions
	if flags.MinDimensions != nil {
		dims = *flags.MinDimensions
	}
	minDimensions, err := ParseDimensions(dims)
	if err != nil {
		return RenderOptions{}, err
	}
	opts.MinDimensions = minDimensions

	if flags.DMNView != nil {
		view, err := ParseView(*flags.DMNView)
		if err != nil {
			return RenderOptions{}, err
		}
		opts.DMNView = view
	}

	return opts, nil
}

// ParseDimensions parses "WxH" into two positive integers.
func ParseDimensions(s string) (Dimensions, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Dimensions{}, errors.Wrapf(ErrInvalidDimensions, "%q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return Dimensions{}, errors.Wrapf(ErrInvalidDimensions, "%q: width must be a positive integer", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return Dimensions{}, errors.Wrapf(ErrInvalidDimensions, "%q: height must be a positive integer", s)
	}
	return Dimensions{Width: width, Height: height}, nil
}

func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidView, "%q: expected one of drd, decision, literalExpression", s)
}

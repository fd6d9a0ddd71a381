package render

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/bpmn"
	"github.com/sjansen/bpmn-to-image/internal/diagram"
	"github.com/sjansen/bpmn-to-image/internal/dmn"
	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
	"github.com/sjansen/bpmn-to-image/internal/logging"
)

const signature = "bpmn-to-image"

// BPMN converts batches of BPMN files.
type BPMN struct{}

// ConvertAll renders jobs in order and stops at the first failure. A
// cancelled context is noticed between jobs, never during one.
func (c *BPMN) ConvertAll(ctx context.Context, jobs []conversion.ConversionJob, opts conversion.BPMNOptions) error {
	logger := logging.FromContext(ctx).Out
	page := Page{
		MinWidth:  opts.MinDimensions.Width,
		MinHeight: opts.MinDimensions.Height,
		Scale:     opts.DeviceScaleFactor,
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "%s", job.Input)
		}

		defs, err := bpmn.ParseFile(job.Input)
		if err != nil {
			return errors.Wrapf(err, "%s", job.Input)
		}

		d := diagram.Options{Scale: opts.DeviceScaleFactor}
		if opts.Title {
			d.Title = defs.Title(name(job.Input))
		}
		if opts.Footer {
			d.Footer = footer(job.Input)
		}

		g := bpmn.Graph(defs, d)
		for _, output := range job.Outputs {
			if err := WriteFile(g, output, page); err != nil {
				return errors.Wrapf(err, "%s", job.Input)
			}
			logger.Info("converted", "input", job.Input, "output", output)
		}
	}
	return nil
}

// DMN renders one DMN file at a time.
type DMN struct{}

func (r *DMN) RenderDMN(ctx context.Context, input string, outputs []string, opts conversion.DMNOptions) error {
	logger := logging.FromContext(ctx).Out

	defs, err := dmn.ParseFile(input)
	if err != nil {
		return errors.Wrapf(err, "%s", input)
	}

	d := diagram.Options{Scale: 1}
	if opts.Title {
		d.Title = defs.Title(name(input))
	}
	g, err := dmn.Graph(defs, opts.View, d)
	if err != nil {
		return errors.Wrapf(err, "%s", input)
	}

	page := Page{
		MinWidth:  opts.MinDimensions.Width,
		MinHeight: opts.MinDimensions.Height,
		Scale:     1,
	}
	for _, output := range outputs {
		if err := WriteFile(g, output, page); err != nil {
			return errors.Wrapf(err, "%s", input)
		}
		logger.Info("rendered", "input", input, "output", output, "view", opts.View)
	}
	return nil
}

func name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func footer(path string) string {
	return filepath.Base(path) + " - " + signature
}

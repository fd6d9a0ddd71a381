// Package config loads the optional HCL file that supplies defaults for
// command-line flags.
package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pkg/errors"

	"github.com/sjansen/bpmn-to-image/internal/domain/conversion"
)

// File mirrors the top level of a config file. Every attribute is optional.
type File struct {
	MinDimensions *string  `hcl:"min_dimensions,optional"`
	Title         *bool    `hcl:"title,optional"`
	Footer        *bool    `hcl:"footer,optional"`
	Scale         *float64 `hcl:"scale,optional"`
	DMNView       *string  `hcl:"dmn_view,optional"`
	LogLevel      *string  `hcl:"log_level,optional"`
	LogFormat     *string  `hcl:"log_format,optional"`
	Journal       *Journal `hcl:"journal,block"`
}

// Journal configures where runs are recorded.
type Journal struct {
	Table    string `hcl:"table"`
	Region   string `hcl:"region,optional"`
	Endpoint string `hcl:"endpoint,optional"`
}

// Load decodes the file at path. The extension decides the syntax:
// ".hcl" for native HCL, ".json" for HCL's JSON variant.
func Load(path string) (*File, error) {
	f := &File{}
	if err := hclsimple.DecodeFile(path, nil, f); err != nil {
		return nil, errors.Wrapf(err, "unable to load config %s", path)
	}
	return f, nil
}

// Flags returns the rendering options set in the file.
func (f *File) Flags() conversion.Flags {
	if f == nil {
		return conversion.Flags{}
	}
	return conversion.Flags{
		MinDimensions: f.MinDimensions,
		Title:         f.Title,
		Footer:        f.Footer,
		Scale:         f.Scale,
		DMNView:       f.DMNView,
	}
}

func (f *File) LogSettings() (level, format string) {
	if f == nil {
		return "", ""
	}
	return deref(f.LogLevel), deref(f.LogFormat)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// JournalSettings returns the journal block, if any.
func (f *File) JournalSettings() (table, region, endpoint string) {
	if f == nil || f.Journal == nil {
		return "", "", ""
	}
	return f.Journal.Table, f.Journal.Region, f.Journal.Endpoint
}

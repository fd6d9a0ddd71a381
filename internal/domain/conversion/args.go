package conversion

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Delimiter separates a diagram from its outputs in a positional argument.
const Delimiter = string(os.PathListSeparator)

// ConversionRequest is a positional argument split into its two halves.
type ConversionRequest struct {
	Input      string
	OutputSpec string
}

// ConversionJob is one diagram and the files it should be rendered to.
type ConversionJob struct {
	Input   string
	Outputs []string
}

// ParseArgument splits arg on the first Delimiter, then splits the output
// spec on commas.
func ParseArgument(arg string) (ConversionRequest, []string, error) {
	idx := strings.Index(arg, Delimiter)
	if idx < 0 {
		return ConversionRequest{}, nil, errors.Wrapf(
			ErrMalformedArgument, "%q: expected <diagram>%s<outputs>", arg, Delimiter,
		)
	}

	req := ConversionRequest{
		Input:      arg[:idx],
		OutputSpec: arg[idx+len(Delimiter):],
	}
	if req.Input == "" {
		return ConversionRequest{}, nil, errors.Wrapf(ErrMalformedArgument, "%q: missing diagram", arg)
	}

	tokens := strings.Split(req.OutputSpec, ",")
	for _, token := range tokens {
		if token == "" {
			return ConversionRequest{}, nil, errors.Wrapf(ErrMalformedArgument, "%q: empty output", arg)
		}
	}
	return req, tokens, nil
}

// Resolve parses every positional argument and resolves its output names.
// The first malformed argument stops resolution.
func Resolve(args []string) ([]ConversionJob, error) {
	jobs := make([]ConversionJob, 0, len(args))
	for _, arg := range args {
		req, tokens, err := ParseArgument(arg)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, ConversionJob{
			Input:   req.Input,
			Outputs: ResolveOutputs(req.Input, tokens),
		})
	}
	return jobs, nil
}

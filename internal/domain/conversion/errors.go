package conversion

import "github.com/pkg/errors"

// ErrMalformedArgument is returned when a positional argument does not
// have the form <input><Delimiter><outputs>.
var ErrMalformedArgument = errors.New("malformed argument")

// ErrInvalidDimensions is returned when minimum dimensions are not two
// positive integers separated by an "x".
var ErrInvalidDimensions = errors.New("invalid dimensions")

// ErrInvalidScale is returned when the scale factor is not a positive number.
var ErrInvalidScale = errors.New("invalid scale")

// ErrInvalidView is returned for an unknown DMN view name.
var ErrInvalidView = errors.New("invalid dmn view")

// ErrRenderFailure wraps any error raised by a renderer.
var ErrRenderFailure = errors.New("render failure")

type wrapped struct {
	kind  error
	cause error
}

func (w *wrapped) Error() string        { return w.kind.Error() + ": " + w.cause.Error() }
func (w *wrapped) Is(target error) bool { return target == w.kind }
func (w *wrapped) Unwrap() error        { return w.cause }

// classify tags err with kind so that errors.Is(err, kind) holds while the
// original cause stays reachable.
func classify(kind, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return &wrapped{kind: kind, cause: err}
}

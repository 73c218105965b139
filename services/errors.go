package services

import (
	"errors"
	"fmt"
)

var (
	ErrIncompatibleSchema = errors.New("artifact features do not match the feature schema")
	ErrUnsupportedModel   = errors.New("unsupported model type")
	ErrInvalidFeatures    = errors.New("invalid feature record")
	ErrNonFiniteOutput    = errors.New("model produced a non-finite prediction")
)

// ModelLoadError means the artifact could not be turned into a usable model.
// It ends the current render pass before any prediction is attempted.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// PredictionError covers malformed input and model-internal failures.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

func IsModelLoadError(err error) bool {
	var target *ModelLoadError
	return errors.As(err, &target)
}

func IsPredictionError(err error) bool {
	var target *PredictionError
	return errors.As(err, &target)
}

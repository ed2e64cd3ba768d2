package forest

import "errors"

var (
	// ErrInvalidConfig is returned by New and LoadConfig for unusable parameters.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidDataset is returned by Train for an empty dataset or a feature count mismatch.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrAllocation is returned by Train when a sample or tree could not be allocated.
	ErrAllocation = errors.New("allocation failed")
	// ErrInvalidState is returned when the forest is not trained or already closed.
	ErrInvalidState = errors.New("invalid forest state")
	// ErrInvalidInput is returned by the scoring methods for a query of the wrong dimension.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCorruptModel is returned when a persisted model fails validation.
	ErrCorruptModel = errors.New("corrupt model")
)

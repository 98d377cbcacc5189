package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownCategory = errors.New("unknown category")

	// ErrMergeConflict is reserved for a future strict mode in which a
	// research upsert refusing to overwrite a user-verified field is an
	// error instead of a silent skip. Nothing returns it yet.
	ErrMergeConflict = errors.New("merge conflict on verified field")
)

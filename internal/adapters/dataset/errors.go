package dataset

import "errors"

// Sentinel errors for dataset reading.
var (
	ErrEmpty         = errors.New("dataset has no header")
	ErrMissingColumn = errors.New("column missing from dataset header")
	ErrUnordered     = errors.New("rows are not ordered by the time axis")
)

package api

import "errors"

// Sentinel kinds for status server errors.
var (
	ErrServe = errors.New("status server failed")
)

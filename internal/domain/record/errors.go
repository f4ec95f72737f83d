package record

import "errors"

// Sentinel kinds for record building errors.
var (
	ErrUnknownTimeFormat = errors.New("unknown event time format")
)

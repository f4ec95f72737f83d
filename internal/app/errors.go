package app

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrInvalidConfig = errors.New("invalid ingestion config")
	ErrAborted       = errors.New("batch aborted")
)

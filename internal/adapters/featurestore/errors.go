package featurestore

import "errors"

// Sentinel kinds for feature store errors.
var (
	ErrFeatureGroup      = errors.New("feature group unavailable")
	ErrEmptyFeatureGroup = errors.New("feature group name must not be empty")
)

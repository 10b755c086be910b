package dbbadger

import "errors"

var (
	// ErrInvalidPayload ...
	ErrInvalidPayload = errors.New("payload must have a guid")
)

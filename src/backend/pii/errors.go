package pii

import "errors"

// ErrInvalidInput marks a malformed request, such as a score threshold outside [0,1]
var ErrInvalidInput = errors.New("invalid input")

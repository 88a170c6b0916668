package filedrop_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnsupportedType = errors.New("invalid file type. Only txt, jpg, png, and json files are allowed")
	ErrPayloadTooLarge = errors.New("file too large")
	ErrWriteFailure    = errors.New("write failure")
	ErrNotFound        = errors.New("not found")
	ErrMissingFile     = errors.New("no file uploaded")
	ErrRateLimited     = errors.New("rate limited")
	ErrInvalidInput    = errors.New("invalid input")
)

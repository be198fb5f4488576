package models

import "errors"

// Domain errors mapped to HTTP status codes at the API layer.
var (
	ErrValidation        = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not authorized")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("already exists")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrUpstream          = errors.New("upstream gateway error")
)

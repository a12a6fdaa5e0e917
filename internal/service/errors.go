package service

import "errors"

var (
	ErrValidation       = errors.New("invalid input")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrInconsistentFeed = errors.New("post author could not be resolved")
	ErrUpstream         = errors.New("upstream service failure")
)

package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("claim has no document locations")
	ErrNoBillFound         = errors.New("no bill candidate survived to selection")
	ErrNoBillableContent   = errors.New("no billable content")
	ErrUnsupportedLocation = errors.New("unsupported document location scheme")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRunNotTerminal      = errors.New("claim run has not finished processing")
)

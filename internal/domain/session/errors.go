package session

import "errors"

var (
	ErrInvalidTransition  = errors.New("event not allowed in current mode")
	ErrInvalidServingSize = errors.New("serving size must be between 1 and 10")
	ErrUnknownEvent       = errors.New("unknown session event")
)

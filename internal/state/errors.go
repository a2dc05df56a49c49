package state

import "errors"

var (
	ErrInvalidFlower    = errors.New("invalid flower")
	ErrMalformedRecord  = errors.New("malformed remote record")
	ErrUnknownColor     = errors.New("unknown palette color")
	ErrNotIdentified    = errors.New("session not identified")
	ErrSessionImmutable = errors.New("session identity already set")
)

package domain

import (
	"errors"
	"fmt"
)

// Base error classes. Adapters map these to transport status codes;
// anything that does not match one of them is an infrastructure error.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrRoomEnded        = fmt.Errorf("%w: room has ended", ErrInvalidState)
	ErrRoomFull         = fmt.Errorf("%w: room is full", ErrInvalidState)
	ErrHostCannotSit    = fmt.Errorf("%w: host cannot take the participant seat", ErrInvalidState)
	ErrPasswordRequired = fmt.Errorf("%w: password required for private room", ErrForbidden)
	ErrPasswordInvalid  = fmt.Errorf("%w: invalid password", ErrForbidden)
	ErrNotHost          = fmt.Errorf("%w: only the room host can end the room", ErrForbidden)
)

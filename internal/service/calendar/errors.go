package calendar

import "errors"

var (
	ErrForbidden    = errors.New("not allowed to modify this event")
	ErrInvalidDate  = errors.New("invalid event dates")
	ErrInvalidTitle = errors.New("event title required")
)

package roster

import "errors"

var (
	ErrForbidden       = errors.New("only editors can manage the roster")
	ErrInvalidUsername = errors.New("not a valid username")
	ErrEmptyRoster     = errors.New("the roster cannot be emptied")
)

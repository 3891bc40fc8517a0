package publish

import "errors"

var (
	ErrForbidden       = errors.New("only editors can publish or send")
	ErrNoCoverPhoto    = errors.New("a cover photo must be chosen before publishing")
	ErrUnapproved      = errors.New("every article must be approved before publishing")
	ErrNotPublished    = errors.New("the newsletter has not been published")
	ErrAlreadySent     = errors.New("the newsletter has already been sent")
	ErrStaleContent    = errors.New("an article has changed since the last publish")
	ErrBeforeCutoff    = errors.New("too early to send: wait for the issue date and afternoon cutoff")
	ErrNoRecipients    = errors.New("the recipient list is empty")
	ErrUnknownAudience = errors.New("unknown send audience")
)

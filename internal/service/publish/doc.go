// Package publish drives an issue through its outward-facing states.
//
// An issue is Draft until a publish succeeds, Published while lastPublished
// is newer than every article's last write, and Sent once the full mailing
// has been attempted. Publishing renders the issue to public storage and
// stamps lastPublished; any later content or ordering mutation clears the
// stamp and silently demotes the issue back to Draft. Sending to the full
// recipient list requires the issue to be Published, fresh, not already
// sent, and past the scheduling cutoff; preview and QA sends skip those
// gates and never change issue state.
//
// Guard failures reject before any outward effect: no blob is written and
// no recipient is contacted.
package publish

package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventKey identifies a calendar event within a tenant partition. The stored
// row key encoding is "<startDate>_<endDate>_<title>"; EndDate may be empty
// for single-day events.
type EventKey struct {
	StartDate string `json:"startDate"`         // ISO 8601
	EndDate   string `json:"endDate,omitempty"` // ISO 8601, may be empty
	Title     string `json:"title"`
}

// ParseEventKey splits a "start_end_title" row key into its parts.
func ParseEventKey(s string) (EventKey, error) {
	parts := strings.SplitN(s, "_", 3)
	if len(parts) != 3 {
		return EventKey{}, fmt.Errorf("invalid event key %q", s)
	}
	k := EventKey{StartDate: parts[0], EndDate: parts[1], Title: strings.TrimSpace(parts[2])}
	if !ValidDate(k.StartDate) {
		return EventKey{}, fmt.Errorf("invalid event start date %q", k.StartDate)
	}
	if k.EndDate != "" && !ValidDate(k.EndDate) {
		return EventKey{}, fmt.Errorf("invalid event end date %q", k.EndDate)
	}
	if k.Title == "" {
		return EventKey{}, fmt.Errorf("invalid event title")
	}
	return k, nil
}

// String returns the row-key encoding of the event key.
func (k EventKey) String() string {
	return k.StartDate + "_" + k.EndDate + "_" + k.Title
}

// Ended reports whether the event is over as of the given date (ISO 8601).
func (k EventKey) Ended(today string) bool {
	end := k.EndDate
	if end == "" {
		end = k.StartDate
	}
	return end <= today
}

// Event is a calendar entry shown alongside the newsletter. Any user may
// create one; only editors approve. Identity is (tenant, start_end_title).
type Event struct {
	Tenant     string    `json:"-"`
	Key        EventKey  `json:"key"`
	Owner      string    `json:"owner"`
	IsApproved bool      `json:"isApproved"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

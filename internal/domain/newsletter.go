package domain

import "time"

// Send cutoff: an issue dated today may go out from 15:30 organisation-local
// time; issues dated in the past may go out any time.
const (
	sendCutoffHour   = 15
	sendCutoffMinute = 30
)

// Newsletter is a dated issue of a tenant's newsletter. Identity is
// (tenant, date).
//
// ArticleOrder is the display order of the issue's non-intro articles. At
// every commit boundary it must, as a set, equal the issue's non-intro
// article short names; the storage adapter owns its comma-joined encoding.
//
// LastPublished is nil while the issue is dirty: any mutation that changes
// rendered output (article add/remove/reorder/move, cover-photo change)
// clears it, demoting the issue back to draft.
type Newsletter struct {
	Tenant        string     `json:"-"`
	Date          string     `json:"date"` // ISO 8601
	Deadline      string     `json:"deadline"`
	ArticleOrder  []string   `json:"articleOrder"`
	CoverPhoto    string     `json:"coverPhoto,omitempty"`
	Description   string     `json:"description,omitempty"`
	LastPublished *time.Time `json:"lastPublished,omitempty"`
	IsSent        bool       `json:"isSent"`
	Version       string     `json:"version,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitzero"`
}

// IsPublished reports whether the issue has a current successful publish.
func (n *Newsletter) IsPublished() bool {
	return n.LastPublished != nil
}

// PastSendCutoff reports whether the scheduling cutoff allows a full send:
// the issue date has passed, or it is today and the local time is at or
// after the afternoon cutoff. now must already be in the organisation's
// timezone.
func (n *Newsletter) PastSendCutoff(now time.Time) bool {
	today := now.Format("2006-01-02")
	if n.Date < today {
		return true
	}
	if n.Date > today {
		return false
	}
	if now.Hour() != sendCutoffHour {
		return now.Hour() > sendCutoffHour
	}
	return now.Minute() >= sendCutoffMinute
}

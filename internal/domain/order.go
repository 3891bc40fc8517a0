package domain

import "strings"

// SplitOrder decodes a comma-joined article order into its list form.
// The empty string decodes to an empty list; blank segments are dropped.
// This encoding belongs to the storage and HTTP boundaries only — invariant
// logic works on the list form.
func SplitOrder(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinOrder encodes an article order list into its comma-joined stored form.
func JoinOrder(order []string) string {
	return strings.Join(order, ",")
}

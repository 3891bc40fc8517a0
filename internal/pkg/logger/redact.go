package logger

import "strings"

// RedactEmail masks a recipient or user address before it reaches the logs.
// Recipient uploads and reminder sends are the only places this system
// handles personal data, and both log through here.
//
// "john.doe@example.com" becomes "jo***@example.com"; local parts of two
// characters or fewer are masked entirely. Anything that does not look like
// an address is masked whole.
func RedactEmail(email string) string {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domainPart, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domainPart
	}
	return local[:2] + "***@" + domainPart
}

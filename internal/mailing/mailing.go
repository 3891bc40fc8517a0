// Package mailing sends newsletter email through AWS SES v2.
//
// Sends are enqueue-and-flush: callers queue messages and flush once the
// batch is assembled, so a guard failure before the flush contacts nobody.
package mailing

import "context"

// MaxFlushMessages caps how many messages one Flush call will hand to the
// provider; larger queues are sent in successive chunks.
const MaxFlushMessages = 500

// DevMaxMessages caps sends per flush in development so a test run can
// never mail a full recipient list.
const DevMaxMessages = 2

// Message is one outbound email.
type Message struct {
	From    string // RFC 5322 address, display-name form allowed
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer is the outbound email collaborator. Implementations must not send
// anything before Flush is called.
type Mailer interface {
	// Enqueue buffers a message for the next Flush.
	Enqueue(m Message)

	// Flush attempts every queued message and returns how many were
	// accepted by the provider. The queue is drained even on error;
	// a retry must re-enqueue.
	Flush(ctx context.Context) (int, error)

	// SuppressedRecipients returns the provider's current suppression
	// set as canonical (lowercased) addresses.
	SuppressedRecipients(ctx context.Context) (map[string]bool, error)
}

package mailing

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type fakeSES struct {
	sent     []*sesv2.SendEmailInput
	suppress [][]string // pages
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.sent = append(f.sent, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("m")}, nil
}

func (f *fakeSES) ListSuppressedDestinations(_ context.Context, in *sesv2.ListSuppressedDestinationsInput, _ ...func(*sesv2.Options)) (*sesv2.ListSuppressedDestinationsOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = 1
	}
	out := &sesv2.ListSuppressedDestinationsOutput{}
	for _, addr := range f.suppress[page] {
		out.SuppressedDestinationSummaries = append(out.SuppressedDestinationSummaries,
			types.SuppressedDestinationSummary{EmailAddress: aws.String(addr)})
	}
	if page == 0 && len(f.suppress) > 1 {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestFlushDrainsQueue(t *testing.T) {
	fake := &fakeSES{}
	m := &SESMailer{client: fake}

	m.Enqueue(Message{From: "news@example.org", To: []string{"a@x.com"}, Subject: "one", HTML: "<p>hi</p>"})
	m.Enqueue(Message{From: "news@example.org", To: []string{"b@x.com"}, Subject: "two", Text: "hi"})

	n, err := m.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 2 || len(fake.sent) != 2 {
		t.Fatalf("expected 2 sends, got n=%d sent=%d", n, len(fake.sent))
	}

	n, err = m.Flush(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second flush should be empty, got n=%d err=%v", n, err)
	}
}

func TestFlushDevelopmentCap(t *testing.T) {
	fake := &fakeSES{}
	m := &SESMailer{client: fake, development: true}

	for i := 0; i < 10; i++ {
		m.Enqueue(Message{From: "news@example.org", To: []string{"a@x.com"}, Subject: "s"})
	}
	n, err := m.Flush(context.Background())
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != DevMaxMessages {
		t.Fatalf("development flush should cap at %d, sent %d", DevMaxMessages, n)
	}
}

func TestSuppressedRecipientsPaging(t *testing.T) {
	fake := &fakeSES{suppress: [][]string{{"A@x.com"}, {"b@x.com"}}}
	m := &SESMailer{client: fake}

	got, err := m.SuppressedRecipients(context.Background())
	if err != nil {
		t.Fatalf("suppressed: %v", err)
	}
	if len(got) != 2 || !got["a@x.com"] || !got["b@x.com"] {
		t.Fatalf("expected both pages lowercased, got %v", got)
	}
}

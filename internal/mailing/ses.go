package mailing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

// NewSESClient builds the SES v2 client. A configured key pair is used as
// static credentials; otherwise the default chain (IAM role on ECS) applies.
func NewSESClient(ctx context.Context, cfg config.MailConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// sesAPI is the slice of the SES v2 client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	ListSuppressedDestinations(ctx context.Context, in *sesv2.ListSuppressedDestinationsInput, opts ...func(*sesv2.Options)) (*sesv2.ListSuppressedDestinationsOutput, error)
}

// SESMailer sends queued messages through SES v2. In development mode only
// the first DevMaxMessages of each flush are sent; the rest are logged and
// dropped.
type SESMailer struct {
	client      sesAPI
	development bool

	mu    sync.Mutex
	queue []Message
}

// NewSESMailer wraps an SES v2 client.
func NewSESMailer(client *sesv2.Client, development bool) *SESMailer {
	return &SESMailer{client: client, development: development}
}

// Enqueue buffers a message for the next Flush.
func (m *SESMailer) Enqueue(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, msg)
}

// Flush attempts every queued message and drains the queue.
func (m *SESMailer) Flush(ctx context.Context) (int, error) {
	m.mu.Lock()
	batch := m.queue
	m.queue = nil
	m.mu.Unlock()

	if m.development && len(batch) > DevMaxMessages {
		logger.Warn("development mode: truncating flush",
			"queued", len(batch), "sending", DevMaxMessages)
		batch = batch[:DevMaxMessages]
	}

	sent := 0
	for start := 0; start < len(batch); start += MaxFlushMessages {
		end := start + MaxFlushMessages
		if end > len(batch) {
			end = len(batch)
		}
		for _, msg := range batch[start:end] {
			if err := m.send(ctx, msg); err != nil {
				return sent, fmt.Errorf("sending %q: %w", msg.Subject, err)
			}
			sent++
		}
	}
	return sent, nil
}

func (m *SESMailer) send(ctx context.Context, msg Message) error {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    &types.Body{},
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if msg.HTML != "" {
		in.Content.Simple.Body.Html = &types.Content{Data: aws.String(msg.HTML)}
	}
	if msg.Text != "" {
		in.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.Text)}
	}
	_, err := m.client.SendEmail(ctx, in)
	return err
}

// SuppressedRecipients pages through the account suppression list.
func (m *SESMailer) SuppressedRecipients(ctx context.Context) (map[string]bool, error) {
	out := make(map[string]bool)
	var next *string
	for {
		page, err := m.client.ListSuppressedDestinations(ctx, &sesv2.ListSuppressedDestinationsInput{
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("listing suppressed destinations: %w", err)
		}
		for _, d := range page.SuppressedDestinationSummaries {
			if d.EmailAddress != nil {
				out[strings.ToLower(*d.EmailAddress)] = true
			}
		}
		if page.NextToken == nil {
			break
		}
		next = page.NextToken
	}
	return out, nil
}

// Package ai is the writing assistant behind the editor: photo alt text,
// article drafting, and streamed feedback on a draft. The engine only ever
// talks to the Assistant interface; the Bedrock implementation lives in
// bedrock.go.
package ai

import (
	"context"
	"errors"
)

// ErrDisabled is returned when the assistant is not configured.
var ErrDisabled = errors.New("the writing assistant is not enabled")

// Assistant generates text for the newsletter editor.
type Assistant interface {
	// DescribePhoto returns alt text for an uploaded image.
	DescribePhoto(ctx context.Context, contentType string, image []byte) (string, error)

	// DraftArticle expands a contributor's notes into a draft article,
	// headline first, then paragraphs.
	DraftArticle(ctx context.Context, notes string) (string, error)

	// ReviewArticle streams editorial feedback on a draft, calling emit
	// for each text fragment as it arrives. A non-nil error from emit
	// stops the stream.
	ReviewArticle(ctx context.Context, draft string, emit func(text string) error) error
}

// Disabled is the assistant used when no model is configured; every call
// fails with ErrDisabled.
type Disabled struct{}

func (Disabled) DescribePhoto(context.Context, string, []byte) (string, error) {
	return "", ErrDisabled
}

func (Disabled) DraftArticle(context.Context, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) ReviewArticle(context.Context, string, func(string) error) error {
	return ErrDisabled
}

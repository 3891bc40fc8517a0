package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/pkg/logger"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 1024
)

// claudeMessage is a message in the Anthropic Bedrock format.
type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string        `json:"type"`
	Text   string        `json:"text,omitempty"`
	Source *claudeSource `json:"source,omitempty"`
}

type claudeSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// streamChunk is one event body from the model response stream.
type streamChunk struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// bedrockAPI is the slice of the Bedrock runtime client the assistant uses.
type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// BedrockAssistant is the Assistant backed by an Anthropic model on AWS
// Bedrock.
type BedrockAssistant struct {
	client  bedrockAPI
	modelID string
}

// NewBedrockAssistant connects to Bedrock in the configured region.
func NewBedrockAssistant(ctx context.Context, cfg config.AIConfig) (*BedrockAssistant, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &BedrockAssistant{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

const describeSystem = `You write alt text for photographs in a community newsletter.
Describe what is in the photo in one sentence, plainly, for a reader who cannot see it.
Do not mention that it is a photo. Reply with the alt text only.`

// DescribePhoto asks the model for alt text for an image.
func (b *BedrockAssistant) DescribePhoto(ctx context.Context, contentType string, image []byte) (string, error) {
	req := claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           describeSystem,
		Messages: []claudeMessage{{
			Role: "user",
			Content: []claudeBlock{
				{Type: "image", Source: &claudeSource{
					Type:      "base64",
					MediaType: contentType,
					Data:      base64.StdEncoding.EncodeToString(image),
				}},
				{Type: "text", Text: "Write alt text for this photo."},
			},
		}},
	}
	return b.invoke(ctx, req)
}

const draftSystem = `You draft articles for a community newsletter from a contributor's notes.
Write a short headline on the first line, then two to four warm, factual paragraphs.
Use only information from the notes; invent nothing.`

// DraftArticle expands contributor notes into a draft.
func (b *BedrockAssistant) DraftArticle(ctx context.Context, notes string) (string, error) {
	req := claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           draftSystem,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeBlock{{Type: "text", Text: notes}},
		}},
	}
	return b.invoke(ctx, req)
}

func (b *BedrockAssistant) invoke(ctx context.Context, req claudeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding model request: %w", err)
	}
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoking model: %w", err)
	}
	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

const reviewSystem = `You are a kind but exacting newsletter editor reviewing a contributor's draft.
Point out what works, then what to improve: clarity, missing facts, tone.
Keep it short and practical.`

// ReviewArticle streams feedback on a draft, emitting each text fragment as
// the model produces it.
func (b *BedrockAssistant) ReviewArticle(ctx context.Context, draft string, emit func(text string) error) error {
	req := claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           reviewSystem,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeBlock{{Type: "text", Text: draft}},
		}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding model request: %w", err)
	}
	out, err := b.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("invoking model: %w", err)
	}
	stream := out.GetStream()
	defer stream.Close()

	for event := range stream.Events() {
		chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
		if !ok {
			continue
		}
		text, err := chunkText(chunk.Value.Bytes)
		if err != nil {
			logger.Warn("skipping malformed stream chunk", "error", err)
			continue
		}
		if text == "" {
			continue
		}
		if err := emit(text); err != nil {
			return err
		}
	}
	return stream.Err()
}

// chunkText extracts the text delta from one stream event body.
func chunkText(body []byte) (string, error) {
	var chunk streamChunk
	if err := json.Unmarshal(body, &chunk); err != nil {
		return "", err
	}
	if chunk.Type != "content_block_delta" || chunk.Delta.Type != "text_delta" {
		return "", nil
	}
	return chunk.Delta.Text, nil
}

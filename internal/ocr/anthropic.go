package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Recognizer using Anthropic Claude vision
type AnthropicRecognizer struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicRecognizer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuth)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicRecognizer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// recognizes text in a single image
func (r *AnthropicRecognizer) Recognize(
	ctx context.Context,
	imagePath string,
) (string, error) {
	data, mime, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.options.timeout())
	defer cancel()

	message, err := r.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     r.model,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewImageBlockBase64(
						mime,
						base64.StdEncoding.EncodeToString(data),
					),
					anthropic.NewTextBlock(r.options.prompt()),
				),
			},
		},
	)
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", ErrEmpty
	}
	if message.StopReason == "refusal" {
		return "", fmt.Errorf("%w: model refused", ErrBlocked)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmpty
	}

	return text, nil
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}
	return fmt.Errorf("recognition failed: %w", err)
}

func (r *AnthropicRecognizer) Close() error {
	return nil
}

package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Recognizer using OpenAI chat vision
type OpenAIRecognizer struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIRecognizer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuth)
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIRecognizer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// recognizes text in a single image
func (r *OpenAIRecognizer) Recognize(
	ctx context.Context,
	imagePath string,
) (string, error) {
	data, mime, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.options.timeout())
	defer cancel()

	imageURL := fmt.Sprintf(
		"data:%s;base64,%s",
		mime,
		base64.StdEncoding.EncodeToString(data),
	)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(r.options.prompt()),
				openai.ImageContentPart(
					openai.ChatCompletionContentPartImageImageURLParam{
						URL: imageURL,
					},
				),
			}),
		},
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmpty
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fmt.Errorf("%w: content filter", ErrBlocked)
	}

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", ErrEmpty
	}

	return text, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		}
	}
	return fmt.Errorf("recognition failed: %w", err)
}

func (r *OpenAIRecognizer) Close() error {
	return nil
}

package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// implements Recognizer using Google Gemini vision
type GeminiRecognizer struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiRecognizer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuth)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiRecognizer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// recognizes text in a single image
func (r *GeminiRecognizer) Recognize(
	ctx context.Context,
	imagePath string,
) (string, error) {
	data, mime, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.options.timeout())
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(r.options.prompt()),
		genai.NewPartFromBytes(data, mime),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, nil)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	return extractGeminiText(result)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		}
	}
	return fmt.Errorf("recognition failed: %w", err)
}

func extractGeminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", ErrEmpty
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf(
			"%w: block reason %s",
			ErrBlocked,
			result.PromptFeedback.BlockReason,
		)
	}

	if len(result.Candidates) == 0 {
		return "", ErrEmpty
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		switch candidate.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
			return "", fmt.Errorf(
				"%w: finish reason %s",
				ErrBlocked,
				candidate.FinishReason,
			)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmpty
	}

	return text, nil
}

func (r *GeminiRecognizer) Close() error {
	// the genai client has no Close in the current SDK
	return nil
}

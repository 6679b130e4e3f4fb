package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Recognition failures fall into a closed set. Blocked and empty responses
// are final for the image; auth failures are fatal for the whole batch;
// everything else is transient and eligible for retry.
var (
	ErrBlocked = errors.New("content blocked by provider")
	ErrEmpty   = errors.New("no text recognized")
	ErrAuth    = errors.New("authentication failed")
)

// DefaultPrompt asks the model for raw text only.
const DefaultPrompt = "Extract the text content from this image. Provide only the text."

const defaultTimeout = 45 * time.Second

// interface for image text recognition
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// vision service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// recognition options, passed through to the provider
type Options struct {
	Model   string
	Prompt  string
	Timeout time.Duration
}

func (o Options) prompt() string {
	if o.Prompt != "" {
		return o.Prompt
	}
	return DefaultPrompt
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}

// creates Recognizer based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Recognizer, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiRecognizer(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIRecognizer(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicRecognizer(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func mimeForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("unsupported image type: %s", filepath.Ext(path))
	}
}

// readImage loads the image bytes and resolves their MIME type.
func readImage(path string) ([]byte, string, error) {
	mime, err := mimeForPath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	return data, mime, nil
}

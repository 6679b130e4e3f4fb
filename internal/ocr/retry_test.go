package ocr

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeRecognizer returns scripted results per call
type fakeRecognizer struct {
	calls   int
	results []error
	text    string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if err := f.results[idx]; err != nil {
		return "", err
	}
	return f.text, nil
}

func TestRetryingRecovers(t *testing.T) {
	fake := &fakeRecognizer{
		results: []error{
			fmt.Errorf("recognition failed: connection reset"),
			fmt.Errorf("recognition failed: rate limited"),
			nil,
		},
		text: "Hello",
	}

	r := NewRetrying(fake, 3, time.Millisecond)
	text, err := r.Recognize(context.Background(), "img.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello" {
		t.Errorf("text = %q, want %q", text, "Hello")
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestRetryingExhausted(t *testing.T) {
	transient := fmt.Errorf("recognition failed: 503")
	fake := &fakeRecognizer{results: []error{transient}}

	r := NewRetrying(fake, 3, time.Millisecond)
	_, err := r.Recognize(context.Background(), "img.png")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestRetryingFinalErrorsNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"blocked", fmt.Errorf("%w: safety", ErrBlocked)},
		{"empty", ErrEmpty},
		{"auth", fmt.Errorf("%w: bad key", ErrAuth)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecognizer{results: []error{tt.err}}
			r := NewRetrying(fake, 3, time.Millisecond)

			_, err := r.Recognize(context.Background(), "img.png")
			if !errors.Is(err, tt.err) && !errors.Is(err, errors.Unwrap(tt.err)) {
				t.Errorf("error %v lost its classification", err)
			}
			if fake.calls != 1 {
				t.Errorf("calls = %d, want 1", fake.calls)
			}
		})
	}
}

func TestRetryingCancelledDuringBackoff(t *testing.T) {
	fake := &fakeRecognizer{
		results: []error{fmt.Errorf("recognition failed: 500")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrying(fake, 3, time.Minute)
	_, err := r.Recognize(ctx, "img.png")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain failure", errors.New("connection refused"), true},
		{"wrapped transient", fmt.Errorf("recognition failed: %w", errors.New("429")), true},
		{"deadline per attempt", context.DeadlineExceeded, true},
		{"blocked", fmt.Errorf("%w: safety", ErrBlocked), false},
		{"empty", ErrEmpty, false},
		{"auth", fmt.Errorf("%w: 401", ErrAuth), false},
		{"caller cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

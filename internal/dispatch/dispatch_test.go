package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/D-LUFFY89/snapsrt/internal/ocr"
	"github.com/D-LUFFY89/snapsrt/internal/task"
)

// countingRecognizer tracks how many calls are in flight at once
type countingRecognizer struct {
	active  int64
	maxSeen int64
	delay   time.Duration
	fn      func(path string) (string, error)
}

func (c *countingRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	n := atomic.AddInt64(&c.active, 1)
	for {
		seen := atomic.LoadInt64(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt64(&c.maxSeen, seen, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	atomic.AddInt64(&c.active, -1)

	if c.fn != nil {
		return c.fn(imagePath)
	}
	return "text for " + imagePath, nil
}

func makeTasks(n int) []task.ImageTask {
	tasks := make([]task.ImageTask, n)
	for i := range tasks {
		start := time.Duration(i) * time.Second
		name := task.FormatName("img", start, start+time.Second, ".png")
		tasks[i] = task.ImageTask{Path: "in/" + name, Name: name, Start: start, End: start + time.Second}
	}
	return tasks
}

func TestRunCollectsAllResults(t *testing.T) {
	rec := &countingRecognizer{delay: time.Millisecond}
	d := New(rec, 4, nil)

	tasks := makeTasks(20)
	results, err := d.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(tasks) {
		t.Fatalf("got %d results, want %d", len(results), len(tasks))
	}
	for _, r := range results {
		if r.Status != StatusSuccess {
			t.Errorf("task %s status = %s, want success", r.Task.Name, r.Status)
		}
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	const limit = 3
	rec := &countingRecognizer{delay: 5 * time.Millisecond}
	d := New(rec, limit, nil)

	if _, err := d.Run(context.Background(), makeTasks(12)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.maxSeen > limit {
		t.Errorf("observed %d concurrent calls, limit is %d", rec.maxSeen, limit)
	}
}

func TestRunPerImageFailuresDoNotAbort(t *testing.T) {
	rec := &countingRecognizer{
		fn: func(path string) (string, error) {
			switch {
			case path == "in/"+task.FormatName("img", 0, time.Second, ".png"):
				return "", fmt.Errorf("%w: safety", ocr.ErrBlocked)
			case path == "in/"+task.FormatName("img", time.Second, 2*time.Second, ".png"):
				return "", ocr.ErrEmpty
			case path == "in/"+task.FormatName("img", 2*time.Second, 3*time.Second, ".png"):
				return "", errors.New("failed after 3 attempts: 503")
			}
			return "ok", nil
		},
	}
	d := New(rec, 2, nil)

	results, err := d.Run(context.Background(), makeTasks(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}

	counts := map[Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	if counts[StatusSuccess] != 3 || counts[StatusBlocked] != 1 ||
		counts[StatusEmpty] != 1 || counts[StatusFailed] != 1 {
		t.Errorf("status counts = %v", counts)
	}
}

func TestRunAuthErrorHaltsScheduling(t *testing.T) {
	var calls int64
	rec := &countingRecognizer{
		fn: func(path string) (string, error) {
			n := atomic.AddInt64(&calls, 1)
			if n == 3 {
				return "", fmt.Errorf("%w: invalid key", ocr.ErrAuth)
			}
			return "ok", nil
		},
	}
	d := New(rec, 1, nil)

	results, err := d.Run(context.Background(), makeTasks(50))
	if !errors.Is(err, ErrAuthFatal) {
		t.Fatalf("error = %v, want ErrAuthFatal", err)
	}
	// completed results are preserved, and nowhere near the full batch ran
	if len(results) < 3 {
		t.Errorf("got %d results, want at least the completed ones", len(results))
	}
	if len(results) == 50 {
		t.Error("auth failure did not stop scheduling")
	}

	succeeded := 0
	for _, r := range results {
		if r.Status == StatusSuccess {
			succeeded++
		}
	}
	if succeeded != 2 {
		t.Errorf("preserved %d successes, want 2", succeeded)
	}
}

type recognizeFunc func(ctx context.Context, imagePath string) (string, error)

func (f recognizeFunc) Recognize(ctx context.Context, imagePath string) (string, error) {
	return f(ctx, imagePath)
}

func TestRunAuthHaltLetsInFlightCallFinish(t *testing.T) {
	started := make(chan struct{})
	authReturned := make(chan struct{})

	var calls int64
	rec := recognizeFunc(func(ctx context.Context, imagePath string) (string, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			close(started)
			<-authReturned
			// give the sibling worker time to observe the auth failure
			time.Sleep(20 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "ok", nil
		}
		<-started
		defer close(authReturned)
		return "", fmt.Errorf("%w: invalid key", ocr.ErrAuth)
	})
	d := New(rec, 2, nil)

	results, err := d.Run(context.Background(), makeTasks(8))
	if !errors.Is(err, ErrAuthFatal) {
		t.Fatalf("error = %v, want ErrAuthFatal", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	var success, auth int
	for _, r := range results {
		switch {
		case r.Status == StatusSuccess:
			success++
			if r.Text != "ok" {
				t.Errorf("in-flight call text = %q, want %q", r.Text, "ok")
			}
		case errors.Is(r.Err, ocr.ErrAuth):
			auth++
		default:
			t.Errorf("task %s: status = %s, err = %v", r.Task.Name, r.Status, r.Err)
		}
	}
	if success != 1 || auth != 1 {
		t.Errorf("got %d successes and %d auth failures, want 1 and 1", success, auth)
	}
}

func TestRunProgressReachesTotal(t *testing.T) {
	var mu sync.Mutex
	var seen []Progress

	rec := &countingRecognizer{}
	d := New(rec, 4, func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})

	tasks := makeTasks(10)
	if _, err := d.Run(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != len(tasks) {
		t.Fatalf("got %d progress events, want %d", len(seen), len(tasks))
	}
	for i, p := range seen {
		if p.Done != i+1 {
			t.Errorf("event %d: done = %d, want %d", i, p.Done, i+1)
		}
		if p.Total != len(tasks) {
			t.Errorf("event %d: total = %d, want %d", i, p.Total, len(tasks))
		}
	}
}

func TestRunEmptyBatch(t *testing.T) {
	d := New(&countingRecognizer{}, 4, nil)
	results, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestNewDefaultsWorkers(t *testing.T) {
	d := New(&countingRecognizer{}, 0, nil)
	if d.workers != 3 {
		t.Errorf("workers = %d, want default 3", d.workers)
	}
}

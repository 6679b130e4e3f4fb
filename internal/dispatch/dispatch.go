package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/D-LUFFY89/snapsrt/internal/ocr"
	"github.com/D-LUFFY89/snapsrt/internal/task"
)

// per-image outcome
type Status string

const (
	StatusSuccess Status = "success"
	StatusBlocked Status = "blocked"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// Result is one completed recognition. Text is set only on success; Err is
// set on everything else.
type Result struct {
	Task   task.ImageTask
	Status Status
	Text   string
	Err    error
}

// Progress is emitted after every completion, in completion order.
type Progress struct {
	Done   int
	Total  int
	Name   string
	Status Status
}

// ErrAuthFatal signals that the batch stopped scheduling because the
// provider rejected the credential. Results collected before the failure
// are still returned.
var ErrAuthFatal = errors.New("batch halted: authentication failed")

// Dispatcher fans a set of image tasks out over a bounded pool of workers.
type Dispatcher struct {
	recognizer ocr.Recognizer
	workers    int
	onProgress func(Progress)
}

func New(recognizer ocr.Recognizer, workers int, onProgress func(Progress)) *Dispatcher {
	if workers <= 0 {
		workers = 3
	}
	return &Dispatcher{
		recognizer: recognizer,
		workers:    workers,
		onProgress: onProgress,
	}
}

// Run recognizes every task with at most the configured number of calls in
// flight. Completions arrive in any order; per-image failures never abort
// the batch. An auth failure stops scheduling, lets in-flight calls finish
// and returns collected results alongside ErrAuthFatal.
func (d *Dispatcher) Run(
	ctx context.Context,
	tasks []task.ImageTask,
) ([]Result, error) {
	if len(tasks) == 0 {
		return []Result{}, nil
	}

	// haltCtx gates scheduling only; recognition calls run on the caller's
	// context so an auth halt never aborts a sibling call mid-request.
	haltCtx, halt := context.WithCancel(ctx)
	defer halt()

	workChan := make(chan task.ImageTask)
	resultChan := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < d.workers && i < len(tasks); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-haltCtx.Done():
					return
				case t, ok := <-workChan:
					if !ok {
						return
					}
					if haltCtx.Err() != nil {
						return
					}

					text, err := d.recognizer.Recognize(ctx, t.Path)
					if errors.Is(err, ocr.ErrAuth) {
						halt()
					}
					resultChan <- newResult(t, text, err)
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, t := range tasks {
			select {
			case <-haltCtx.Done():
				return
			case workChan <- t:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(tasks))
	var fatal error
	done := 0
	for result := range resultChan {
		done++
		results = append(results, result)

		if errors.Is(result.Err, ocr.ErrAuth) && fatal == nil {
			fatal = ErrAuthFatal
		}
		if d.onProgress != nil {
			d.onProgress(Progress{
				Done:   done,
				Total:  len(tasks),
				Name:   result.Task.Name,
				Status: result.Status,
			})
		}
	}

	return results, fatal
}

func newResult(t task.ImageTask, text string, err error) Result {
	switch {
	case err == nil:
		return Result{Task: t, Status: StatusSuccess, Text: text}
	case errors.Is(err, ocr.ErrBlocked):
		return Result{Task: t, Status: StatusBlocked, Err: err}
	case errors.Is(err, ocr.ErrEmpty):
		return Result{Task: t, Status: StatusEmpty, Err: err}
	default:
		return Result{Task: t, Status: StatusFailed, Err: err}
	}
}

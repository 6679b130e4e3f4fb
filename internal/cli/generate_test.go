package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/D-LUFFY89/snapsrt/internal/dispatch"
	"github.com/D-LUFFY89/snapsrt/internal/logging"
	"github.com/D-LUFFY89/snapsrt/internal/task"
)

func TestRunGenerateRejectsMissingInputDir(t *testing.T) {
	logger = logging.NewNop()

	err := runGenerate(generateCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "image directory is required") {
		t.Errorf("no argument: err = %v", err)
	}

	missing := filepath.Join(t.TempDir(), "no-such-dir")
	err = runGenerate(generateCmd, []string{missing})
	if err == nil || !strings.Contains(err.Error(), "image directory not found") {
		t.Errorf("nonexistent directory: err = %v", err)
	}
}

func TestSuccessCues(t *testing.T) {
	results := []dispatch.Result{
		{
			Task:   task.ImageTask{Name: "a.png", Start: time.Second, End: 2 * time.Second, Hint: 1},
			Status: dispatch.StatusSuccess,
			Text:   "Hello",
		},
		{
			Task:   task.ImageTask{Name: "b.png", Start: 3 * time.Second, End: 4 * time.Second},
			Status: dispatch.StatusBlocked,
		},
		{
			Task:   task.ImageTask{Name: "c.png", Start: 5 * time.Second, End: 6 * time.Second},
			Status: dispatch.StatusEmpty,
		},
		{
			Task:   task.ImageTask{Name: "d.png", Start: 7 * time.Second, End: 8 * time.Second},
			Status: dispatch.StatusSuccess,
			Text:   "World",
		},
	}

	cues := successCues(results)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Text != "Hello" || cues[0].Hint != 1 || cues[0].Name != "a.png" {
		t.Errorf("cue 0 = %+v", cues[0])
	}
	if cues[1].Text != "World" || cues[1].StartTime != 7*time.Second {
		t.Errorf("cue 1 = %+v", cues[1])
	}
}

func TestCountStatuses(t *testing.T) {
	results := []dispatch.Result{
		{Status: dispatch.StatusSuccess},
		{Status: dispatch.StatusSuccess},
		{Status: dispatch.StatusFailed},
		{Status: dispatch.StatusEmpty},
	}

	counts := countStatuses(results)
	if counts[dispatch.StatusSuccess] != 2 {
		t.Errorf("success = %d, want 2", counts[dispatch.StatusSuccess])
	}
	if counts[dispatch.StatusFailed] != 1 {
		t.Errorf("failed = %d, want 1", counts[dispatch.StatusFailed])
	}
	if counts[dispatch.StatusEmpty] != 1 {
		t.Errorf("empty = %d, want 1", counts[dispatch.StatusEmpty])
	}
	if counts[dispatch.StatusBlocked] != 0 {
		t.Errorf("blocked = %d, want 0", counts[dispatch.StatusBlocked])
	}
}

package task

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidName reports a file name that does not follow the timestamp
// naming convention.
var ErrInvalidName = errors.New("invalid filename pattern")

// one unit of OCR work: an image plus its parsed timestamp window
type ImageTask struct {
	Path  string
	Name  string
	Start time.Duration
	End   time.Duration
	Hint  int // ordering index from the filename, 0 when absent
}

// Naming convention: an optional prefix, start and end timecodes as
// H-MM-SS-mmm separated by an underscore, an optional numeric index,
// and a png/jpeg extension.
//
//	img_00-00-01-500_00-00-03-200.png
//	scene_00-01-10-000_00-01-12-400_007.jpg
var namePattern = regexp.MustCompile(
	`^(?:(.*)_)?(\d{1,2})-(\d{2})-(\d{2})-(\d{3})_(\d{1,2})-(\d{2})-(\d{2})-(\d{3})(?:_(\d+))?\.(?i:jpe?g|png)$`,
)

// ParseName extracts the timestamp window from a file name. It is a pure
// function of its input; the path is attached by ScanDir.
func ParseName(name string) (ImageTask, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return ImageTask{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	start, err := parseTimecode(m[2], m[3], m[4], m[5])
	if err != nil {
		return ImageTask{}, fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
	}
	end, err := parseTimecode(m[6], m[7], m[8], m[9])
	if err != nil {
		return ImageTask{}, fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
	}

	if end < start {
		return ImageTask{}, fmt.Errorf(
			"%w: %q: end timecode precedes start",
			ErrInvalidName,
			name,
		)
	}

	hint := 0
	if m[10] != "" {
		hint, _ = strconv.Atoi(m[10])
	}

	return ImageTask{
		Name:  name,
		Start: start,
		End:   end,
		Hint:  hint,
	}, nil
}

func parseTimecode(hours, minutes, seconds, millis string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)

	if m > 59 {
		return 0, fmt.Errorf("minutes out of range: %d", m)
	}
	if s > 59 {
		return 0, fmt.Errorf("seconds out of range: %d", s)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// FormatName builds a file name following the naming convention. It is the
// inverse of ParseName for the prefix-and-timecodes part.
func FormatName(prefix string, start, end time.Duration, ext string) string {
	var sb strings.Builder
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString("_")
	}
	sb.WriteString(formatTimecode(start))
	sb.WriteString("_")
	sb.WriteString(formatTimecode(end))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	sb.WriteString(ext)
	return sb.String()
}

func formatTimecode(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d-%02d-%02d-%03d", hours, minutes, seconds, millis)
}

// HasImageExt reports whether the name carries a recognized image extension.
func HasImageExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// ScanDir lists a directory and parses every image file name. Names that
// carry an image extension but do not follow the convention are returned in
// skipped; other entries are ignored. Parse failures never fail the scan.
func ScanDir(dir string) (tasks []ImageTask, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !HasImageExt(name) {
			continue
		}

		t, err := ParseName(name)
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		t.Path = filepath.Join(dir, name)
		tasks = append(tasks, t)
	}

	return tasks, skipped, nil
}

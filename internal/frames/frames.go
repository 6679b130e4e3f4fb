package frames

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/D-LUFFY89/snapsrt/internal/ffmpeg"
	"github.com/D-LUFFY89/snapsrt/internal/task"
)

// holds options for frame extraction
type Options struct {
	Interval time.Duration // timestamp window covered by each frame
	Prefix   string        // filename prefix (default "img")
	Format   string        // png or jpg (default png)
}

func DefaultOptions() Options {
	return Options{
		Interval: 2 * time.Second,
		Prefix:   "img",
		Format:   "png",
	}
}

// window is one frame's timestamp span.
type window struct {
	Start time.Duration
	End   time.Duration
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// duration of a media file
func GetDuration(filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Extract grabs one frame per interval from the video, writing each to the
// output directory under the timestamp naming convention so a generate run
// can consume the folder directly. Returns the written file paths.
func Extract(
	ctx context.Context,
	videoPath, outputDir string,
	opts Options,
) ([]string, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf(
			"interval must be positive, got %v",
			opts.Interval,
		)
	}
	if opts.Prefix == "" {
		opts.Prefix = "img"
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.Format != "png" && opts.Format != "jpg" {
		return nil, fmt.Errorf(
			"unsupported frame format %q: use png or jpg",
			opts.Format,
		)
	}

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	totalDuration, err := GetDuration(videoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get video duration: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	var written []string
	for _, w := range windows(totalDuration, opts.Interval) {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		name := task.FormatName(opts.Prefix, w.Start, w.End, "."+opts.Format)
		outPath := filepath.Join(outputDir, name)

		err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{
			"ss": fmt.Sprintf("%.3f", w.Start.Seconds()),
		}).
			Output(outPath, ffmpeg.KwArgs{
				"frames:v": 1,
				"y":        "",
			}).
			OverWriteOutput().
			SetFfmpegPath(ffmpegPath).
			Silent(true).
			Run()
		if err != nil {
			return written, fmt.Errorf(
				"frame extraction at %v failed: %w",
				w.Start,
				err,
			)
		}

		written = append(written, outPath)
	}

	return written, nil
}

// windows splits a duration into consecutive interval-sized spans; the last
// span is shortened to end at the total duration.
func windows(total, interval time.Duration) []window {
	var spans []window
	for start := time.Duration(0); start < total; start += interval {
		end := start + interval
		if end > total {
			end = total
		}
		spans = append(spans, window{Start: start, End: end})
	}
	return spans
}

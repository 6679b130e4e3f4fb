package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/D-LUFFY89/snapsrt/internal/frames"
)

var framesCmd = &cobra.Command{
	Use:   "frames [video_file]",
	Short: "Extract timestamped frames from a video",
	Long: `Extract one frame per interval from a video file, naming each image
with the timecodes of the window it covers so that 'snapsrt generate' can
consume the folder directly.

Examples:
  snapsrt frames video.mp4
  snapsrt frames video.mp4 -i 5s -o frames/
  snapsrt frames video.mp4 --format jpg --prefix scene`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().
		DurationP("interval", "i", 2*time.Second, "Timestamp window covered by each frame")
	framesCmd.Flags().
		String("prefix", "img", "Filename prefix for extracted frames")
	framesCmd.Flags().
		StringP("format", "f", "png", "Frame image format (png, jpg)")
}

func runFrames(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	interval, _ := cmd.Flags().GetDuration("interval")
	prefix, _ := cmd.Flags().GetString("prefix")
	format, _ := cmd.Flags().GetString("format")
	outputDir, _ := cmd.Flags().GetString("output")

	if outputDir == "" {
		base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
		outputDir = base + "_frames"
	}

	logger.Infow("Extracting frames",
		"video", videoPath,
		"output", outputDir,
		"interval", interval.String(),
		"format", format,
	)

	written, err := frames.Extract(
		context.Background(),
		videoPath,
		outputDir,
		frames.Options{
			Interval: interval,
			Prefix:   prefix,
			Format:   format,
		},
	)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	absOutput, _ := filepath.Abs(outputDir)
	fmt.Printf("Frames extracted successfully: %s\n", absOutput)
	fmt.Printf("  Frames: %d\n", len(written))

	return nil
}

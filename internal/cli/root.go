package cli

import (
	"github.com/D-LUFFY89/snapsrt/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snapsrt",
	Short: "OCR timestamped screenshots into subtitles",
	Long: `Snapsrt turns a folder of timestamped screenshot images into an SRT
subtitle file by running each image through a cloud vision model.

Image file names carry the subtitle timing, e.g.
img_00-00-01-500_00-00-03-200.png covers 1.5s to 3.2s.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output path")
}

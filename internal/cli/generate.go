package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/D-LUFFY89/snapsrt/internal/config"
	"github.com/D-LUFFY89/snapsrt/internal/dispatch"
	"github.com/D-LUFFY89/snapsrt/internal/ocr"
	"github.com/D-LUFFY89/snapsrt/internal/subtitle"
	"github.com/D-LUFFY89/snapsrt/internal/task"
)

var generateCmd = &cobra.Command{
	Use:   "generate [image_dir]",
	Short: "Generate subtitles from a folder of timestamped screenshots",
	Long: `Generate an SRT file from a directory of screenshot images whose file
names carry start and end timecodes.

Each image is sent to the configured vision provider for text recognition.
Images are processed concurrently; the output is ordered by start timestamp
regardless of completion order. Images whose recognition is blocked, empty
or failing are skipped, never aborting the batch.

Examples:
  snapsrt generate images/
  snapsrt generate images/ --workers 8 --model gemini-2.5-pro
  snapsrt generate images/ --provider openai --model gpt-4o -o out/episode1.srt
  snapsrt generate --config snapsrt.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().
		StringP("api-key", "k", "", "Provider API key (or set GEMINI_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY)")
	generateCmd.Flags().
		String("provider", "", "Vision provider (gemini, openai, anthropic)")
	generateCmd.Flags().
		String("model", "", "Model to use for recognition")
	generateCmd.Flags().
		IntP("workers", "w", 0, fmt.Sprintf("Number of parallel recognition workers (%d-%d)", config.MinWorkers, config.MaxWorkers))
	generateCmd.Flags().
		Int("retries", 0, "Retry attempts for transient provider errors")
	generateCmd.Flags().
		Int("timeout", 0, "Per-request timeout in seconds")
	generateCmd.Flags().
		StringP("config", "c", "", "Path to a YAML config file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadGenerateConfig(cmd, args)
	if err != nil {
		return err
	}

	if cfg.InputDir == "" {
		return fmt.Errorf("image directory is required: pass it as the argument or set input_dir in the config file")
	}
	if _, err := os.Stat(cfg.InputDir); os.IsNotExist(err) {
		return fmt.Errorf("image directory not found: %s", cfg.InputDir)
	}

	if err := cfg.ResolveAPIKey(); err != nil {
		return err
	}

	logger.Infow("Starting subtitle generation",
		"input", cfg.InputDir,
		"output", cfg.OutputPath(),
		"provider", cfg.Provider,
		"model", cfg.Model,
		"workers", cfg.Workers,
	)

	tasks, skipped, err := task.ScanDir(cfg.InputDir)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		logger.Warnw("Skipping file (doesn't match naming pattern)",
			"file", name,
		)
	}
	if len(tasks) == 0 {
		logger.Warnw("No images matched the naming pattern",
			"dir", cfg.InputDir,
		)
	}

	recognizer, err := ocr.Factory(
		ctx,
		ocr.Provider(cfg.Provider),
		cfg.APIKey,
		ocr.Options{
			Model:   cfg.Model,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create recognizer: %w", err)
	}
	recognizer = ocr.NewRetrying(recognizer, cfg.Retries, time.Second)

	dispatcher := dispatch.New(recognizer, cfg.Workers, func(p dispatch.Progress) {
		logger.Infow("Image processed",
			"progress", fmt.Sprintf("%d/%d", p.Done, p.Total),
			"file", p.Name,
			"status", string(p.Status),
		)
	})

	results, runErr := dispatcher.Run(ctx, tasks)
	counts := countStatuses(results)

	if runErr != nil {
		if errors.Is(runErr, dispatch.ErrAuthFatal) {
			logger.Errorw("Batch halted by authentication failure",
				"completed", len(results),
				"succeeded", counts[dispatch.StatusSuccess],
			)
			return fmt.Errorf(
				"provider rejected the API key after %d of %d images: check the credential and rerun",
				len(results),
				len(tasks),
			)
		}
		return runErr
	}

	sub := subtitle.NewAssembler().Assemble(successCues(results))

	format := subtitle.GetFormatFromExtension(cfg.OutputPath())
	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}

	if err := writer.Write(sub, cfg.OutputPath()); err != nil {
		return fmt.Errorf(
			"failed to write subtitle file (recognition results are not persisted; fix the path and rerun): %w",
			err,
		)
	}

	absOutput, _ := filepath.Abs(cfg.OutputPath())
	fmt.Printf("Subtitles generated successfully: %s\n", absOutput)
	fmt.Printf("  Entries:  %d\n", len(sub.Entries))
	fmt.Printf("  Images:   %d processed, %d skipped by name\n", len(tasks), len(skipped))
	fmt.Printf("  Outcomes: %d succeeded, %d blocked, %d empty, %d failed\n",
		counts[dispatch.StatusSuccess],
		counts[dispatch.StatusBlocked],
		counts[dispatch.StatusEmpty],
		counts[dispatch.StatusFailed],
	)

	return nil
}

// loadGenerateConfig merges the config file with flag overrides and
// validates the result. Flags win over file values when set.
func loadGenerateConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	if cmd.Flags().Changed("provider") {
		cfg.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		cfg.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries, _ = cmd.Flags().GetInt("retries")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.OutputDir = filepath.Dir(output)
		cfg.OutputFile = filepath.Base(output)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// successCues converts successful recognitions into assembler input.
func successCues(results []dispatch.Result) []subtitle.Cue {
	var cues []subtitle.Cue
	for _, r := range results {
		if r.Status != dispatch.StatusSuccess {
			continue
		}
		cues = append(cues, subtitle.Cue{
			StartTime: r.Task.Start,
			EndTime:   r.Task.End,
			Text:      r.Text,
			Hint:      r.Task.Hint,
			Name:      r.Task.Name,
		})
	}
	return cues
}

func countStatuses(results []dispatch.Result) map[dispatch.Status]int {
	counts := make(map[dispatch.Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

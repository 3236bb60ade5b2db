package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/miekki-jerry/transtamps/internal/config"
	"github.com/miekki-jerry/transtamps/internal/ffmpeg"
	"github.com/miekki-jerry/transtamps/internal/worker"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <video-file>",
	Short: "Transcribe a video file to transcription.csv",
	Long: `Transcribe a video file into a timestamped CSV table. The remote service
caps upload sizes, so the audio is split into adaptively sized chunks that
each stay under MAX_CHUNK_SIZE_MB before being submitted one at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	output     string
	testMode   bool
	maxRetries int
	rateLimit  int
)

func init() {
	defaults := config.Default()

	transcribeCmd.Flags().StringVarP(&output, "output", "o", "", "output CSV path (default: transcription.csv)")
	transcribeCmd.Flags().BoolVar(&testMode, "test-mode", false, "process only the first TEST_MODE_DURATION seconds")
	transcribeCmd.Flags().IntVar(&maxRetries, "max-retries", defaults.MaxRetries, "max attempts per chunk on transient service errors")
	transcribeCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.RateLimitPerMin, "API requests per minute")

	rootCmd.AddCommand(transcribeCmd)
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpg": true,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	// The credential check happens before any media is touched.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.MaxRetries = maxRetries
	cfg.RateLimitPerMin = rateLimit

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if !videoExts[ext] {
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	if !ffmpeg.Available() {
		return fmt.Errorf("ffmpeg and ffprobe are required on the PATH")
	}

	// Graceful cancellation: temporaries are cleaned up and no partial
	// table is written.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := worker.Options{
		InputPath:  absPath,
		OutputPath: output,
		TestMode:   testMode,
		Cfg:        cfg,
		Progress: func(done, total int) {
			slog.Info("progress", "chunks", fmt.Sprintf("%d/%d", done, total))
		},
	}

	if err := worker.Run(ctx, opts); err != nil {
		return err
	}

	if !quiet {
		slog.Info("done")
	}
	return nil
}

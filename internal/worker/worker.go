package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/miekki-jerry/transtamps/internal/api"
	"github.com/miekki-jerry/transtamps/internal/chunker"
	"github.com/miekki-jerry/transtamps/internal/config"
	"github.com/miekki-jerry/transtamps/internal/ffmpeg"
	"github.com/miekki-jerry/transtamps/internal/pricing"
	"github.com/miekki-jerry/transtamps/internal/transcript"
)

// DefaultOutput is the transcript table written on success.
const DefaultOutput = "transcription.csv"

// Prober reports container duration and audio stream presence.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error)
}

// Extractor produces the fixed-bitrate MP3 for a window of the input.
type Extractor interface {
	Extract(ctx context.Context, path string, startSec, durationSec float64, outPath string) error
}

// Transcriber submits one chunk and returns its offset-tagged reply.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, offsetSec float64) (*transcript.Reply, error)
}

// Options configures the worker.
type Options struct {
	InputPath  string
	OutputPath string
	TestMode   bool
	Cfg        *config.Config

	// Progress is invoked once per completed chunk, between uploads.
	Progress func(done, total int)

	// Collaborators; nil fields get the real ffmpeg/API implementations.
	Prober      Prober
	Extractor   Extractor
	Slicer      chunker.Slicer
	Transcriber Transcriber
}

// ffmpegMedia adapts the ffmpeg package functions to the worker's
// capability interfaces.
type ffmpegMedia struct{}

func (ffmpegMedia) Probe(ctx context.Context, path string) (*ffmpeg.MediaInfo, error) {
	return ffmpeg.Probe(ctx, path)
}

func (ffmpegMedia) Extract(ctx context.Context, path string, startSec, durationSec float64, outPath string) error {
	return ffmpeg.Extract(ctx, path, startSec, durationSec, outPath)
}

// Run is the top-level orchestrator: probe, extract, chunk, transcribe
// sequentially, assemble, write the CSV. Every temporary lives in one
// run directory removed on all exit paths; the output file is written
// exactly once, on success.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Cfg
	if opts.Prober == nil {
		opts.Prober = ffmpegMedia{}
	}
	if opts.Extractor == nil {
		opts.Extractor = ffmpegMedia{}
	}
	if opts.Slicer == nil {
		opts.Slicer = chunker.SlicerFunc(ffmpeg.Slice)
	}
	if opts.Transcriber == nil {
		opts.Transcriber = api.NewClient(cfg.APIKey, cfg.WhisperModel)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutput
	}

	slog.Info("processing file", "input", filepath.Base(opts.InputPath))

	info, err := opts.Prober.Probe(ctx, opts.InputPath)
	if err != nil {
		return fmt.Errorf("probe media: %w", err)
	}
	if !info.HasAudio {
		return fmt.Errorf("probe media: %w", ffmpeg.ErrNoAudioTrack)
	}

	processedSec := info.Duration
	if opts.TestMode && float64(cfg.TestModeDuration) < processedSec {
		processedSec = float64(cfg.TestModeDuration)
		slog.Info("test mode, clamping processed window",
			"seconds", cfg.TestModeDuration)
	}

	slog.Info("media probed",
		"duration", transcript.FormatTime(info.Duration),
		"processed", transcript.FormatTime(processedSec),
		"estimated_cost_usd", fmt.Sprintf("%.3f", pricing.Estimate(processedSec)))

	tempDir, err := os.MkdirTemp("", "transtamps-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			slog.Warn("temp dir cleanup", "dir", tempDir, "err", rmErr)
		}
	}()

	// Extract the processed window as one 64 kbit/s MP3.
	audioPath := filepath.Join(tempDir, "audio.mp3")
	extractSec := 0.0 // to end
	if processedSec < info.Duration {
		extractSec = processedSec
	}
	slog.Info("extracting audio")
	if err := opts.Extractor.Extract(ctx, opts.InputPath, 0, extractSec, audioPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	slog.Info("splitting audio into chunks", "max_chunk_mb", cfg.MaxChunkSizeMB)
	chunks, err := chunker.Split(ctx, opts.Slicer, audioPath,
		int64(processedSec*1000), cfg.MaxChunkBytes(), tempDir)
	if err != nil {
		return fmt.Errorf("split audio: %w", err)
	}
	// The full extracted blob is only needed for slicing.
	if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
		slog.Debug("remove extracted audio", "err", err)
	}

	slog.Info("split into chunks", "count", len(chunks))

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), 1)

	replies := make([]transcript.Reply, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			removeFiles(chunks[i:])
			return err
		}
		if err := limiter.Wait(ctx); err != nil {
			removeFiles(chunks[i:])
			return err
		}

		slog.Info("transcribing chunk",
			"chunk", fmt.Sprintf("%d/%d", i+1, len(chunks)),
			"offset", transcript.FormatTime(chunk.OffsetSec))

		reply, err := transcribeWithRetry(ctx, opts.Transcriber, chunk,
			cfg.MaxRetries, time.Second)

		// Each chunk is single-use; drop it as soon as its request
		// finished, success or failure.
		removeFiles(chunks[i : i+1])

		if err != nil {
			removeFiles(chunks[i+1:])
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}

		replies = append(replies, *reply)
		if opts.Progress != nil {
			opts.Progress(i+1, len(chunks))
		}
	}

	rows := transcript.Assemble(replies)
	slog.Info("writing transcript", "rows", len(rows), "path", outputPath)
	if err := transcript.WriteFile(outputPath, rows); err != nil {
		return err
	}

	return nil
}

// transcribeWithRetry re-invokes a failed chunk on transient service
// errors only, with an exponential backoff ladder (base, 2*base, ...).
// Rejected requests and cancellation surface immediately.
func transcribeWithRetry(ctx context.Context, tr Transcriber, chunk chunker.Chunk, maxAttempts int, base time.Duration) (*transcript.Reply, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		reply, err := tr.Transcribe(ctx, chunk.Path, chunk.OffsetSec)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if !errors.Is(err, api.ErrRemoteUnavailable) {
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		backoff := base << uint(attempt)
		slog.Warn("chunk failed, retrying",
			"attempt", attempt+1,
			"backoff", backoff,
			"err", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func removeFiles(chunks []chunker.Chunk) {
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			slog.Debug("cleanup chunk", "file", filepath.Base(c.Path), "err", err)
		}
	}
}

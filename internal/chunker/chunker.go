package chunker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrInfeasible means the adaptive window shrank below the duration
// floor without producing a chunk under the byte cap.
var ErrInfeasible = errors.New("cannot split audio into small enough chunks")

const (
	// InitialWindowMS is the first attempted chunk duration.
	InitialWindowMS = 60_000

	// MinChunkDurationMS is the hard floor; shrinking past it aborts
	// the run.
	MinChunkDurationMS = 10_000

	// shrinkNum/shrinkDen apply the 0.9 geometric shrink in integer
	// arithmetic.
	shrinkNum = 9
	shrinkDen = 10
)

// Slicer re-encodes a millisecond range of an audio file to a new file
// at the pipeline's fixed bitrate. ffmpeg.Slice satisfies it; tests
// substitute fakes.
type Slicer interface {
	Slice(ctx context.Context, audioPath string, startMS, endMS int64, outPath string) error
}

// SlicerFunc adapts a function to the Slicer interface.
type SlicerFunc func(ctx context.Context, audioPath string, startMS, endMS int64, outPath string) error

func (f SlicerFunc) Slice(ctx context.Context, audioPath string, startMS, endMS int64, outPath string) error {
	return f(ctx, audioPath, startMS, endMS, outPath)
}

// Chunk is one size-bounded slice of the extracted audio, paired with
// its absolute start offset in the processed window.
type Chunk struct {
	Path       string
	OffsetSec  float64
	DurationMS int64
}

// Split partitions the audio at audioPath (totalMS milliseconds long)
// into contiguous MP3 chunks, each at most maxBytes on disk, written
// into dir. Chunks come back in strict offset order and cover
// [0, totalMS) with no gaps or overlaps.
//
// Cut points adapt to content density: each chunk starts as a 60 s
// window and shrinks by 0.9 until the encoded file fits under maxBytes.
// A window under the 10 s floor aborts with ErrInfeasible. On any
// abort, every chunk file written so far is removed.
func Split(ctx context.Context, slicer Slicer, audioPath string, totalMS, maxBytes int64, dir string) ([]Chunk, error) {
	if totalMS <= 0 {
		return nil, fmt.Errorf("non-positive audio duration %d ms", totalMS)
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("non-positive chunk size cap %d", maxBytes)
	}

	var chunks []Chunk
	abort := func(err error) ([]Chunk, error) {
		removeChunkFiles(chunks)
		return nil, err
	}

	var startMS int64
	for startMS < totalMS {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.mp3", len(chunks)))
		windowMS := int64(InitialWindowMS)

		for {
			endMS := min(startMS+windowMS, totalMS)

			if err := slicer.Slice(ctx, audioPath, startMS, endMS, path); err != nil {
				os.Remove(path)
				return abort(err)
			}

			stat, err := os.Stat(path)
			if err != nil {
				return abort(fmt.Errorf("stat chunk file: %w", err))
			}

			if stat.Size() <= maxBytes {
				chunks = append(chunks, Chunk{
					Path:       path,
					OffsetSec:  float64(startMS) / 1000,
					DurationMS: endMS - startMS,
				})
				slog.Debug("chunk accepted",
					"index", len(chunks)-1,
					"start_ms", startMS,
					"window_ms", windowMS,
					"size_bytes", stat.Size())
				break
			}

			// Oversize: drop the attempt and try a smaller window.
			if err := os.Remove(path); err != nil {
				return abort(fmt.Errorf("remove oversize chunk: %w", err))
			}
			windowMS = windowMS * shrinkNum / shrinkDen
			slog.Debug("chunk oversize, shrinking window",
				"start_ms", startMS,
				"window_ms", windowMS,
				"size_bytes", stat.Size())

			if windowMS < MinChunkDurationMS {
				return abort(fmt.Errorf("%w: window shrank to %d ms at offset %d ms",
					ErrInfeasible, windowMS, startMS))
			}
		}

		// Advance by the accepted window, not the clamped duration, so
		// the final partial window still pushes the cursor past the end.
		if windowMS <= 0 {
			return abort(fmt.Errorf("chunk cursor stalled at %d ms", startMS))
		}
		startMS += windowMS
	}

	return chunks, nil
}

// removeChunkFiles deletes chunk files best-effort; used on abort when
// the original error takes precedence.
func removeChunkFiles(chunks []Chunk) {
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			slog.Debug("cleanup chunk", "file", filepath.Base(c.Path), "err", err)
		}
	}
}

package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Sentinel errors for the media collaborator. Callers classify with
// errors.Is; the wrapped message carries the decoder output.
var (
	ErrUnreadableMedia = errors.New("unreadable media")
	ErrNoAudioTrack    = errors.New("no audio track")
	ErrTranscodeFailed = errors.New("transcode failed")
)

// Audio encoding is pinned to MP3 at a constant bitrate so the bytes
// per second of encoded output stay predictable for the chunker.
const (
	audioCodec   = "libmp3lame"
	audioBitrate = "64k"
)

// MediaInfo holds duration and audio stream information from ffprobe.
type MediaInfo struct {
	Duration   float64
	AudioCodec string
	HasAudio   bool
}

// Available returns true if ffmpeg and ffprobe are on the PATH.
func Available() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// probeOutput mirrors ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe reads container metadata and returns the media duration in
// seconds plus whether an audio stream is present.
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_name:format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableMedia, execErrDetail(err))
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableMedia, err)
	}
	return info, nil
}

func parseProbeOutput(out []byte) (*MediaInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %v", err)
	}

	dur, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || dur <= 0 {
		return nil, fmt.Errorf("no duration in container metadata")
	}

	info := &MediaInfo{Duration: dur}
	if len(probe.Streams) > 0 {
		info.HasAudio = true
		info.AudioCodec = probe.Streams[0].CodecName
	}
	return info, nil
}

// Extract encodes the [startSec, startSec+durationSec) window of path's
// audio track to an MP3 file at 64 kbit/s CBR. A durationSec <= 0 means
// "to end of input".
func Extract(ctx context.Context, path string, startSec, durationSec float64, outPath string) error {
	args := []string{"-y", "-i", path}
	if startSec > 0 {
		args = append(args, "-ss", strconv.FormatFloat(startSec, 'f', 3, 64))
	}
	if durationSec > 0 {
		args = append(args, "-t", strconv.FormatFloat(durationSec, 'f', 3, 64))
	}
	args = append(args, "-vn", "-acodec", audioCodec, "-b:a", audioBitrate, outPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return classifyEncodeErr(string(out), err)
	}
	return nil
}

// Slice re-encodes the [startMS, endMS) range of an audio file to MP3
// at the fixed bitrate. The output duration tracks the request within
// encoder frame quantization (~100 ms).
func Slice(ctx context.Context, audioPath string, startMS, endMS int64, outPath string) error {
	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-y",
		"-i", audioPath,
		"-ss", formatTime(startMS),
		"-to", formatTime(endMS),
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		outPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return classifyEncodeErr(string(out), err)
	}
	return nil
}

// classifyEncodeErr maps ffmpeg failure output to the error taxonomy.
func classifyEncodeErr(output string, err error) error {
	if strings.Contains(output, "does not contain any stream") ||
		strings.Contains(output, "Output file is empty") {
		return fmt.Errorf("%w: %s", ErrNoAudioTrack, lastLine(output))
	}
	return fmt.Errorf("%w: %v: %s", ErrTranscodeFailed, err, lastLine(output))
}

func execErrDetail(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return lastLine(string(exitErr.Stderr))
	}
	return err.Error()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// ffmpeg banners are long; keep the last line, where the actual
		// failure reason lands.
		lines := strings.Split(s, "\n")
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return s
}

// formatTime renders milliseconds as an HH:MM:SS.mmm ffmpeg time value.
func formatTime(ms int64) string {
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := float64(ms%60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

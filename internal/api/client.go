package api

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/miekki-jerry/transtamps/internal/transcript"
)

// Sentinel errors separating unretryable request failures from
// transient service ones. The core never retries either; a supervising
// caller may re-invoke on ErrRemoteUnavailable.
var (
	ErrRemoteRejected    = errors.New("transcription request rejected")
	ErrRemoteUnavailable = errors.New("transcription service unavailable")
)

// Client submits audio chunks to the Whisper transcription endpoint.
type Client struct {
	oai   *openai.Client
	model string
}

// NewClient builds a transcription client for the given credential and
// model identifier.
func NewClient(apiKey, model string) *Client {
	return &Client{
		oai:   openai.NewClient(apiKey),
		model: model,
	}
}

// Transcribe uploads one chunk requesting segment-level timestamps and
// returns the service's segments tagged with the chunk's absolute
// offset, so the offset travels with the data.
func (c *Client) Transcribe(ctx context.Context, path string, offsetSec float64) (*transcript.Reply, error) {
	resp, err := c.oai.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	reply := &transcript.Reply{
		OffsetSec: offsetSec,
		Segments:  make([]transcript.Segment, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		reply.Segments = append(reply.Segments, transcript.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return reply, nil
}

// classify maps transport and API errors onto the sentinel taxonomy.
// Context cancellation passes through untouched.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", taxonomyFor(apiErr.HTTPStatusCode), err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", taxonomyFor(reqErr.HTTPStatusCode), err)
	}

	// No HTTP status at all: transport-level failure, transient.
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}

func taxonomyFor(status int) error {
	switch {
	case status == 429 || status >= 500:
		return ErrRemoteUnavailable
	case status >= 400:
		return ErrRemoteRejected
	default:
		return ErrRemoteUnavailable
	}
}

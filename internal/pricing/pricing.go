package pricing

import "math"

// PricePerMinute is the Whisper API price in USD per minute of audio.
const PricePerMinute = 0.006

// Estimate returns the predicted transcription cost for the given
// duration. The service bills per started minute.
func Estimate(durationSec float64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return math.Ceil(durationSec/60) * PricePerMinute
}

package transcript

// Segment is a single utterance-level unit from the speech-to-text
// service, with start/end in seconds relative to the uploaded chunk.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Reply holds one chunk's transcription result together with the
// absolute start offset of the chunk it came from.
type Reply struct {
	OffsetSec float64   `json:"offset_sec"`
	Segments  []Segment `json:"segments"`
}

// Row is one line of the final transcript table.
type Row struct {
	Timestamp string
	Text      string
}

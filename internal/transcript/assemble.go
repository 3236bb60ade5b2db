package transcript

import (
	"fmt"
	"strings"
)

// FormatTime converts seconds to a MM:SS label using integer-floor
// seconds. Minutes do not wrap at 60, so 3661s formats as "61:01".
func FormatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Assemble flattens per-chunk replies into the final ordered row list,
// shifting every segment timestamp by its chunk's absolute offset.
// Replies must be passed in chunk order; within a reply, segments keep
// the order the service returned them. Segments whose text trims to
// empty are kept.
func Assemble(replies []Reply) []Row {
	var rows []Row
	for _, reply := range replies {
		for _, seg := range reply.Segments {
			start := reply.OffsetSec + seg.Start
			end := reply.OffsetSec + seg.End
			rows = append(rows, Row{
				Timestamp: FormatTime(start) + " - " + FormatTime(end),
				Text:      strings.TrimSpace(seg.Text),
			})
		}
	}
	return rows
}

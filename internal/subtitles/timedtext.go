package subtitles

import (
	"encoding/json"
	"strings"

	"bilingualtube/internal/services"
)

// EventSegment is one text run inside a timedtext event.
type EventSegment struct {
	UTF8     string `json:"utf8"`
	OffsetMs *int64 `json:"tOffsetMs,omitempty"`
}

// Event is a timedtext event. Optional fields are pointers so a missing value
// is distinguishable from zero.
type Event struct {
	StartMs    *int64         `json:"tStartMs,omitempty"`
	DurationMs *int64         `json:"dDurationMs,omitempty"`
	Segs       []EventSegment `json:"segs,omitempty"`
	WindowID   *int64         `json:"wWinId,omitempty"`
	Append     *int64         `json:"aAppend,omitempty"`
}

// Response is the timedtext JSON body returned for a caption track.
type Response struct {
	Events []Event `json:"events"`
}

// ParseResponse decodes a timedtext body. A body without an events array is
// malformed.
func ParseResponse(data []byte) (*Response, error) {
	var raw struct {
		Events *[]Event `json:"events"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "timedtext", "decode", "invalid json", err)
	}
	if raw.Events == nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "timedtext", "decode", "missing events", nil)
	}
	return &Response{Events: *raw.Events}, nil
}

func (s EventSegment) offset() int64 {
	if s.OffsetMs == nil {
		return 0
	}
	return *s.OffsetMs
}

func (e Event) start() int64 {
	if e.StartMs == nil {
		return 0
	}
	return *e.StartMs
}

func (e Event) duration() int64 {
	if e.DurationMs == nil {
		return 0
	}
	return *e.DurationMs
}

func (e Event) isAppend() bool {
	return e.Append != nil && *e.Append == 1
}

// isNewlineBoundary reports whether the event is an appended "\n" marker.
func (e Event) isNewlineBoundary() bool {
	return e.isAppend() && e.StartMs != nil && len(e.Segs) > 0 && e.Segs[0].UTF8 == "\n"
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}

func flattenNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

package subtitles

import (
	"regexp"
	"strings"
)

// TimedToken is one word or tag with its display interval in seconds.
type TimedToken struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Tokens flattens timedtext events into timed tokens in event order.
//
// Whitespace-only segments are dropped first, and events left without
// segments are skipped. A segment ends where the next segment of the same
// event starts; the last segment ends at the earlier of its event end and the
// next surviving event's start; the final segment ends at its event end.
// Events without a start time cannot be placed and are skipped.
func Tokens(resp *Response) []TimedToken {
	if resp == nil {
		return nil
	}
	events := make([]Event, 0, len(resp.Events))
	for _, event := range resp.Events {
		if event.StartMs == nil {
			continue
		}
		segs := make([]EventSegment, 0, len(event.Segs))
		for _, seg := range event.Segs {
			if strings.TrimSpace(seg.UTF8) != "" {
				segs = append(segs, seg)
			}
		}
		if len(segs) == 0 {
			continue
		}
		event.Segs = segs
		events = append(events, event)
	}

	tokens := make([]TimedToken, 0, len(events)*4)
	for i, event := range events {
		eventStart := event.start()
		eventEnd := eventStart + event.duration()
		for j, seg := range event.Segs {
			start := eventStart + seg.offset()
			var end int64
			switch {
			case j+1 < len(event.Segs):
				end = eventStart + event.Segs[j+1].offset()
			case i+1 < len(events):
				end = min(eventEnd, events[i+1].start())
			default:
				end = eventEnd
			}
			if end < start {
				end = start
			}
			text := strings.TrimSpace(flattenNewlines(seg.UTF8))
			if text == "" {
				continue
			}
			tokens = append(tokens, TimedToken{Start: msToSeconds(start), End: msToSeconds(end), Text: text})
		}
	}
	return tokens
}

var (
	punctuationMark = regexp.MustCompile(`[,.?!]`)
	decimalNumber   = regexp.MustCompile(`^\d+[.,]\d+c?$`)
)

// HasMissingPunctuation reports whether no token carries sentence punctuation.
// Decimal numbers such as "13.2" or "37.2c" do not count as punctuation.
func HasMissingPunctuation(tokens []TimedToken) bool {
	for _, token := range tokens {
		text := strings.TrimSpace(token.Text)
		if punctuationMark.MatchString(text) && !decimalNumber.MatchString(text) {
			return false
		}
	}
	return true
}

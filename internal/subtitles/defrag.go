package subtitles

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"bilingualtube/internal/language"
)

// MaxCueLength bounds merged and segmented cue text, in characters.
const MaxCueLength = 100

var (
	terminalPunctuation = regexp.MustCompile(`[.!?]$`)
	trailingComma       = regexp.MustCompile(`[,;]$`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

type fragment struct {
	startMs int64
	endMs   int64
	text    string
}

func (f fragment) duration() int64 {
	return f.endMs - f.startMs
}

// Defragment merges the overlapping, re-emitted fragments of an ASR event
// stream into sentence cues sorted by start time.
//
// Events are split at segments ending in terminal punctuation. A fragment
// after a finished sentence always opens a new cue, as does one adjacent to a
// previous comma-ended fragment or separated from it by a newline boundary.
// Overlapping fragments merge unless the merged text would exceed
// MaxCueLength, and the merged cue ends where the later fragment ends.
// Standalone special tags such as [Music] never merge.
func Defragment(events []Event, lang string) []Cue {
	if len(events) == 0 {
		return nil
	}
	lang = language.Normalize(lang)
	tags := RulesFor(lang).SpecialTags

	var boundaries []int64
	for _, event := range events {
		if event.isNewlineBoundary() {
			boundaries = append(boundaries, event.start())
		}
	}

	fragments := make([]fragment, 0, len(events))
	for _, event := range events {
		if len(event.Segs) == 0 || event.StartMs == nil || event.DurationMs == nil || event.isAppend() {
			continue
		}
		fragments = append(fragments, splitEvent(event)...)
	}
	if len(fragments) == 0 {
		return nil
	}
	slices.SortStableFunc(fragments, func(a, b fragment) int {
		switch {
		case a.startMs < b.startMs:
			return -1
		case a.startMs > b.startMs:
			return 1
		}
		return 0
	})

	merged := []fragment{fragments[0]}
	for _, cur := range fragments[1:] {
		prev := &merged[len(merged)-1]
		if cur.startMs == prev.startMs && cur.text == prev.text && cur.duration() == prev.duration() {
			continue
		}
		prevText := strings.TrimSpace(prev.text)
		if terminalPunctuation.MatchString(prevText) || slices.Contains(tags, prevText) || slices.Contains(tags, cur.text) {
			merged = append(merged, cur)
			continue
		}
		if trailingComma.MatchString(prevText) && (cur.startMs == prev.endMs || boundaryBetween(boundaries, prev.startMs, cur.startMs)) {
			merged = append(merged, cur)
			continue
		}
		if cur.startMs <= prev.endMs {
			text := prev.text + " " + cur.text
			if utf8.RuneCountInString(text) > MaxCueLength {
				merged = append(merged, cur)
				continue
			}
			prev.text = text
			prev.endMs = cur.endMs
			continue
		}
		merged = append(merged, cur)
	}

	cues := make([]Cue, 0, len(merged))
	for _, f := range merged {
		cues = append(cues, Cue{
			Start: msToSeconds(f.startMs),
			End:   msToSeconds(f.endMs),
			Text:  normalizeCueText(f.text, lang),
		})
	}
	return cues
}

// splitEvent cuts an event into fragments at segments ending in terminal
// punctuation. Each fragment spans its first segment's start to its last
// segment's end.
func splitEvent(event Event) []fragment {
	eventStart := event.start()
	eventEnd := eventStart + event.duration()
	var (
		out     []fragment
		builder strings.Builder
		startMs = eventStart + event.Segs[0].offset()
		endMs   = startMs
	)
	emit := func() {
		text := strings.TrimSpace(builder.String())
		builder.Reset()
		if text == "" {
			return
		}
		out = append(out, fragment{startMs: startMs, endMs: max(endMs, startMs), text: text})
	}
	for i, seg := range event.Segs {
		text := flattenNewlines(seg.UTF8)
		builder.WriteString(text)
		if i+1 < len(event.Segs) {
			endMs = eventStart + event.Segs[i+1].offset()
		} else {
			endMs = eventEnd
		}
		if terminalPunctuation.MatchString(strings.TrimSpace(text)) {
			emit()
			if i+1 < len(event.Segs) {
				startMs = eventStart + event.Segs[i+1].offset()
			}
		}
	}
	emit()
	return out
}

func boundaryBetween(boundaries []int64, afterMs, atOrBeforeMs int64) bool {
	for _, b := range boundaries {
		if b > afterMs && b <= atOrBeforeMs {
			return true
		}
	}
	return false
}

var noSpaceLanguages = map[string]bool{"ja": true, "zh-Hans": true, "zh-Hant": true}

// normalizeCueText collapses whitespace. Languages written without spaces keep
// a space only where it touches an ASCII letter or digit.
func normalizeCueText(text, lang string) string {
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if !noSpaceLanguages[lang] {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		if r == ' ' {
			prevAlnum := i > 0 && isASCIIAlnum(runes[i-1])
			nextAlnum := i+1 < len(runes) && isASCIIAlnum(runes[i+1])
			if !prevAlnum && !nextAlnum {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

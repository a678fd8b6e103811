package subtitles

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// ExportOptions controls which lines each exported cue carries.
type ExportOptions struct {
	// Bilingual adds the translation as a second line.
	Bilingual bool
	// TranslationOnly writes the translation in place of the source text
	// when one exists, as for Simplified/Traditional Chinese conversion.
	TranslationOnly bool
}

// WriteSRT writes cues as SubRip.
func WriteSRT(w io.Writer, cues []Cue, opts ExportOptions) error {
	if err := buildSubtitles(cues, opts).WriteToSRT(w); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// WriteWebVTT writes cues as WebVTT.
func WriteWebVTT(w io.Writer, cues []Cue, opts ExportOptions) error {
	if err := buildSubtitles(cues, opts).WriteToWebVTT(w); err != nil {
		return fmt.Errorf("write webvtt: %w", err)
	}
	return nil
}

func buildSubtitles(cues []Cue, opts ExportOptions) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	subs.Items = make([]*astisub.Item, 0, len(cues))
	for _, cue := range cues {
		var lines []string
		translated := strings.TrimSpace(cue.Translated)
		switch {
		case opts.TranslationOnly && translated != "":
			lines = []string{translated}
		case opts.Bilingual && translated != "":
			lines = []string{cue.Text, translated}
		default:
			lines = []string{cue.Text}
		}
		item := &astisub.Item{StartAt: secondsToDuration(cue.Start), EndAt: secondsToDuration(cue.End)}
		for _, line := range lines {
			item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: line}}})
		}
		subs.Items = append(subs.Items, item)
	}
	return subs
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}

package subtitles_test

import (
	"bytes"
	"strings"
	"testing"

	"bilingualtube/internal/subtitles"
)

func TestActiveCue(t *testing.T) {
	cues := []subtitles.Cue{
		{Start: 1, End: 2, Text: "one"},
		{Start: 3, End: 5, Text: "two"},
	}
	cases := []struct {
		at   float64
		want int
	}{
		{0.5, -1},
		{0.95, 0},
		{1.85, 0},
		{1.95, -1},
		{2.95, 1},
		{4.8, 1},
		{6, -1},
	}
	for _, tc := range cases {
		if got := subtitles.ActiveCue(cues, tc.at); got != tc.want {
			t.Fatalf("ActiveCue(%v) = %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestCuesFromTokens(t *testing.T) {
	cues := subtitles.CuesFromTokens(words("a", "b"))
	if len(cues) != 2 || cues[1].Text != "b" || cues[1].Start != 1 || cues[1].Translated != "" {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if texts := subtitles.Texts(cues); strings.Join(texts, ",") != "a,b" {
		t.Fatalf("unexpected texts %v", texts)
	}
}

func TestWriteSRTBilingual(t *testing.T) {
	cues := []subtitles.Cue{
		{Start: 2.11, End: 4.319, Text: "[Music]"},
		{Start: 4.319, End: 5.92, Text: "What's wrong, Twilight?", Translated: "怎么了，暮光？"},
	}
	var buf bytes.Buffer
	if err := subtitles.WriteSRT(&buf, cues, subtitles.ExportOptions{Bilingual: true}); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"00:00:02,110 --> 00:00:04,319", "What's wrong, Twilight?\n怎么了，暮光？", "[Music]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("srt output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteWebVTTTranslationOnly(t *testing.T) {
	cues := []subtitles.Cue{
		{Start: 1, End: 2.5, Text: "软件", Translated: "軟體"},
		{Start: 3, End: 4, Text: "没有翻译"},
	}
	var buf bytes.Buffer
	if err := subtitles.WriteWebVTT(&buf, cues, subtitles.ExportOptions{TranslationOnly: true}); err != nil {
		t.Fatalf("WriteWebVTT: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "WEBVTT") {
		t.Fatalf("expected WEBVTT header:\n%s", out)
	}
	if !strings.Contains(out, "00:00:01.000 --> 00:00:02.500") {
		t.Fatalf("missing timing line:\n%s", out)
	}
	if strings.Contains(out, "软件") || !strings.Contains(out, "軟體") || !strings.Contains(out, "没有翻译") {
		t.Fatalf("unexpected translation-only output:\n%s", out)
	}
}

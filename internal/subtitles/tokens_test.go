package subtitles_test

import (
	"errors"
	"math"
	"testing"

	"bilingualtube/internal/services"
	"bilingualtube/internal/subtitles"
	"bilingualtube/internal/testsupport"
)

func loadFixture(t *testing.T, name string) *subtitles.Response {
	t.Helper()
	resp, err := subtitles.ParseResponse(testsupport.Fixture(t, name))
	if err != nil {
		t.Fatalf("ParseResponse(%s): %v", name, err)
	}
	return resp
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ms(v int64) *int64 { return &v }

func TestParseResponseRejectsMissingEvents(t *testing.T) {
	for _, body := range []string{`{}`, `{"wireMagic":"pb3"}`, `not json`} {
		if _, err := subtitles.ParseResponse([]byte(body)); !errors.Is(err, services.ErrMalformedResponse) {
			t.Fatalf("ParseResponse(%q) error = %v, want ErrMalformedResponse", body, err)
		}
	}
	resp, err := subtitles.ParseResponse([]byte(`{"events":[]}`))
	if err != nil {
		t.Fatalf("empty events should parse: %v", err)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(resp.Events))
	}
}

func TestTokensDeriveEndFromNeighbours(t *testing.T) {
	resp := &subtitles.Response{Events: []subtitles.Event{
		{StartMs: ms(1000), DurationMs: ms(2000), Segs: []subtitles.EventSegment{
			{UTF8: "hello"},
			{UTF8: "  ", OffsetMs: ms(200)},
			{UTF8: " big\nworld", OffsetMs: ms(500)},
		}},
		{StartMs: ms(2500), Segs: []subtitles.EventSegment{{UTF8: "\n"}}},
		{StartMs: ms(2800), DurationMs: ms(1000), Segs: []subtitles.EventSegment{{UTF8: "again"}}},
		{DurationMs: ms(1000), Segs: []subtitles.EventSegment{{UTF8: "untimed"}}},
	}}

	tokens := subtitles.Tokens(resp)
	want := []subtitles.TimedToken{
		{Start: 1.0, End: 1.5, Text: "hello"},
		{Start: 1.5, End: 2.8, Text: "big world"},
		{Start: 2.8, End: 3.8, Text: "again"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i].Text != want[i].Text || !approxEqual(tokens[i].Start, want[i].Start) || !approxEqual(tokens[i].End, want[i].End) {
			t.Fatalf("token %d = %+v, want %+v", i, tokens[i], want[i])
		}
	}
}

func TestTokensClampToEventEnd(t *testing.T) {
	resp := &subtitles.Response{Events: []subtitles.Event{
		{StartMs: ms(0), DurationMs: ms(1000), Segs: []subtitles.EventSegment{{UTF8: "short"}}},
		{StartMs: ms(5000), Segs: []subtitles.EventSegment{{UTF8: "tail"}}},
	}}
	tokens := subtitles.Tokens(resp)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if !approxEqual(tokens[0].End, 1.0) {
		t.Fatalf("expected first token clamped to event end, got %v", tokens[0].End)
	}
	if !approxEqual(tokens[1].Start, 5.0) || !approxEqual(tokens[1].End, 5.0) {
		t.Fatalf("expected zero-length tail token, got %+v", tokens[1])
	}
}

func TestTokensFromFixture(t *testing.T) {
	tokens := subtitles.Tokens(loadFixture(t, testsupport.FixtureMLP))
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	if tokens[0].Text != "[Music]" || !approxEqual(tokens[0].Start, 2.11) || !approxEqual(tokens[0].End, 4.319) {
		t.Fatalf("unexpected first token %+v", tokens[0])
	}
	for i, token := range tokens {
		if token.Start > token.End {
			t.Fatalf("token %d has start after end: %+v", i, token)
		}
		if token.Text == "" {
			t.Fatalf("token %d is empty", i)
		}
	}
}

func TestHasMissingPunctuation(t *testing.T) {
	unpunctuated := subtitles.Tokens(loadFixture(t, testsupport.FixtureUnpunctuated))
	if !subtitles.HasMissingPunctuation(unpunctuated) {
		t.Fatal("expected unpunctuated fixture to need restoration")
	}
	if subtitles.HasMissingPunctuation(subtitles.Tokens(loadFixture(t, testsupport.FixtureMLP))) {
		t.Fatal("expected punctuated fixture to be detected")
	}

	cases := []struct {
		name  string
		texts []string
		want  bool
	}{
		{"empty", nil, true},
		{"decimal", []string{"it", "is", "13.2"}, true},
		{"temperature", []string{"about", "37.2c"}, true},
		{"comma decimal", []string{"3,5"}, true},
		{"comma", []string{"well,", "yes"}, false},
		{"question", []string{"why?"}, false},
		{"decimal then period", []string{"13.2", "done."}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tokens := make([]subtitles.TimedToken, len(tc.texts))
			for i, text := range tc.texts {
				tokens[i] = subtitles.TimedToken{Text: text}
			}
			if got := subtitles.HasMissingPunctuation(tokens); got != tc.want {
				t.Fatalf("HasMissingPunctuation(%v) = %v, want %v", tc.texts, got, tc.want)
			}
		})
	}
}

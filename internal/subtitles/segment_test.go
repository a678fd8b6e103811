package subtitles_test

import (
	"slices"
	"strings"
	"testing"

	"bilingualtube/internal/subtitles"
	"bilingualtube/internal/testsupport"
)

func words(texts ...string) []subtitles.TimedToken {
	tokens := make([]subtitles.TimedToken, len(texts))
	for i, text := range texts {
		tokens[i] = subtitles.TimedToken{Start: float64(i), End: float64(i) + 1, Text: text}
	}
	return tokens
}

func TestSegmentFixture(t *testing.T) {
	tokens := subtitles.Tokens(loadFixture(t, testsupport.FixtureMLP))
	assertCues(t, subtitles.Segment(tokens, "en"), mlpCues)
}

func TestSegmentFriendshipFixture(t *testing.T) {
	tokens := subtitles.Tokens(loadFixture(t, testsupport.FixtureFriendship))
	cues := subtitles.Segment(tokens, "en")
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if want := "So, you see, friendship isn't always easy, but there's no doubt it's worth fighting [music] for."; cues[0].Text != want {
		t.Fatalf("cue 0 = %q", cues[0].Text)
	}
	if want := ">> A [laughter] h that sounds familiar."; cues[1].Text != want {
		t.Fatalf("cue 1 = %q", cues[1].Text)
	}
}

func TestSegmentSpeakerMarkersAndTags(t *testing.T) {
	cues := subtitles.Segment(words(">> hi", "there", ">> who", "[Applause]", "is", "it"), "en")
	got := make([]string, len(cues))
	for i, cue := range cues {
		got[i] = cue.Text
	}
	want := []string{">> hi there", ">> who", "[Applause]", "is it"}
	if !slices.Equal(got, want) {
		t.Fatalf("segments = %q, want %q", got, want)
	}
	if cues[0].Start != 0 || cues[0].End != 2 {
		t.Fatalf("unexpected timing for first cue %+v", cues[0])
	}
}

func TestSegmentSplitsLongBufferAtClause(t *testing.T) {
	var texts []string
	for i := 0; i < 8; i++ {
		texts = append(texts, "lorem")
	}
	texts = append(texts, "ipsum,")
	for i := 0; i < 20; i++ {
		texts = append(texts, "dolor")
	}
	tokens := words(texts...)
	cues := subtitles.Segment(tokens, "en")
	if len(cues) < 2 {
		t.Fatalf("expected overflow split, got %+v", cues)
	}
	if !strings.HasSuffix(cues[0].Text, "ipsum,") {
		t.Fatalf("expected split at clause break, got %q", cues[0].Text)
	}
	for _, cue := range cues {
		if len([]rune(cue.Text)) > subtitles.MaxCueLength {
			t.Fatalf("cue exceeds max length: %q", cue.Text)
		}
	}
}

func TestSegmentPreservesWords(t *testing.T) {
	tokens := subtitles.Tokens(loadFixture(t, testsupport.FixtureUnpunctuated))
	long := append(slices.Clone(tokens), tokens...)
	long = append(long, long...)
	for _, lang := range []string{"en", "ja"} {
		rules := subtitles.RulesFor(lang)
		cues := subtitles.Segment(long, lang)
		var joined []string
		for _, cue := range cues {
			joined = append(joined, cue.Text)
		}
		var source []string
		for _, token := range long {
			source = append(source, token.Text)
		}
		if got, want := strings.Join(joined, rules.Separator), strings.Join(source, rules.Separator); got != want {
			t.Fatalf("%s: segmentation dropped words\n got: %q\nwant: %q", lang, got, want)
		}
	}
}

func TestRulesForCJK(t *testing.T) {
	rules := subtitles.RulesFor("zh-TW")
	if rules.Separator != "" {
		t.Fatalf("expected empty separator, got %q", rules.Separator)
	}
	if !slices.Equal(rules.SpecialTags, []string{"[音樂]"}) {
		t.Fatalf("unexpected tags %v", rules.SpecialTags)
	}
	if !rules.SentenceEnd.MatchString("好。") || !rules.Clause.MatchString("然后，") {
		t.Fatal("expected full-width punctuation to match")
	}
	if en := subtitles.RulesFor("en-US"); en.Separator != " " || !slices.Contains(en.SpecialTags, "[Music]") {
		t.Fatalf("unexpected default rules %+v", en)
	}
}

func TestSegmentCJKJoinsWithoutSeparator(t *testing.T) {
	cues := subtitles.Segment(words("[音楽]", "こんにちは", "世界。", "元気"), "ja")
	got := make([]string, len(cues))
	for i, cue := range cues {
		got[i] = cue.Text
	}
	if want := []string{"[音楽]", "こんにちは世界。", "元気"}; !slices.Equal(got, want) {
		t.Fatalf("segments = %q, want %q", got, want)
	}
}

func TestResegmentJoinsCuesEndingMidSentence(t *testing.T) {
	cues := []subtitles.Cue{
		{Start: 0, End: 1, Text: "[Music]"},
		{Start: 1, End: 2, Text: "we went to"},
		{Start: 3, End: 4, Text: "the market."},
		{Start: 4, End: 5, Text: "It rained."},
	}
	got := subtitles.Resegment(cues, "en")
	assertCues(t, got, []wantCue{
		{0, 1, "[Music]"},
		{1, 4, "we went to the market."},
		{4, 5, "It rained."},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 cues, got %+v", got)
	}
}

func TestResegmentKeepsDefragmentedFixture(t *testing.T) {
	cues := subtitles.Defragment(loadFixture(t, testsupport.FixtureMLP).Events, "en")
	assertCues(t, subtitles.Resegment(cues, "en"), mlpCues)
}

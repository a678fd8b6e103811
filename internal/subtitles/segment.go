package subtitles

import (
	"regexp"
	"slices"
	"unicode/utf8"

	"bilingualtube/internal/language"
)

// Rules drive sentence segmentation for one language family.
type Rules struct {
	MaxLength     int
	Separator     string
	SentenceStart *regexp.Regexp
	SentenceEnd   *regexp.Regexp
	Clause        *regexp.Regexp
	SpecialTags   []string
}

var (
	speakerMarker  = regexp.MustCompile(`^(>>)`)
	cjkTerminal    = regexp.MustCompile(`[。！？.!?]$`)
	cjkClause      = regexp.MustCompile(`[、，,;]$`)
	cjkSpecialTags = map[string][]string{
		"zh-Hans": {"[音乐]"},
		"zh-Hant": {"[音樂]"},
		"ja":      {"[音楽]"},
		"ko":      {"[음악]"},
	}
)

// RulesFor returns the segmentation rules for lang.
func RulesFor(lang string) Rules {
	lang = language.Normalize(lang)
	if language.IsCJK(lang) {
		return Rules{
			MaxLength:     MaxCueLength,
			Separator:     "",
			SentenceStart: speakerMarker,
			SentenceEnd:   cjkTerminal,
			Clause:        cjkClause,
			SpecialTags:   slices.Clone(cjkSpecialTags[lang]),
		}
	}
	return Rules{
		MaxLength:     MaxCueLength,
		Separator:     " ",
		SentenceStart: speakerMarker,
		SentenceEnd:   terminalPunctuation,
		Clause:        trailingComma,
		SpecialTags:   []string{"[Music]", "[Applause]"},
	}
}

// Segment re-chunks tokens into sentence cues bounded by the language's
// maximum length.
func Segment(tokens []TimedToken, lang string) []Cue {
	return SegmentWithRules(tokens, RulesFor(lang))
}

// Resegment runs sentence segmentation over already merged cues, treating
// each cue as one token. Cues that end mid-sentence join the cues that finish
// the sentence.
func Resegment(cues []Cue, lang string) []Cue {
	tokens := make([]TimedToken, 0, len(cues))
	for _, cue := range cues {
		tokens = append(tokens, TimedToken{Start: cue.Start, End: cue.End, Text: cue.Text})
	}
	rules := RulesFor(lang)
	rules.Separator = " "
	if noSpaceLanguages[language.Normalize(lang)] {
		rules.Separator = ""
	}
	return SegmentWithRules(tokens, rules)
}

// SegmentWithRules is Segment with explicit rules.
//
// Special tags become standalone cues. A speaker marker opens a new cue and
// terminal punctuation closes one. When the buffer overflows it is split at
// the clause break closest to the length budget, or at the closest token when
// no clause break exists.
func SegmentWithRules(tokens []TimedToken, rules Rules) []Cue {
	var (
		cues    []Cue
		current []TimedToken
	)
	flush := func() {
		if len(current) > 0 {
			cues = append(cues, mergeTokens(current, rules.Separator))
			current = nil
		}
	}
	for _, token := range tokens {
		switch {
		case slices.Contains(rules.SpecialTags, token.Text):
			flush()
			cues = append(cues, Cue{Start: token.Start, End: token.End, Text: token.Text})
			continue
		case rules.SentenceStart.MatchString(token.Text):
			flush()
			current = append(current, token)
			continue
		case rules.SentenceEnd.MatchString(token.Text):
			current = append(current, token)
			flush()
			continue
		}

		current = append(current, token)
		// The appended token is counted twice here; downstream cue
		// boundaries depend on this measure.
		if bufferLength(current)+utf8.RuneCountInString(token.Text)+1 <= rules.MaxLength {
			continue
		}
		split := bestSplitPoint(current, rules.MaxLength, rules.Clause)
		if split < 0 {
			flush()
			continue
		}
		cues = append(cues, mergeTokens(current[:split+1], rules.Separator))
		current = slices.Clone(current[split+1:])
	}
	flush()
	return cues
}

func bufferLength(tokens []TimedToken) int {
	total := 0
	for _, token := range tokens {
		total += utf8.RuneCountInString(token.Text) + 1
	}
	return total
}

// bestSplitPoint returns the index whose cumulative length is nearest to
// maxLength, preferring clause breaks. The first candidate wins ties.
func bestSplitPoint(tokens []TimedToken, maxLength int, clause *regexp.Regexp) int {
	var candidates []int
	for i, token := range tokens {
		if clause.MatchString(token.Text) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		candidates = make([]int, len(tokens))
		for i := range tokens {
			candidates[i] = i
		}
	}
	best, bestDistance := -1, 0
	for _, p := range candidates {
		distance := bufferLength(tokens[:p+1]) - maxLength
		if distance < 0 {
			distance = -distance
		}
		if best == -1 || distance < bestDistance {
			best, bestDistance = p, distance
		}
	}
	return best
}

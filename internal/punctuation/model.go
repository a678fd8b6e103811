package punctuation

import (
	"context"
	"encoding"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bilingualtube/internal/subtitles"
)

const (
	// MaxSequenceLength is the fixed model input width.
	MaxSequenceLength = 200
	// DefaultWindowTokens leaves room for the start and end markers.
	DefaultWindowTokens = MaxSequenceLength - 20
	// DefaultOverlapTokens is the overlap between consecutive windows.
	DefaultOverlapTokens = 30

	caseClasses  = 4
	punctClasses = 4
)

// Input is one model invocation: padded ids, word-start markers and the
// number of word starts the model should label.
type Input struct {
	InputIDs []int32 `json:"input_ids"`
	ValidIDs []int32 `json:"valid_ids"`
	LabelLen int32   `json:"-"`
}

// Output holds flattened logits, four classes per labelled position.
type Output struct {
	CaseLogits  []float32 `json:"case_logits"`
	PunctLogits []float32 `json:"punct_logits"`
}

// Model runs punctuation and case inference.
type Model interface {
	Run(ctx context.Context, in Input) (Output, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, in Input) (Output, error)

// Run calls f.
func (f ModelFunc) Run(ctx context.Context, in Input) (Output, error) {
	return f(ctx, in)
}

// CaseType is the predicted casing of a word.
type CaseType int

const (
	CaseLower CaseType = iota
	CaseUpper
	CaseCap
	CaseMix
)

var caseNames = [...]string{"LOWER", "UPPER", "CAP", "MIX"}

func (c CaseType) String() string {
	if c < 0 || int(c) >= len(caseNames) {
		return fmt.Sprintf("CaseType(%d)", int(c))
	}
	return caseNames[c]
}

// MarshalText renders the class name.
func (c CaseType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// PunctType is the predicted punctuation following a word.
type PunctType int

const (
	PunctNone PunctType = iota
	PunctComma
	PunctPeriod
	PunctQuestion
)

var (
	punctNames = [...]string{"NONE", "COMMA", "PERIOD", "QUESTION"}
	punctMarks = [...]string{"", ",", ".", "?"}
)

func (p PunctType) String() string {
	if p < 0 || int(p) >= len(punctNames) {
		return fmt.Sprintf("PunctType(%d)", int(p))
	}
	return punctNames[p]
}

// MarshalText renders the class name.
func (p PunctType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Mark returns the punctuation appended for p.
func (p PunctType) Mark() string {
	if p < 0 || int(p) >= len(punctMarks) {
		return ""
	}
	return punctMarks[p]
}

var (
	_ encoding.TextMarshaler = CaseType(0)
	_ encoding.TextMarshaler = PunctType(0)

	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// Apply transforms word according to c. CaseMix leaves the word untouched.
func (c CaseType) Apply(word string) string {
	switch c {
	case CaseLower:
		return lowerCaser.String(word)
	case CaseUpper:
		return upperCaser.String(word)
	case CaseCap:
		for i := range word {
			if i == 0 {
				continue
			}
			return upperCaser.String(word[:i]) + lowerCaser.String(word[i:])
		}
		return upperCaser.String(word)
	default:
		return word
	}
}

// AnnotatedToken is a timed token with its restored case and punctuation.
type AnnotatedToken struct {
	subtitles.TimedToken
	CasedText   string    `json:"cased_text"`
	Punctuation string    `json:"punctuation"`
	Case        CaseType  `json:"case_type"`
	Punct       PunctType `json:"punct_type"`
}

func annotate(token subtitles.TimedToken, c CaseType, p PunctType) AnnotatedToken {
	return AnnotatedToken{
		TimedToken:  token,
		CasedText:   c.Apply(token.Text),
		Punctuation: p.Mark(),
		Case:        c,
		Punct:       p,
	}
}

// Rendered returns the cased text followed by its punctuation.
func (a AnnotatedToken) Rendered() string {
	return a.CasedText + a.Punctuation
}

// Render joins annotated tokens into punctuated text.
func Render(tokens []AnnotatedToken) string {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = token.Rendered()
	}
	return strings.Join(parts, " ")
}

var preservedTags = map[string]bool{"[Music]": true, "[Applause]": true}

// ToTimedTokens replaces each token's text with its restored form. Sound tags
// keep their original text.
func ToTimedTokens(tokens []AnnotatedToken) []subtitles.TimedToken {
	out := make([]subtitles.TimedToken, len(tokens))
	for i, token := range tokens {
		out[i] = token.TimedToken
		if !preservedTags[token.Text] {
			out[i].Text = token.Rendered()
		}
	}
	return out
}

func argmax(logits []float32) int {
	best := 0
	for i := 1; i < len(logits); i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return best
}

package subtitles

// Cue is one display and translation unit. An empty Translated means the cue
// has not been translated yet.
type Cue struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Translated string  `json:"translated,omitempty"`
}

// activeCueLead shifts the active window slightly earlier so a cue appears
// just before its audio.
const activeCueLead = 0.1

// CuesFromTokens converts tokens one-to-one into untranslated cues.
func CuesFromTokens(tokens []TimedToken) []Cue {
	cues := make([]Cue, 0, len(tokens))
	for _, token := range tokens {
		cues = append(cues, Cue{Start: token.Start, End: token.End, Text: token.Text})
	}
	return cues
}

// ActiveCue returns the index of the cue displayed at time t, or -1.
func ActiveCue(cues []Cue, t float64) int {
	for i, cue := range cues {
		if t >= cue.Start-activeCueLead && t <= cue.End-activeCueLead {
			return i
		}
	}
	return -1
}

// Texts returns the source text of every cue in order.
func Texts(cues []Cue) []string {
	texts := make([]string, len(cues))
	for i, cue := range cues {
		texts[i] = cue.Text
	}
	return texts
}

func mergeTokens(tokens []TimedToken, separator string) Cue {
	text := tokens[0].Text
	for _, token := range tokens[1:] {
		text += separator + token.Text
	}
	return Cue{Start: tokens[0].Start, End: tokens[len(tokens)-1].End, Text: text}
}

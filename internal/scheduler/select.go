package scheduler

import "bilingualtube/internal/subtitles"

// DefaultHorizon is the look-ahead window in seconds.
const DefaultHorizon = 60.0

// DefaultMaxCues bounds SelectNext.
const DefaultMaxCues = 10

// SelectWindow returns indices of untranslated cues with end >= t and
// start <= t+horizon.
func SelectWindow(cues []subtitles.Cue, t, horizon float64) []int {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	var out []int
	for i, cue := range cues {
		if cue.Translated != "" {
			continue
		}
		if cue.End >= t && cue.Start <= t+horizon {
			out = append(out, i)
		}
	}
	return out
}

// SelectNext returns indices of the next n untranslated cues with end >= t.
func SelectNext(cues []subtitles.Cue, t float64, n int) []int {
	if n <= 0 {
		n = DefaultMaxCues
	}
	var out []int
	for i, cue := range cues {
		if len(out) == n {
			break
		}
		if cue.Translated != "" || cue.End < t {
			continue
		}
		out = append(out, i)
	}
	return out
}

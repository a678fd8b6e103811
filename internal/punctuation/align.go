package punctuation

import (
	"strings"
	"unicode"
)

// AlignWords attributes sub-word positions to words. For each word it returns
// the word-start positions consumed while decoding enough pieces to spell the
// word, or nil when none were. The walk starts after <s> and stops at </s>.
func AlignWords(ids []int, valid []bool, words []string, tok *Tokenizer) [][]int {
	aligned := make([][]int, len(words))
	if tok == nil {
		return aligned
	}
	pos := 0
	if len(ids) > 0 && ids[0] == tok.start {
		pos = 1
	}
	for w := 0; w < len(words) && pos < len(ids); w++ {
		if ids[pos] == tok.end {
			break
		}
		target := squash(words[w])
		var accumulated strings.Builder
		for pos < len(ids) {
			if ids[pos] == tok.end {
				break
			}
			accumulated.WriteString(tok.Decode(ids[pos : pos+1]))
			if pos < len(valid) && valid[pos] {
				aligned[w] = append(aligned[w], pos)
			}
			pos++
			if squash(accumulated.String()) == target {
				break
			}
		}
	}
	return aligned
}

// squash lower-cases s and strips whitespace and word markers.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '▁' {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

package punctuation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"bilingualtube/internal/services"
)

// Reserved vocabulary pieces.
const (
	PieceStart   = "<s>"
	PieceEnd     = "</s>"
	PieceUnknown = "<unk>"
	wordMarker   = "▁"
)

// Encoding is the model view of a text: vocabulary ids plus the positions
// that begin a word. The start and end markers count as word positions.
type Encoding struct {
	IDs        []int
	Boundaries []int
}

// Tokenizer maps words to sub-word vocabulary ids.
type Tokenizer struct {
	vocab  map[string]int
	pieces []string
	start  int
	end    int
	unk    int
}

// LoadTokenizer reads a vocabulary file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrModelNotLoaded, "punctuation", "load vocab", path, err)
	}
	return NewTokenizer(bytes.NewReader(data))
}

// NewTokenizer parses "piece<TAB>score" lines. A piece's id is its line index.
func NewTokenizer(r io.Reader) (*Tokenizer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, services.Wrap(services.ErrModelNotLoaded, "punctuation", "read vocab", "", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	tok := &Tokenizer{
		vocab:  make(map[string]int, len(lines)),
		pieces: make([]string, len(lines)),
	}
	for i, line := range lines {
		piece, _, _ := strings.Cut(strings.TrimRight(line, "\r"), "\t")
		tok.pieces[i] = piece
		if _, exists := tok.vocab[piece]; !exists {
			tok.vocab[piece] = i
		}
	}
	for _, reserved := range []string{PieceStart, PieceEnd, PieceUnknown} {
		if _, ok := tok.vocab[reserved]; !ok {
			return nil, services.Wrap(services.ErrModelNotLoaded, "punctuation", "parse vocab", fmt.Sprintf("missing %s piece", reserved), nil)
		}
	}
	tok.start = tok.vocab[PieceStart]
	tok.end = tok.vocab[PieceEnd]
	tok.unk = tok.vocab[PieceUnknown]
	return tok, nil
}

// Size returns the number of vocabulary pieces.
func (t *Tokenizer) Size() int {
	return len(t.pieces)
}

// Encode lower-cases text, splits it on whitespace and encodes each word as a
// whole piece when the vocabulary has one, otherwise character by character.
func (t *Tokenizer) Encode(text string) Encoding {
	enc := Encoding{IDs: []int{t.start}, Boundaries: []int{0}}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if id, ok := t.vocab[wordMarker+word]; ok {
			enc.Boundaries = append(enc.Boundaries, len(enc.IDs))
			enc.IDs = append(enc.IDs, id)
			continue
		}
		first := true
		for _, r := range word {
			char := string(r)
			piece := char
			if first {
				piece = wordMarker + char
			}
			id, ok := t.vocab[piece]
			if !ok {
				if id, ok = t.vocab[char]; !ok {
					id = t.unk
				}
			}
			if first {
				enc.Boundaries = append(enc.Boundaries, len(enc.IDs))
				first = false
			}
			enc.IDs = append(enc.IDs, id)
		}
	}
	enc.Boundaries = append(enc.Boundaries, len(enc.IDs))
	enc.IDs = append(enc.IDs, t.end)
	return enc
}

// Decode joins pieces, turning word markers into spaces.
func (t *Tokenizer) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if id >= 0 && id < len(t.pieces) {
			b.WriteString(t.pieces[id])
		} else {
			b.WriteString(PieceUnknown)
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), wordMarker, " "))
}

// PieceToID returns the id of piece, or 0 when the vocabulary lacks it.
func (t *Tokenizer) PieceToID(piece string) int {
	return t.vocab[piece]
}

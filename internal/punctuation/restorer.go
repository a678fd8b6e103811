package punctuation

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"bilingualtube/internal/logging"
	"bilingualtube/internal/services"
	"bilingualtube/internal/subtitles"
)

// Restorer runs windowed punctuation restoration over timed tokens.
type Restorer struct {
	tok     *Tokenizer
	model   Model
	window  int
	overlap int
	logger  *slog.Logger
}

// Option configures a Restorer.
type Option func(*Restorer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Restorer) {
		r.logger = logger
	}
}

// WithWindow applies SetWindow at construction.
func WithWindow(window, overlap int) Option {
	return func(r *Restorer) {
		r.SetWindow(window, overlap)
	}
}

// NewRestorer builds a restorer over a loaded tokenizer and model.
func NewRestorer(tok *Tokenizer, model Model, opts ...Option) *Restorer {
	r := &Restorer{
		tok:     tok,
		model:   model,
		window:  DefaultWindowTokens,
		overlap: DefaultOverlapTokens,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "punctuation")
	return r
}

// SetWindow sets the per-window token budget and the token overlap between
// windows. The budget is capped at DefaultWindowTokens and the overlap at a
// third of the budget.
func (r *Restorer) SetWindow(window, overlap int) {
	switch {
	case window > DefaultWindowTokens:
		if r.logger != nil {
			r.logger.Warn("window too large, capping",
				logging.Int("requested", window),
				logging.Int("window", DefaultWindowTokens),
			)
		}
		window = DefaultWindowTokens
	case window <= 0:
		window = DefaultWindowTokens
	}
	r.window = window
	r.overlap = max(0, min(overlap, window/3))
}

// Window reports the effective window budget and overlap.
func (r *Restorer) Window() (window, overlap int) {
	return r.window, r.overlap
}

func (r *Restorer) ready() error {
	if r == nil || r.tok == nil || r.model == nil {
		return services.Wrap(services.ErrModelNotLoaded, "punctuation", "restore", "tokenizer and model must be loaded first", nil)
	}
	return nil
}

// Annotate restores the whole token sequence in one call.
func (r *Restorer) Annotate(ctx context.Context, tokens []subtitles.TimedToken) ([]AnnotatedToken, error) {
	result := []AnnotatedToken{}
	for snapshot, err := range r.Stream(ctx, tokens) {
		if err != nil {
			return nil, err
		}
		result = snapshot
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Stream yields progressively longer annotations of tokens, one snapshot per
// window. Earlier positions never change between snapshots. The final
// snapshot has exactly one entry per input token.
//
// The sequence can be ranged over once. It ends without an error when ctx is
// cancelled; a model failure is yielded as the last element.
func (r *Restorer) Stream(ctx context.Context, tokens []subtitles.TimedToken) iter.Seq2[[]AnnotatedToken, error] {
	var consumed atomic.Bool
	return func(yield func([]AnnotatedToken, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, services.Wrap(services.ErrValidation, "punctuation", "stream", "stream already consumed", nil))
			return
		}
		if err := r.ready(); err != nil {
			yield(nil, err)
			return
		}
		if len(tokens) == 0 || ctx.Err() != nil {
			return
		}

		total := len(r.tok.Encode(joinTexts(tokens)).IDs)
		if total <= r.window {
			result, err := r.processWindow(ctx, tokens)
			if err != nil {
				if ctx.Err() == nil {
					yield(nil, err)
				}
				return
			}
			yield(result, nil)
			return
		}

		half := r.overlap / 2
		results := make([]AnnotatedToken, 0, len(tokens))
		windows := 0
		for start := 0; start < len(tokens); {
			if ctx.Err() != nil {
				return
			}
			end := r.windowEnd(tokens, start)
			windowResults, err := r.processWindow(ctx, tokens[start:end])
			if err != nil {
				if ctx.Err() == nil {
					yield(nil, err)
				}
				return
			}
			windows++

			next := end - 2*half
			overlapping := end < len(tokens) && next > start
			keepTo := end
			if overlapping {
				keepTo = end - half
			}
			if lo, hi := len(results)-start, keepTo-start; hi > lo {
				results = append(results, windowResults[lo:hi]...)
			}

			r.logger.Debug("restored window",
				logging.Int("window", windows),
				logging.Int("word_start", start),
				logging.Int("word_end", end),
				logging.Int("restored", len(results)),
			)

			if overlapping {
				start = next
			} else {
				start = end
			}
			if !yield(slices.Clone(results), nil) {
				return
			}
		}
	}
}

// windowEnd grows a window from start word by word while the encoding stays
// within budget. A window always holds at least one word.
func (r *Restorer) windowEnd(tokens []subtitles.TimedToken, start int) int {
	count := 2
	end := start
	for end < len(tokens) {
		pieces := len(r.tok.Encode(tokens[end].Text).IDs) - 2
		if count+pieces > r.window {
			break
		}
		count += pieces
		end++
	}
	if end == start {
		end = start + 1
	}
	return end
}

func (r *Restorer) processWindow(ctx context.Context, tokens []subtitles.TimedToken) ([]AnnotatedToken, error) {
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Text
	}
	enc := r.tok.Encode(strings.Join(words, " "))

	valid := make([]bool, MaxSequenceLength)
	for _, b := range enc.Boundaries {
		if b < MaxSequenceLength {
			valid[b] = true
		}
	}
	ids := enc.IDs
	if len(ids) > MaxSequenceLength {
		r.logger.Warn("window truncated",
			logging.Int("tokens", len(ids)),
			logging.Int("max", MaxSequenceLength),
		)
		ids = ids[:MaxSequenceLength]
	}

	in := Input{
		InputIDs: make([]int32, MaxSequenceLength),
		ValidIDs: make([]int32, MaxSequenceLength),
	}
	for i, id := range ids {
		in.InputIDs[i] = int32(id)
	}
	for i, v := range valid {
		if v {
			in.ValidIDs[i] = 1
			in.LabelLen++
		}
	}

	out, err := r.model.Run(ctx, in)
	if err != nil {
		return nil, services.Wrap(services.ErrRestoration, "punctuation", "run model", "", err)
	}
	if len(out.CaseLogits)%caseClasses != 0 || len(out.PunctLogits)%punctClasses != 0 {
		return nil, services.Wrap(services.ErrRestoration, "punctuation", "run model",
			fmt.Sprintf("logits not a multiple of %d classes", caseClasses), nil)
	}
	casePred := predictions(out.CaseLogits, caseClasses)
	punctPred := predictions(out.PunctLogits, punctClasses)

	// Predictions are indexed by word start, excluding <s>.
	rank := make([]int, len(valid))
	seen := 0
	for i := 1; i < len(valid); i++ {
		rank[i] = seen
		if valid[i] {
			seen++
		}
	}
	aligned := AlignWords(ids, valid, words, r.tok)

	results := make([]AnnotatedToken, len(tokens))
	for i, token := range tokens {
		idx := i
		if len(aligned[i]) > 0 {
			idx = rank[aligned[i][0]]
		}
		c, p := CaseLower, PunctNone
		if idx < len(casePred) {
			c = CaseType(casePred[idx])
		}
		if idx < len(punctPred) {
			p = PunctType(punctPred[idx])
		}
		results[i] = annotate(token, c, p)
	}
	return results, nil
}

func predictions(logits []float32, classes int) []int {
	out := make([]int, len(logits)/classes)
	for i := range out {
		out[i] = argmax(logits[i*classes : (i+1)*classes])
	}
	return out
}

func joinTexts(tokens []subtitles.TimedToken) string {
	var b strings.Builder
	for i, token := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(token.Text)
	}
	return b.String()
}

package punctuation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bilingualtube/internal/punctuation"
	"bilingualtube/internal/services"
	"bilingualtube/internal/subtitles"
)

// echoModel predicts CAP for "hello", PERIOD after "world" and QUESTION
// after "you", one prediction per word start excluding the markers.
type echoModel struct {
	calls  int
	inputs []punctuation.Input
}

func (m *echoModel) Run(_ context.Context, in punctuation.Input) (punctuation.Output, error) {
	m.calls++
	m.inputs = append(m.inputs, in)
	var out punctuation.Output
	for i := 1; i < len(in.InputIDs); i++ {
		if in.ValidIDs[i] != 1 || in.InputIDs[i] == idEnd {
			continue
		}
		caseLogits := []float32{1, 0, 0, 0}
		punctLogits := []float32{1, 0, 0, 0}
		switch in.InputIDs[i] {
		case idHello:
			caseLogits = []float32{0, 0, 2, 0}
		case idWorld:
			punctLogits = []float32{0, 0, 3, 0}
		case 9: // ▁you
			punctLogits = []float32{0, 0, 0, 1}
		}
		out.CaseLogits = append(out.CaseLogits, caseLogits...)
		out.PunctLogits = append(out.PunctLogits, punctLogits...)
	}
	return out, nil
}

func timed(words ...string) []subtitles.TimedToken {
	tokens := make([]subtitles.TimedToken, len(words))
	for i, word := range words {
		tokens[i] = subtitles.TimedToken{Start: float64(i) * 0.5, End: float64(i)*0.5 + 0.5, Text: word}
	}
	return tokens
}

func alternating(n int) []subtitles.TimedToken {
	words := make([]string, n)
	for i := range words {
		if i%2 == 0 {
			words[i] = "hello"
		} else {
			words[i] = "world"
		}
	}
	return timed(words...)
}

func assertAlternating(t *testing.T, got []punctuation.AnnotatedToken, n int) {
	t.Helper()
	if len(got) != n {
		t.Fatalf("expected %d annotated tokens, got %d", n, len(got))
	}
	for i, token := range got {
		want := "Hello"
		if i%2 == 1 {
			want = "world."
		}
		if token.Rendered() != want {
			t.Fatalf("token %d rendered %q, want %q", i, token.Rendered(), want)
		}
		if token.Start != float64(i)*0.5 {
			t.Fatalf("token %d lost its timing: %+v", i, token.TimedToken)
		}
	}
}

func TestAnnotateSingleWindow(t *testing.T) {
	model := &echoModel{}
	r := punctuation.NewRestorer(newTestTokenizer(t), model)
	got, err := r.Annotate(context.Background(), timed("hello", "world", "how", "are", "you"))
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if rendered := punctuation.Render(got); rendered != "Hello world. how are you?" {
		t.Fatalf("Render = %q", rendered)
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}
	in := model.inputs[0]
	if len(in.InputIDs) != punctuation.MaxSequenceLength || len(in.ValidIDs) != punctuation.MaxSequenceLength {
		t.Fatalf("inputs not padded: %d/%d", len(in.InputIDs), len(in.ValidIDs))
	}
	if in.LabelLen != 7 {
		t.Fatalf("LabelLen = %d, want 7", in.LabelLen)
	}
	if got[1].Punct != punctuation.PunctPeriod || got[0].Case != punctuation.CaseCap || got[2].Case != punctuation.CaseLower {
		t.Fatalf("unexpected classes %+v", got)
	}
}

func TestStreamKeepsEveryWordAcrossWindows(t *testing.T) {
	model := &echoModel{}
	r := punctuation.NewRestorer(newTestTokenizer(t), model)
	tokens := alternating(400)

	var snapshots [][]punctuation.AnnotatedToken
	for snapshot, err := range r.Stream(context.Background(), tokens) {
		if err != nil {
			t.Fatalf("Stream: %v", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if len(snapshots) < 2 {
		t.Fatalf("expected several windows, got %d", len(snapshots))
	}
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		if len(cur) <= len(prev) {
			t.Fatalf("snapshot %d did not grow: %d -> %d", i, len(prev), len(cur))
		}
		for j := range prev {
			if prev[j] != cur[j] {
				t.Fatalf("snapshot %d changed position %d", i, j)
			}
		}
	}
	assertAlternating(t, snapshots[len(snapshots)-1], len(tokens))
}

func TestStreamShortWindows(t *testing.T) {
	cases := []struct {
		window, overlap int
		words           []string
	}{
		{6, 6, strings.Fields(strings.Repeat("hello world ", 5))},
		{4, 3, strings.Fields(strings.Repeat("hello world ", 7))},
		{12, 4, strings.Fields("abcde fghij klmno pqrst uvwxy zabcd efghi")},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("window=%d overlap=%d", tc.window, tc.overlap), func(t *testing.T) {
			r := punctuation.NewRestorer(newTestTokenizer(t), &echoModel{}, punctuation.WithWindow(tc.window, tc.overlap))
			got, err := r.Annotate(context.Background(), timed(tc.words...))
			if err != nil {
				t.Fatalf("Annotate: %v", err)
			}
			if len(got) != len(tc.words) {
				t.Fatalf("expected %d tokens, got %d", len(tc.words), len(got))
			}
			for i, token := range got {
				if token.Text != tc.words[i] {
					t.Fatalf("token %d = %q, want %q", i, token.Text, tc.words[i])
				}
			}
		})
	}
}

func TestSetWindowClamps(t *testing.T) {
	r := punctuation.NewRestorer(newTestTokenizer(t), &echoModel{})
	r.SetWindow(500, 100)
	if window, overlap := r.Window(); window != punctuation.DefaultWindowTokens || overlap != 60 {
		t.Fatalf("Window() = %d, %d", window, overlap)
	}
	r.SetWindow(30, 20)
	if window, overlap := r.Window(); window != 30 || overlap != 10 {
		t.Fatalf("Window() = %d, %d", window, overlap)
	}
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	model := &echoModel{}
	r := punctuation.NewRestorer(newTestTokenizer(t), model, punctuation.WithWindow(20, 6))

	snapshots := 0
	for _, err := range r.Stream(ctx, alternating(200)) {
		if err != nil {
			t.Fatalf("cancellation must not surface an error, got %v", err)
		}
		snapshots++
		cancel()
	}
	if snapshots != 1 {
		t.Fatalf("expected stream to stop after cancel, got %d snapshots", snapshots)
	}
	if model.calls != 1 {
		t.Fatalf("expected no model calls after cancel, got %d", model.calls)
	}
	if _, err := r.Annotate(ctx, alternating(10)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Annotate on cancelled context = %v", err)
	}
}

func TestStreamIsSingleUse(t *testing.T) {
	r := punctuation.NewRestorer(newTestTokenizer(t), &echoModel{})
	stream := r.Stream(context.Background(), timed("hello"))
	for _, err := range stream {
		if err != nil {
			t.Fatalf("first pass: %v", err)
		}
	}
	for _, err := range stream {
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("second pass error = %v", err)
		}
	}
}

func TestStreamReportsModelFailure(t *testing.T) {
	boom := errors.New("runtime crashed")
	model := punctuation.ModelFunc(func(context.Context, punctuation.Input) (punctuation.Output, error) {
		return punctuation.Output{}, boom
	})
	r := punctuation.NewRestorer(newTestTokenizer(t), model)
	_, err := r.Annotate(context.Background(), timed("hello", "world"))
	if !errors.Is(err, services.ErrRestoration) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped restoration error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("restoration failures are recoverable")
	}
}

func TestAnnotateRequiresModel(t *testing.T) {
	r := punctuation.NewRestorer(nil, nil)
	if _, err := r.Annotate(context.Background(), timed("hello")); !errors.Is(err, services.ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestMissingPredictionsDefaultToLower(t *testing.T) {
	model := punctuation.ModelFunc(func(context.Context, punctuation.Input) (punctuation.Output, error) {
		return punctuation.Output{CaseLogits: []float32{0, 1, 1, 0}, PunctLogits: []float32{0, 2, 2, 0}}, nil
	})
	r := punctuation.NewRestorer(newTestTokenizer(t), model)
	got, err := r.Annotate(context.Background(), timed("HeLLo", "World"))
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if got[0].Rendered() != "HELLO," {
		t.Fatalf("tie should favour the lower class, got %q", got[0].Rendered())
	}
	if got[1].Rendered() != "world" || got[1].Case != punctuation.CaseLower || got[1].Punct != punctuation.PunctNone {
		t.Fatalf("missing prediction should default to LOWER/NONE, got %+v", got[1])
	}
}

func TestCaseApplyAndTags(t *testing.T) {
	cases := map[punctuation.CaseType][2]string{
		punctuation.CaseLower: {"HeLLo", "hello"},
		punctuation.CaseUpper: {"hello", "HELLO"},
		punctuation.CaseCap:   {"hELLO", "Hello"},
		punctuation.CaseMix:   {"iPhone", "iPhone"},
	}
	for c, io := range cases {
		if got := c.Apply(io[0]); got != io[1] {
			t.Fatalf("%s.Apply(%q) = %q, want %q", c, io[0], got, io[1])
		}
	}
	if punctuation.PunctQuestion.String() != "QUESTION" || punctuation.CaseMix.String() != "MIX" {
		t.Fatal("unexpected class names")
	}

	annotated := []punctuation.AnnotatedToken{
		{TimedToken: subtitles.TimedToken{Text: "[Music]"}, CasedText: "[music]", Punctuation: "."},
		{TimedToken: subtitles.TimedToken{Text: "hi"}, CasedText: "Hi", Punctuation: "."},
	}
	out := punctuation.ToTimedTokens(annotated)
	if out[0].Text != "[Music]" || out[1].Text != "Hi." {
		t.Fatalf("unexpected timed tokens %+v", out)
	}
}

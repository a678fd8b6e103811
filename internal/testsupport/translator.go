package testsupport

import (
	"context"
	"strings"
	"sync"
)

// FakeTranslator is an in-memory translation backend that records calls.
// Unless Func is set, it prefixes each text with the target language.
type FakeTranslator struct {
	Name string
	Func func(ctx context.Context, texts []string, lang string) ([]string, error)

	mu    sync.Mutex
	calls [][]string
}

// Engine reports the engine name used in cache keys.
func (f *FakeTranslator) Engine() string {
	if f.Name == "" {
		return "fake"
	}
	return f.Name
}

// Translate records the batch and returns its translation.
func (f *FakeTranslator) Translate(ctx context.Context, texts []string, lang string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.Func != nil {
		return f.Func(ctx, texts, lang)
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "[" + lang + "] " + strings.TrimSpace(text)
	}
	return out, nil
}

// Calls returns a copy of every batch received so far.
func (f *FakeTranslator) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	for i, call := range f.calls {
		out[i] = append([]string(nil), call...)
	}
	return out
}

// CallCount returns the number of backend invocations.
func (f *FakeTranslator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

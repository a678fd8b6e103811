package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"bilingualtube/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a unique temp directory per test.
// The cache defaults to the in-memory backend so tests never touch the
// user's cache directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Translation.TargetLanguage = "zh-Hans"
	cfgVal.Cache.Backend = config.CacheBackendMemory
	cfgVal.Cache.Dir = filepath.Join(base, "cache")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTargetLanguage overrides the translation target language.
func WithTargetLanguage(lang string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.TargetLanguage = lang
	}
}

// WithCacheBackend selects a cache backend rooted under the test directory.
func WithCacheBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Backend = backend
	}
}

// WithMode sets the scheduler selection mode.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.Mode = mode
	}
}

// WithASRStrategy sets the strategy for punctuated ASR tracks.
func WithASRStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Segmentation.ASRStrategy = strategy
	}
}

// WithPunctuationAssets enables restoration with placeholder asset files and
// a stub runtime binary on PATH.
func WithPunctuationAssets() ConfigOption {
	return func(b *configBuilder) {
		assets := filepath.Join(b.baseDir, "assets")
		if err := os.MkdirAll(assets, 0o755); err != nil {
			b.t.Fatalf("mkdir assets: %v", err)
		}
		model := filepath.Join(assets, "model.onnx")
		vocab := filepath.Join(assets, "vocab.txt")
		WriteFile(b.t, model, []byte("model"))
		WriteFile(b.t, vocab, []byte("<unk>\t0\n<s>\t0\n</s>\t0\n"))
		b.cfg.Punctuation.Enabled = true
		b.cfg.Punctuation.Model = model
		b.cfg.Punctuation.Vocab = vocab
		b.cfg.Punctuation.Runtime = stubBinary(b, "punct-runtime")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			stubBinary(b, name)
		}
	}
}

func stubBinary(b *configBuilder, name string) string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Cache.Dir)
}

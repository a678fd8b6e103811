package main

import (
	"encoding/json"
	"testing"

	"bilingualtube/internal/testsupport"
	"bilingualtube/internal/transcache"
)

func TestTranslateCommandUsesCache(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"translate", "Hello", "World"}, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "[zh-Hans] Hello")
	requireContains(t, out, "[zh-Hans] World")

	if _, _, err := runCLI(t, []string{"translate", "Hello"}, env.configPath); err != nil {
		t.Fatalf("translate again: %v", err)
	}
	if got := env.translator.CallCount(); got != 1 {
		t.Fatalf("translator calls = %d, want 1", got)
	}

	out, _, err = runCLI(t, []string{"translate", "--lang", "ja", "Hello", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("translate ja: %v", err)
	}
	var results []translatedText
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Translation != "[ja] Hello" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"translate", "Hello", "World"}, env.configPath); err != nil {
		t.Fatalf("translate: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	var stats transcache.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Backend != "sqlite" || stats.Entries != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(stats.Groups) != 1 || stats.Groups[0].Engine != "fake" || stats.Groups[0].Count != 2 {
		t.Fatalf("unexpected groups: %+v", stats.Groups)
	}

	out, _, err = runCLI(t, []string{"cache", "get", "Hello"}, env.configPath)
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	requireContains(t, out, "[zh-Hans] Hello")

	if _, _, err := runCLI(t, []string{"cache", "get", "Missing"}, env.configPath); err == nil {
		t.Fatal("expected miss error")
	}

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared sqlite translation cache")

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats after clear: %v", err)
	}
	requireContains(t, out, "Entries: 0")
}

func TestPunctuateCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"punctuate", "--check", testsupport.WriteFixture(t, testsupport.FixtureUnpunctuated)}, env.configPath)
	if err != nil {
		t.Fatalf("punctuate: %v", err)
	}
	requireContains(t, out, "Missing punctuation: yes")

	out, _, err = runCLI(t, []string{"punctuate", testsupport.WriteFixture(t, testsupport.FixtureMLP)}, env.configPath)
	if err != nil {
		t.Fatalf("punctuate punctuated: %v", err)
	}
	requireContains(t, out, "Missing punctuation: no")
}

func TestPunctuateRequiresModel(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"punctuate", testsupport.WriteFixture(t, testsupport.FixtureUnpunctuated)}, env.configPath)
	if err == nil {
		t.Fatal("expected error without punctuation assets")
	}
}

func TestDepsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "Punctuation runtime")
	requireContains(t, out, "(optional)")

	env = setupCLITestEnv(t, testsupport.WithPunctuationAssets())
	out, _, err = runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps with assets: %v", err)
	}
	requireContains(t, out, "ok")
}

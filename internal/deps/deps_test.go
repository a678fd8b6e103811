package deps

import (
	"os"
	"path/filepath"
	"testing"

	"bilingualtube/internal/config"
	"bilingualtube/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "not configured" {
		t.Fatalf("unexpected unset status %#v", results[2])
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	file := testsupport.WriteFile(t, filepath.Join(dir, "vocab.txt"), []byte("x"))
	results := CheckBinaries([]Requirement{
		{Name: "file", Kind: KindFile, Command: file},
		{Name: "dir", Kind: KindFile, Command: dir},
		{Name: "missing", Kind: KindFile, Command: filepath.Join(dir, "nope")},
	})
	if !results[0].Available || results[1].Available || results[2].Available {
		t.Fatalf("unexpected file statuses %#v", results)
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPunctuationAssets())
	statuses := Check(cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("expected all assets present, missing %#v", missing)
	}

	disabled := config.Default()
	statuses = Check(&disabled)
	for _, status := range statuses {
		if !status.Optional {
			t.Fatalf("assets should be optional when restoration is disabled: %#v", status)
		}
	}
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("optional assets must not count as missing: %#v", missing)
	}
}

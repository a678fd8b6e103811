package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bilingualtube/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "punctuation", "run model", "runner exited", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"punctuation", "run model", "runner exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("stream: %w", context.Canceled), false},
		{"restoration", services.Wrap(services.ErrRestoration, "punctuation", "annotate", "", errors.New("exit 1")), false},
		{"malformed", services.Wrap(services.ErrMalformedResponse, "ingest", "parse", "missing events", nil), true},
		{"cardinality", services.Wrap(services.ErrCardinality, "translate", "", "3 != 2", nil), true},
		{"model", services.ErrModelNotLoaded, true},
	}
	for _, tt := range tests {
		if got := services.IsFatal(tt.err); got != tt.want {
			t.Errorf("%s: IsFatal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.TrackIDFromContext(ctx); ok {
		t.Fatal("expected no track id on empty context")
	}
	ctx = services.WithTrackID(ctx, "track-1")
	ctx = services.WithLanguage(ctx, "en")
	ctx = services.WithRequestID(ctx, "req-9")
	ctx = services.WithLanguage(ctx, "")

	if id, ok := services.TrackIDFromContext(ctx); !ok || id != "track-1" {
		t.Fatalf("unexpected track id %q", id)
	}
	if lang, ok := services.LanguageFromContext(ctx); !ok || lang != "en" {
		t.Fatalf("unexpected language %q", lang)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-9" {
		t.Fatalf("unexpected request id %q", rid)
	}
}

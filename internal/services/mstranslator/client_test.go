package mstranslator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilingualtube/internal/config"
	"bilingualtube/internal/services"
)

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims, err := json.Marshal(map[string]any{"exp": exp.Unix(), "region": "global"})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(claims) + ".signature"
}

type fakeServer struct {
	authCalls      int
	translateCalls int
	token          string
	reply          func(w http.ResponseWriter, items []translateItem)
}

func newFakeServer(t *testing.T, fake *fakeServer) (*httptest.Server, config.Microsoft) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			fake.authCalls++
			if r.Method != http.MethodGet {
				t.Fatalf("unexpected auth method %s", r.Method)
			}
			if got := r.Header.Get("User-Agent"); got != "test-agent" {
				t.Fatalf("unexpected user agent %q", got)
			}
			_, _ = w.Write([]byte(fake.token))
		case "/translate":
			fake.translateCalls++
			if got := r.Header.Get("Authorization"); got != "Bearer "+fake.token {
				t.Fatalf("unexpected authorization %q", got)
			}
			if got := r.URL.Query().Get("api-version"); got != "3.0" {
				t.Fatalf("unexpected api-version %q", got)
			}
			var items []translateItem
			if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
				t.Fatalf("decode items: %v", err)
			}
			fake.reply(w, items)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)
	return server, config.Microsoft{
		AuthURL:   server.URL + "/auth",
		Endpoint:  server.URL + "/translate",
		UserAgent: "test-agent",
	}
}

func echoReply(lang string) func(w http.ResponseWriter, items []translateItem) {
	return func(w http.ResponseWriter, items []translateItem) {
		out := make([]map[string]any, len(items))
		for i, item := range items {
			out[i] = map[string]any{
				"translations": []any{map[string]any{"text": fmt.Sprintf("%s:%s", lang, item.Text), "to": lang}},
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func TestTranslatePostsBatchAndCachesToken(t *testing.T) {
	fake := &fakeServer{reply: echoReply("fr")}
	fake.token = makeToken(t, time.Now().Add(10*time.Minute))
	_, cfg := newFakeServer(t, fake)

	client := New(cfg)
	for range 2 {
		got, err := client.Translate(context.Background(), []string{"hello", "world"}, "fr")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if len(got) != 2 || got[0] != "fr:hello" || got[1] != "fr:world" {
			t.Fatalf("unexpected translations %q", got)
		}
	}
	if fake.authCalls != 1 {
		t.Fatalf("expected token to be fetched once, got %d", fake.authCalls)
	}
	if fake.translateCalls != 2 {
		t.Fatalf("expected 2 translate calls, got %d", fake.translateCalls)
	}
}

func TestTokenRefreshesWithinLeeway(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := &fakeServer{reply: echoReply("de")}
	fake.token = makeToken(t, now.Add(2*time.Minute))
	_, cfg := newFakeServer(t, fake)

	client := New(cfg, WithClock(func() time.Time { return now }))
	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if fake.authCalls != 1 {
		t.Fatalf("expected cached token, got %d auth calls", fake.authCalls)
	}

	now = now.Add(90 * time.Second)
	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if fake.authCalls != 2 {
		t.Fatalf("expected refresh inside leeway, got %d auth calls", fake.authCalls)
	}
}

func TestTranslateCardinalityMismatch(t *testing.T) {
	fake := &fakeServer{reply: func(w http.ResponseWriter, items []translateItem) {
		_, _ = w.Write([]byte(`[{"translations":[{"text":"one"}]}]`))
	}}
	fake.token = makeToken(t, time.Now().Add(time.Hour))
	_, cfg := newFakeServer(t, fake)

	_, err := New(cfg).Translate(context.Background(), []string{"a", "b"}, "fr")
	if !errors.Is(err, services.ErrCardinality) {
		t.Fatalf("expected cardinality error, got %v", err)
	}
}

func TestTranslateRejectsBadToken(t *testing.T) {
	fake := &fakeServer{token: "not-a-jwt", reply: echoReply("fr")}
	_, cfg := newFakeServer(t, fake)

	_, err := New(cfg).Translate(context.Background(), []string{"a"}, "fr")
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
	if fake.translateCalls != 0 {
		t.Fatalf("translate should not be called without a token")
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	got, err := New(config.Microsoft{}).Translate(context.Background(), nil, "fr")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %q, %v", got, err)
	}
}

func TestTranslateServerError(t *testing.T) {
	fake := &fakeServer{reply: func(w http.ResponseWriter, items []translateItem) {
		w.WriteHeader(http.StatusTooManyRequests)
	}}
	fake.token = makeToken(t, time.Now().Add(time.Hour))
	_, cfg := newFakeServer(t, fake)

	_, err := New(cfg).Translate(context.Background(), []string{"a"}, "fr")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

package transcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilingualtube/internal/logging"
	"bilingualtube/internal/services"
)

// Translator is the backend contract the cache fronts.
type Translator interface {
	Engine() string
	Translate(ctx context.Context, texts []string, lang string) ([]string, error)
}

// Entry is one cached translation.
type Entry struct {
	Engine     string    `json:"engine"`
	Lang       string    `json:"target_lang"`
	Source     string    `json:"source"`
	Translated string    `json:"translated"`
	CachedAt   time.Time `json:"cached_at"`
}

// Key returns the cache key for the entry.
func (e Entry) Key() string {
	return Key(e.Engine, e.Lang, e.Source)
}

// Key builds the engine|lang|text cache key.
func Key(engine, lang, text string) string {
	return engine + "|" + lang + "|" + text
}

// GroupCount counts entries for one engine and language pair.
type GroupCount struct {
	Engine string `json:"engine"`
	Lang   string `json:"target_lang"`
	Count  int    `json:"count"`
}

// Stats summarizes backend contents.
type Stats struct {
	Backend string       `json:"backend"`
	Path    string       `json:"path,omitempty"`
	Entries int          `json:"entries"`
	Groups  []GroupCount `json:"groups"`
}

// Backend persists cache entries.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, keys []string) (map[string]string, error)
	Store(ctx context.Context, entries []Entry) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Cache fronts a Translator with a persistent Backend.
type Cache struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// New wraps backend. A nil logger discards logs.
func New(backend Backend, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "transcache"),
		now:     time.Now,
	}
}

// Backend exposes the underlying storage.
func (c *Cache) Backend() Backend {
	return c.backend
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

// Lookup returns a single cached translation.
func (c *Cache) Lookup(ctx context.Context, engine, lang, text string) (string, bool, error) {
	key := Key(engine, lang, text)
	found, err := c.backend.Lookup(ctx, []string{key})
	if err != nil {
		return "", false, err
	}
	value, ok := found[key]
	return value, ok, nil
}

// Translate returns translations for texts, in order. Cached texts are served
// from the backend; the remaining texts are sent to tr in one call and stored.
func (c *Cache) Translate(ctx context.Context, tr Translator, texts []string, lang string) ([]string, error) {
	results := make([]string, len(texts))
	if len(texts) == 0 {
		return results, nil
	}
	engine := tr.Engine()

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = Key(engine, lang, text)
	}
	cached, err := c.backend.Lookup(ctx, keys)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcache", "lookup", "", err)
	}

	var misses []string
	seen := make(map[string]struct{})
	for i, key := range keys {
		if value, ok := cached[key]; ok {
			results[i] = value
			continue
		}
		if _, dup := seen[texts[i]]; dup {
			continue
		}
		seen[texts[i]] = struct{}{}
		misses = append(misses, texts[i])
	}

	c.logger.Debug("translation cache lookup",
		logging.Args(append(logging.DecisionAttrs("translation_cache", cacheResult(len(misses), len(texts)),
			fmt.Sprintf("%d of %d texts cached", len(texts)-len(misses), len(texts))),
			logging.String("engine", engine),
			logging.String("target_lang", lang))...)...)

	if len(misses) == 0 {
		return results, nil
	}

	translated, err := tr.Translate(ctx, misses, lang)
	if err != nil {
		return nil, err
	}
	if len(translated) != len(misses) {
		return nil, services.Wrap(services.ErrCardinality, "transcache", "translate",
			fmt.Sprintf("%s returned %d results for %d texts", engine, len(translated), len(misses)), nil)
	}

	now := c.now().UTC()
	entries := make([]Entry, len(misses))
	byText := make(map[string]string, len(misses))
	for i, text := range misses {
		entries[i] = Entry{Engine: engine, Lang: lang, Source: text, Translated: translated[i], CachedAt: now}
		byText[text] = translated[i]
	}
	if err := c.backend.Store(ctx, entries); err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcache", "store", "", err)
	}

	for i, key := range keys {
		if _, ok := cached[key]; !ok {
			results[i] = byText[texts[i]]
		}
	}
	return results, nil
}

func cacheResult(misses, total int) string {
	switch {
	case misses == 0:
		return "hit"
	case misses == total:
		return "miss"
	default:
		return "partial"
	}
}

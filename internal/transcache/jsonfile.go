package transcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bilingualtube/internal/fileutil"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONBackend stores entries in a single JSON file. Writes are serialised
// across processes with an adjacent lock file and re-read the file under the
// lock, so concurrent writers merge instead of clobbering each other.
type JSONBackend struct {
	path string
	lock *flock.Flock

	mu      sync.RWMutex
	entries map[string]Entry
}

// OpenJSON loads the cache file at path. A missing file starts empty.
func OpenJSON(path string) (*JSONBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	backend := &JSONBackend{
		path:    path,
		lock:    flock.New(path + ".lock"),
		entries: make(map[string]Entry),
	}
	entries, err := backend.load()
	if err != nil {
		return nil, err
	}
	backend.entries = entries
	return backend, nil
}

func (j *JSONBackend) Name() string { return "json" }

// Path returns the cache file location.
func (j *JSONBackend) Path() string { return j.path }

func (j *JSONBackend) Lookup(_ context.Context, keys []string) (map[string]string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	found := make(map[string]string, len(keys))
	for _, key := range keys {
		if entry, ok := j.entries[key]; ok {
			found[key] = entry.Translated
		}
	}
	return found, nil
}

func (j *JSONBackend) Store(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return j.withLock(ctx, func(current map[string]Entry) (map[string]Entry, error) {
		for _, entry := range entries {
			current[entry.Key()] = entry
		}
		return current, nil
	})
}

func (j *JSONBackend) Stats(context.Context) (Stats, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Stats{Backend: j.Name(), Path: j.path, Entries: len(j.entries), Groups: groupEntries(j.entries)}, nil
}

func (j *JSONBackend) Clear(ctx context.Context) error {
	return j.withLock(ctx, func(map[string]Entry) (map[string]Entry, error) {
		return make(map[string]Entry), nil
	})
}

func (j *JSONBackend) Close() error { return nil }

func (j *JSONBackend) withLock(ctx context.Context, mutate func(map[string]Entry) (map[string]Entry, error)) error {
	locked, err := j.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return errors.New("acquire cache lock: not acquired")
	}
	defer func() { _ = j.lock.Unlock() }()

	j.mu.Lock()
	defer j.mu.Unlock()

	current, err := j.load()
	if err != nil {
		return err
	}
	next, err := mutate(current)
	if err != nil {
		return err
	}
	if err := j.save(next); err != nil {
		return err
	}
	j.entries = next
	return nil
}

func (j *JSONBackend) load() (map[string]Entry, error) {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	var list []Entry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	for _, entry := range list {
		entries[entry.Key()] = entry
	}
	return entries, nil
}

// save writes the cache to disk atomically.
func (j *JSONBackend) save(entries map[string]Entry) error {
	list := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	// Sort for deterministic output
	sort.Slice(list, func(a, b int) bool {
		return list[a].Key() < list[b].Key()
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(j.path, data, 0o644); err != nil {
		return fmt.Errorf("save cache file: %w", err)
	}
	return nil
}

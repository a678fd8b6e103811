package cuestore

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"bilingualtube/internal/logging"
	"bilingualtube/internal/subtitles"
)

// ErrStaleTrack is returned when a writer targets a track that is no longer current.
var ErrStaleTrack = errors.New("stale track")

// Track is a cue list in one language, used for official translations.
type Track struct {
	Lang string              `json:"lang"`
	Raw  *subtitles.Response `json:"-"`
	Cues []subtitles.Cue     `json:"cues"`
}

// Entry is a snapshot of the current track.
type Entry struct {
	TrackID  string              `json:"track_id"`
	Lang     string              `json:"lang"`
	Raw      *subtitles.Response `json:"-"`
	Cues     []subtitles.Cue     `json:"cues"`
	Official *Track              `json:"official,omitempty"`
}

// Handle identifies a track begun on the store.
type Handle struct {
	ID  string
	Ctx context.Context
}

// Translation writes a translated string back to a cue. Source must match the
// cue text at Index for the write to land.
type Translation struct {
	Index  int
	Source string
	Text   string
}

type listener struct {
	id int
	fn func(float64)
}

// Store is the shared state for one viewing session.
type Store struct {
	logger *slog.Logger

	mu        sync.Mutex
	entry     *Entry
	ctx       context.Context
	cancel    context.CancelFunc
	current   float64
	listeners []listener
	nextID    int
}

// New returns an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{logger: logging.NewComponentLogger(logger, "cuestore")}
}

// Reset cancels the current track and clears all track state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.entry != nil {
		s.logger.Debug("track reset", logging.String(logging.FieldTrackID, s.entry.TrackID))
	}
	s.entry = nil
	s.ctx = nil
	s.cancel = nil
	s.current = 0
}

// Begin supersedes any current track with a new, empty one.
func (s *Store) Begin(lang string, raw *subtitles.Response) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	s.entry = &Entry{TrackID: id, Lang: lang, Raw: raw}
	s.ctx = ctx
	s.cancel = cancel
	s.logger.Debug("track started",
		logging.String(logging.FieldTrackID, id),
		logging.String(logging.FieldLanguage, lang))
	return Handle{ID: id, Ctx: ctx}
}

func (s *Store) checkLocked(trackID string) error {
	if s.entry == nil || s.entry.TrackID != trackID {
		return ErrStaleTrack
	}
	if err := s.ctx.Err(); err != nil {
		return err
	}
	return nil
}

// SetCues replaces the cue list of the current track.
func (s *Store) SetCues(trackID string, cues []subtitles.Cue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(trackID); err != nil {
		return err
	}
	s.entry.Cues = slices.Clone(cues)
	return nil
}

// SetOfficial attaches an official translation track.
func (s *Store) SetOfficial(trackID string, track Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(trackID); err != nil {
		return err
	}
	track.Cues = slices.Clone(track.Cues)
	s.entry.Official = &track
	return nil
}

// ApplyTranslations writes translations into matching cues and reports how
// many landed. Entries whose index is out of range or whose source text no
// longer matches are skipped.
func (s *Store) ApplyTranslations(trackID string, translations []Translation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(trackID); err != nil {
		return 0, err
	}
	applied := 0
	for _, tr := range translations {
		if tr.Index < 0 || tr.Index >= len(s.entry.Cues) {
			continue
		}
		if s.entry.Cues[tr.Index].Text != tr.Source {
			continue
		}
		s.entry.Cues[tr.Index].Translated = tr.Text
		applied++
	}
	return applied, nil
}

// Snapshot returns a copy of the current track.
func (s *Store) Snapshot() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return Entry{}, false
	}
	out := *s.entry
	out.Cues = slices.Clone(s.entry.Cues)
	if s.entry.Official != nil {
		official := *s.entry.Official
		official.Cues = slices.Clone(official.Cues)
		out.Official = &official
	}
	return out, true
}

// Context returns the current track context. With no track it returns an
// already cancelled context.
func (s *Store) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.ctx
}

// CurrentTime returns the playback cursor in seconds.
func (s *Store) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ActiveCue returns the cue displayed at time t.
func (s *Store) ActiveCue(t float64) (subtitles.Cue, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return subtitles.Cue{}, -1, false
	}
	idx := subtitles.ActiveCue(s.entry.Cues, t)
	if idx < 0 {
		return subtitles.Cue{}, -1, false
	}
	return s.entry.Cues[idx], idx, true
}

// SetCurrentTime moves the cursor and notifies listeners in subscription order.
func (s *Store) SetCurrentTime(t float64) {
	s.mu.Lock()
	s.current = t
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(t)
	}
}

// Subscribe registers fn for cursor updates and returns its unsubscribe func.
func (s *Store) Subscribe(fn func(t float64)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
	}
}

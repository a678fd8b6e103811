package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"bilingualtube/internal/config"
	"bilingualtube/internal/cuestore"
	"bilingualtube/internal/language"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/services"
	"bilingualtube/internal/transcache"
)

// Translator is the translation backend contract.
type Translator interface {
	Engine() string
	Translate(ctx context.Context, texts []string, lang string) ([]string, error)
}

// Outcome describes what a Trigger call did.
type Outcome int

const (
	OutcomeTranslated Outcome = iota
	OutcomeNothingToDo
	OutcomeDropped
	OutcomeNoTrack
	OutcomeSameLanguage
	OutcomeOfficialTrack
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTranslated:
		return "translated"
	case OutcomeNothingToDo:
		return "nothing_to_do"
	case OutcomeDropped:
		return "dropped"
	case OutcomeNoTrack:
		return "no_track"
	case OutcomeSameLanguage:
		return "same_language"
	case OutcomeOfficialTrack:
		return "official_track"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Result summarizes one scheduling pass.
type Result struct {
	Outcome   Outcome
	Requested int
	Applied   int
}

// Options configure selection.
type Options struct {
	TargetLanguage string
	Mode           string
	Horizon        float64
	MaxCues        int
}

// OptionsFromConfig maps the translation section onto Options.
func OptionsFromConfig(cfg config.Translation) Options {
	return Options{
		TargetLanguage: cfg.TargetLanguage,
		Mode:           cfg.Mode,
		Horizon:        cfg.HorizonSeconds,
		MaxCues:        cfg.MaxCues,
	}
}

// Scheduler runs translation passes against a cue store.
type Scheduler struct {
	store      *cuestore.Store
	cache      *transcache.Cache
	translator Translator
	opts       Options
	logger     *slog.Logger

	inFlight atomic.Bool
	pending  sync.WaitGroup
}

// New builds a Scheduler. A nil cache falls back to an in-memory one.
func New(store *cuestore.Store, cache *transcache.Cache, translator Translator, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cache == nil {
		cache = transcache.New(transcache.NewMemoryBackend(), logger)
	}
	opts.TargetLanguage = language.Normalize(opts.TargetLanguage)
	return &Scheduler{
		store:      store,
		cache:      cache,
		translator: translator,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "scheduler"),
	}
}

// TargetLanguage returns the normalized target language.
func (s *Scheduler) TargetLanguage() string {
	return s.opts.TargetLanguage
}

// Select returns the cue indices the configured mode would translate at t.
func (s *Scheduler) Select(entry cuestore.Entry, t float64) []int {
	if s.opts.Mode == config.ModeNext {
		return SelectNext(entry.Cues, t, s.opts.MaxCues)
	}
	return SelectWindow(entry.Cues, t, s.opts.Horizon)
}

// Trigger runs one translation pass for cursor t. A pass already in flight
// makes this call return OutcomeDropped immediately.
func (s *Scheduler) Trigger(ctx context.Context, t float64) (Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("translation pass dropped",
			logging.Args(logging.DecisionAttrs("translation_schedule", "dropped", "pass already in flight")...)...)
		return Result{Outcome: OutcomeDropped}, nil
	}
	defer s.inFlight.Store(false)

	entry, ok := s.store.Snapshot()
	if !ok {
		return Result{Outcome: OutcomeNoTrack}, nil
	}
	logger := s.logger.With(logging.String(logging.FieldTrackID, entry.TrackID))

	if language.Equal(entry.Lang, s.opts.TargetLanguage) {
		logger.Debug("translation skipped",
			logging.Args(append(logging.DecisionAttrs("translation_schedule", "skipped", "source matches target language"),
				logging.String(logging.FieldLanguage, entry.Lang))...)...)
		return Result{Outcome: OutcomeSameLanguage}, nil
	}
	if entry.Official != nil {
		logger.Debug("translation skipped",
			logging.Args(append(logging.DecisionAttrs("translation_schedule", "skipped", "official translation attached"),
				logging.String("official_lang", entry.Official.Lang))...)...)
		return Result{Outcome: OutcomeOfficialTrack}, nil
	}

	indices := s.Select(entry, t)
	if len(indices) == 0 {
		return Result{Outcome: OutcomeNothingToDo}, nil
	}

	trackCtx := s.store.Context()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(trackCtx, cancel)
	defer stop()
	ctx = services.WithTrackID(ctx, entry.TrackID)

	texts := make([]string, len(indices))
	for i, idx := range indices {
		texts[i] = entry.Cues[idx].Text
	}
	translated, err := s.cache.Translate(ctx, s.translator, texts, s.opts.TargetLanguage)
	if trackCtx.Err() != nil {
		return Result{Outcome: OutcomeStale, Requested: len(texts)}, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeStale, Requested: len(texts)}, nil
		}
		logging.WarnWithContext(logger, "translation pass failed", "translation_failed",
			logging.Error(err),
			logging.String("engine", s.translator.Engine()),
			logging.Int("cue_count", len(texts)),
			logging.String(logging.FieldErrorHint, "the next cursor update retries untranslated cues"),
			logging.String(logging.FieldImpact, "cues stay untranslated for now"))
		return Result{Requested: len(texts)}, err
	}

	updates := make([]cuestore.Translation, len(indices))
	for i, idx := range indices {
		updates[i] = cuestore.Translation{Index: idx, Source: texts[i], Text: translated[i]}
	}
	applied, err := s.store.ApplyTranslations(entry.TrackID, updates)
	if err != nil {
		if errors.Is(err, cuestore.ErrStaleTrack) || errors.Is(err, context.Canceled) {
			return Result{Outcome: OutcomeStale, Requested: len(texts)}, nil
		}
		return Result{Requested: len(texts)}, err
	}
	if applied < len(updates) {
		logger.Debug("translations skipped on apply",
			logging.Alert("cue_text_changed"),
			logging.Int("skipped", len(updates)-applied))
	}
	logger.Debug("translation pass complete",
		logging.Float64("cursor", t),
		logging.Int("requested", len(texts)),
		logging.Int("applied", applied))
	return Result{Outcome: OutcomeTranslated, Requested: len(texts), Applied: applied}, nil
}

// Attach subscribes the scheduler to cursor updates. Each update starts a
// background pass; overlapping passes are dropped by Trigger.
func (s *Scheduler) Attach(ctx context.Context) (unsubscribe func()) {
	return s.store.Subscribe(func(t float64) {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if _, err := s.Trigger(ctx, t); err != nil && services.IsFatal(err) {
				logging.ErrorWithContext(s.logger, "background translation failed", "translation_failed",
					logging.Error(err))
			}
		}()
	})
}

// Wait blocks until background passes started by Attach have finished.
func (s *Scheduler) Wait() {
	s.pending.Wait()
}

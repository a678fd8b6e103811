package pipeline

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"

	"bilingualtube/internal/config"
	"bilingualtube/internal/cuestore"
	"bilingualtube/internal/language"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/punctuation"
	"bilingualtube/internal/scheduler"
	"bilingualtube/internal/services"
	"bilingualtube/internal/subtitles"
)

// Kind distinguishes auto-generated from uploaded caption tracks.
type Kind string

const (
	KindASR    Kind = "asr"
	KindManual Kind = "manual"
)

// ParseKind maps a caption kind parameter onto Kind. Anything other than
// "asr" is a manual track.
func ParseKind(value string) Kind {
	if value == string(KindASR) {
		return KindASR
	}
	return KindManual
}

// Route records which processing path an ingest took.
type Route string

const (
	RouteRestore    Route = "restore"
	RouteDefragment Route = "defragment"
	RouteSegment    Route = "segment"
	RouteRaw        Route = "raw_segment"
	RouteManual     Route = "manual"
)

// Restorer streams punctuation restoration snapshots.
type Restorer interface {
	Stream(ctx context.Context, tokens []subtitles.TimedToken) iter.Seq2[[]punctuation.AnnotatedToken, error]
}

// Request is one captured caption response.
type Request struct {
	Response  *subtitles.Response
	Lang      string
	Kind      Kind
	StartTime float64
}

// Result summarizes an ingest.
type Result struct {
	TrackID   string `json:"track_id"`
	Lang      string `json:"lang"`
	Route     Route  `json:"route"`
	Cues      int    `json:"cues"`
	Snapshots int    `json:"snapshots,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Aborted   bool   `json:"aborted,omitempty"`
	Official  string `json:"official,omitempty"`

	Translations   []scheduler.Result `json:"-"`
	RestoreError   error              `json:"-"`
	TranslateError error              `json:"-"`
}

// Options configure routing.
type Options struct {
	TargetLanguage   string
	RestoreLanguages []string
	ASRStrategy      string
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TargetLanguage:   cfg.Translation.TargetLanguage,
		RestoreLanguages: cfg.Punctuation.Languages,
		ASRStrategy:      cfg.Segmentation.ASRStrategy,
	}
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithRestorer enables punctuation restoration.
func WithRestorer(r Restorer) Option {
	return func(p *Pipeline) { p.restorer = r }
}

// WithScheduler triggers translation as cues become available.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(p *Pipeline) { p.scheduler = s }
}

// WithOfficialSource enables official translation lookup for manual tracks.
func WithOfficialSource(src OfficialSource) Option {
	return func(p *Pipeline) { p.official = src }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline ingests caption responses into a cue store.
type Pipeline struct {
	store     *cuestore.Store
	opts      Options
	restorer  Restorer
	scheduler *scheduler.Scheduler
	official  OfficialSource
	logger    *slog.Logger
}

// New builds a Pipeline writing into store.
func New(store *cuestore.Store, opts Options, options ...Option) *Pipeline {
	opts.TargetLanguage = language.Normalize(opts.TargetLanguage)
	opts.RestoreLanguages = language.NormalizeList(opts.RestoreLanguages)
	if opts.ASRStrategy == "" {
		opts.ASRStrategy = config.StrategyDefragment
	}
	p := &Pipeline{store: store, opts: opts, logger: logging.NewNop()}
	for _, opt := range options {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Ingest replaces the current track with req and processes it.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.Response == nil || req.Response.Events == nil {
		return Result{}, services.Wrap(services.ErrMalformedResponse, "pipeline", "ingest", "response has no events", nil)
	}
	if req.Lang == "" {
		return Result{}, services.Wrap(services.ErrValidation, "pipeline", "ingest", "caption language is required", nil)
	}
	if req.Kind == "" {
		req.Kind = KindASR
	}
	lang := language.Normalize(req.Lang)

	if _, ok := p.store.Snapshot(); ok {
		p.logger.Debug("superseding current track")
	}
	handle := p.store.Begin(lang, req.Response)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(handle.Ctx, cancel)
	defer stop()
	ctx = services.WithLanguage(services.WithTrackID(ctx, handle.ID), lang)

	logger := p.logger.With(
		logging.String(logging.FieldTrackID, handle.ID),
		logging.String(logging.FieldLanguage, lang))

	run := &ingest{
		p:      p,
		handle: handle,
		req:    req,
		lang:   lang,
		logger: logger,
		result: Result{TrackID: handle.ID, Lang: lang},
	}
	err := run.process(ctx)
	if handle.Ctx.Err() != nil || ctx.Err() != nil || errors.Is(err, cuestore.ErrStaleTrack) {
		run.result.Aborted = true
		logger.Info("ingest aborted", logging.String("route", string(run.result.Route)))
		return run.result, nil
	}
	if err != nil {
		return run.result, err
	}
	logger.Info("ingest complete",
		logging.String("route", string(run.result.Route)),
		logging.Int("cue_count", run.result.Cues),
		logging.Bool("fallback", run.result.Fallback))
	return run.result, nil
}

type ingest struct {
	p      *Pipeline
	handle cuestore.Handle
	req    Request
	lang   string
	logger *slog.Logger
	result Result
}

func (r *ingest) process(ctx context.Context) error {
	tokens := subtitles.Tokens(r.req.Response)

	if r.req.Kind != KindASR {
		r.result.Route = RouteManual
		cues := subtitles.CuesFromTokens(tokens)
		if err := r.publish(cues); err != nil {
			return err
		}
		r.attachOfficial(ctx)
		r.translate(ctx, r.req.StartTime)
		return nil
	}

	if !subtitles.HasMissingPunctuation(tokens) {
		var cues []subtitles.Cue
		if r.p.opts.ASRStrategy == config.StrategySegment {
			r.result.Route = RouteSegment
			cues = subtitles.Segment(tokens, r.lang)
		} else {
			r.result.Route = RouteDefragment
			cues = subtitles.Resegment(subtitles.Defragment(r.req.Response.Events, r.lang), r.lang)
		}
		r.decision("asr_route", string(r.result.Route), "captions already punctuated")
		if err := r.publish(cues); err != nil {
			return err
		}
		r.translate(ctx, r.cursor())
		return nil
	}

	if r.p.restorer == nil || !slices.Contains(r.p.opts.RestoreLanguages, r.lang) {
		r.result.Route = RouteRaw
		reason := "no restorer configured"
		if r.p.restorer != nil {
			reason = "language not restorable"
		}
		r.decision("asr_route", string(RouteRaw), reason)
		if err := r.publish(subtitles.Segment(tokens, r.lang)); err != nil {
			return err
		}
		r.translate(ctx, r.cursor())
		return nil
	}

	r.result.Route = RouteRestore
	r.decision("asr_route", string(RouteRestore), "punctuation missing")
	err := r.restore(ctx, tokens)
	if err == nil || ctx.Err() != nil || errors.Is(err, cuestore.ErrStaleTrack) {
		return err
	}

	r.result.Fallback = true
	r.result.RestoreError = err
	logging.WarnWithContext(r.logger, "punctuation restoration failed", "restoration_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the punctuation runtime and model assets"),
		logging.String(logging.FieldImpact, "cues are segmented from unpunctuated tokens"))
	if err := r.publish(subtitles.Segment(tokens, r.lang)); err != nil {
		return err
	}
	r.translate(ctx, r.cursor())
	return nil
}

// restore publishes each snapshot. Cues before the last cue of the previous
// snapshot stay frozen; the last one may still grow, so it and everything
// after it come from the new segmentation. When the stream ends the full
// final segmentation is published.
func (r *ingest) restore(ctx context.Context, tokens []subtitles.TimedToken) error {
	lastLen := 0
	var (
		published []subtitles.Cue
		final     []subtitles.Cue
	)
	for snapshot, err := range r.p.restorer.Stream(ctx, tokens) {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cues := subtitles.Segment(punctuation.ToTimedTokens(snapshot), r.lang)
		final = cues
		current := r.currentCues(published)
		frozen := min(max(lastLen-1, 0), len(current), len(cues))
		merged := slices.Clone(current[:frozen])
		merged = append(merged, carryTranslations(current[frozen:], cues[frozen:])...)
		if err := r.publish(merged); err != nil {
			return err
		}
		published = merged
		r.result.Snapshots++
		r.translateUncovered(ctx, merged[frozen:])
		lastLen = len(cues)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if final == nil || slices.Equal(subtitles.Texts(final), subtitles.Texts(published)) {
		return nil
	}
	merged := carryTranslations(r.currentCues(published), final)
	if err := r.publish(merged); err != nil {
		return err
	}
	r.translateUncovered(ctx, merged)
	return nil
}

// currentCues returns the cues the store holds for this track, which carry
// any translations applied since the last publish.
func (r *ingest) currentCues(published []subtitles.Cue) []subtitles.Cue {
	if entry, ok := r.p.store.Snapshot(); ok && entry.TrackID == r.handle.ID {
		return entry.Cues
	}
	return published
}

// carryTranslations copies translations from prev onto the cues of next that
// kept their text and start time.
func carryTranslations(prev, next []subtitles.Cue) []subtitles.Cue {
	out := slices.Clone(next)
	for i := range out {
		if i < len(prev) && prev[i].Text == out[i].Text && prev[i].Start == out[i].Start {
			out[i].Translated = prev[i].Translated
		}
	}
	return out
}

// translateUncovered triggers translation when the cue under the cursor is
// among cues and has no translation yet.
func (r *ingest) translateUncovered(ctx context.Context, cues []subtitles.Cue) {
	cursor := r.cursor()
	for _, cue := range cues {
		if cursor >= cue.Start && cursor <= cue.End && cue.Translated == "" {
			r.translate(ctx, cursor)
			return
		}
	}
}

// cursor is the playback position, falling back to the request start time
// until the player reports one.
func (r *ingest) cursor() float64 {
	if t := r.p.store.CurrentTime(); t > 0 {
		return t
	}
	return r.req.StartTime
}

func (r *ingest) publish(cues []subtitles.Cue) error {
	if err := r.p.store.SetCues(r.handle.ID, cues); err != nil {
		return err
	}
	r.result.Cues = len(cues)
	return nil
}

func (r *ingest) attachOfficial(ctx context.Context) {
	src := r.p.official
	target := r.p.opts.TargetLanguage
	if src == nil || target == "" {
		return
	}
	if language.Equal(r.lang, target) {
		r.decision("official_track", "skipped", "source matches target language")
		return
	}
	tracks, err := src.Tracks(ctx)
	if err != nil {
		logging.WarnWithContext(r.logger, "listing caption tracks failed", "official_tracks_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "machine translation is used instead"))
		return
	}
	track, ok := FindOfficialTrack(tracks, r.lang, target)
	if !ok {
		r.decision("official_track", "not_found", "no caption track in target language")
		return
	}
	resp, err := src.Fetch(ctx, track)
	if err != nil || resp == nil || resp.Events == nil {
		if err == nil {
			err = services.Wrap(services.ErrMalformedResponse, "pipeline", "official", "official track has no events", nil)
		}
		logging.WarnWithContext(r.logger, "fetching official track failed", "official_fetch_failed",
			logging.Error(err),
			logging.String("official_lang", track.Lang),
			logging.String(logging.FieldImpact, "machine translation is used instead"))
		return
	}
	official := cuestore.Track{
		Lang: language.Normalize(track.Lang),
		Raw:  resp,
		Cues: subtitles.CuesFromTokens(subtitles.Tokens(resp)),
	}
	if err := r.p.store.SetOfficial(r.handle.ID, official); err != nil {
		return
	}
	r.result.Official = official.Lang
	r.decision("official_track", "attached", string(track.Kind)+" track in "+official.Lang)
}

func (r *ingest) translate(ctx context.Context, cursor float64) {
	if r.p.scheduler == nil {
		return
	}
	res, err := r.p.scheduler.Trigger(ctx, cursor)
	r.result.Translations = append(r.result.Translations, res)
	if err != nil && ctx.Err() == nil {
		r.result.TranslateError = err
		logging.WarnWithContext(r.logger, "translation pass failed during ingest", "translation_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "translation retries on the next cursor update"))
	}
}

func (r *ingest) decision(kind, result, reason string) {
	r.logger.Info("pipeline decision", logging.Args(logging.DecisionAttrs(kind, result, reason)...)...)
}

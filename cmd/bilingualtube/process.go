package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bilingualtube/internal/cuestore"
	"bilingualtube/internal/fileutil"
	"bilingualtube/internal/language"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/pipeline"
	"bilingualtube/internal/scheduler"
	"bilingualtube/internal/services"
	"bilingualtube/internal/services/punctrunner"
	"bilingualtube/internal/subtitles"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatSRT   = "srt"
	formatVTT   = "vtt"
)

type processOptions struct {
	lang      string
	kind      string
	translate bool
	all       bool
	at        float64
	format    string
	output    string
	official  string
}

type processReport struct {
	Result       pipeline.Result   `json:"result"`
	Translations []translationPass `json:"translations,omitempty"`
	Cues         []subtitles.Cue   `json:"cues"`
}

type translationPass struct {
	Outcome   string `json:"outcome"`
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	opts := processOptions{}

	cmd := &cobra.Command{
		Use:   "process <timedtext.json>",
		Short: "Build cues from a captured timedtext response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.jsonMode() && !cmd.Flags().Changed("format") {
				opts.format = formatJSON
			}
			return runProcess(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.lang, "lang", "en", "Language of the caption track")
	cmd.Flags().StringVar(&opts.kind, "kind", string(pipeline.KindASR), "Caption track kind (asr or manual)")
	cmd.Flags().BoolVar(&opts.translate, "translate", false, "Translate cues with the configured engine")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Translate the whole track, not only the window around --at")
	cmd.Flags().Float64Var(&opts.at, "at", 0, "Playback position in seconds")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "Output format (table, json, srt, vtt)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().StringVar(&opts.official, "official", "", "Captured timedtext response of an official target language track")

	return cmd
}

func runProcess(cmd *cobra.Command, ctx *commandContext, path string, opts processOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	switch format {
	case formatTable, formatJSON, formatSRT, formatVTT:
	default:
		return fmt.Errorf("unsupported format %q (use table, json, srt, or vtt)", opts.format)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	resp, err := readResponse(path)
	if err != nil {
		return err
	}

	runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
	store := cuestore.New(logging.NewComponentLogger(logger, "cuestore"))
	target := language.Normalize(cfg.Translation.TargetLanguage)

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline"))}

	var sched *scheduler.Scheduler
	if opts.translate {
		translator, err := translatorFactory(cfg)
		if err != nil {
			return err
		}
		cache, err := ctx.openCache(runCtx)
		if err != nil {
			return err
		}
		defer cache.Close()
		sched = scheduler.New(store, cache, translator, scheduler.OptionsFromConfig(cfg.Translation),
			logging.NewComponentLogger(logger, "scheduler"))
		pipeOpts = append(pipeOpts, pipeline.WithScheduler(sched))
	}

	if cfg.Punctuation.Enabled {
		restorer, err := punctrunner.Open(cfg.Punctuation, logging.NewComponentLogger(logger, "punctuation"))
		if err != nil {
			logging.WarnWithContext(logger, "punctuation restoration unavailable", "restorer_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'bilingualtube deps' to check the model assets"),
				logging.String(logging.FieldImpact, "unpunctuated tracks are segmented without restoration"))
		} else {
			pipeOpts = append(pipeOpts, pipeline.WithRestorer(restorer))
		}
	}

	if opts.official != "" {
		officialResp, err := readResponse(opts.official)
		if err != nil {
			return err
		}
		source := pipeline.NewStaticSource()
		source.Add(pipeline.CaptionTrack{Lang: target, Kind: pipeline.KindManual}, officialResp)
		pipeOpts = append(pipeOpts, pipeline.WithOfficialSource(source))
	}

	p := pipeline.New(store, pipeline.OptionsFromConfig(cfg), pipeOpts...)
	result, err := p.Ingest(runCtx, pipeline.Request{
		Response:  resp,
		Lang:      opts.lang,
		Kind:      pipeline.ParseKind(opts.kind),
		StartTime: opts.at,
	})
	if err != nil {
		return err
	}

	passes := make([]translationPass, 0, len(result.Translations))
	for _, res := range result.Translations {
		passes = append(passes, newTranslationPass(res))
	}
	if sched != nil && opts.all {
		more, err := translateRemaining(runCtx, store, sched)
		passes = append(passes, more...)
		if err != nil {
			return err
		}
	}

	entry, ok := store.Snapshot()
	if !ok {
		return fmt.Errorf("track %s was superseded before output", result.TrackID)
	}
	cues := entry.Cues
	if entry.Official != nil {
		cues = withOfficial(cues, entry.Official.Cues)
	}

	render := func(out io.Writer) error {
		switch format {
		case formatJSON:
			return encodeJSON(out, processReport{Result: result, Translations: passes, Cues: cues})
		case formatSRT:
			return subtitles.WriteSRT(out, cues, exportOptions(entry.Lang, target))
		case formatVTT:
			return subtitles.WriteWebVTT(out, cues, exportOptions(entry.Lang, target))
		default:
			printProcessSummary(out, result, passes)
			renderRows(out, []string{"#", "Start", "End", "Text", "Translation"}, cueRows(cues),
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft})
			return nil
		}
	}

	if opts.output == "" {
		return render(cmd.OutOrStdout())
	}
	if err := fileutil.WriteAtomic(opts.output, 0o644, render); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d cues to %s\n", len(cues), opts.output)
	return nil
}

func readResponse(path string) (*subtitles.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timedtext: %w", err)
	}
	return subtitles.ParseResponse(data)
}

// translateRemaining advances the cursor to each untranslated cue in turn,
// standing in for playback until every cue has a translation.
func translateRemaining(ctx context.Context, store *cuestore.Store, sched *scheduler.Scheduler) ([]translationPass, error) {
	var passes []translationPass
	for {
		entry, ok := store.Snapshot()
		if !ok || entry.Official != nil {
			return passes, nil
		}
		next := -1
		for i, cue := range entry.Cues {
			if cue.Translated == "" {
				next = i
				break
			}
		}
		if next < 0 {
			return passes, nil
		}
		store.SetCurrentTime(entry.Cues[next].Start)
		res, err := sched.Trigger(ctx, entry.Cues[next].Start)
		passes = append(passes, newTranslationPass(res))
		if err != nil {
			return passes, err
		}
		if res.Outcome != scheduler.OutcomeTranslated || res.Applied == 0 {
			return passes, nil
		}
	}
}

func newTranslationPass(res scheduler.Result) translationPass {
	return translationPass{Outcome: res.Outcome.String(), Requested: res.Requested, Applied: res.Applied}
}

// withOfficial pairs each cue with the official cue it overlaps most.
func withOfficial(cues, official []subtitles.Cue) []subtitles.Cue {
	out := make([]subtitles.Cue, len(cues))
	for i, cue := range cues {
		out[i] = cue
		best := 0.0
		for _, candidate := range official {
			overlap := min(cue.End, candidate.End) - max(cue.Start, candidate.Start)
			if overlap > best {
				best = overlap
				out[i].Translated = candidate.Text
			}
		}
	}
	return out
}

func exportOptions(source, target string) subtitles.ExportOptions {
	return subtitles.ExportOptions{
		Bilingual:       true,
		TranslationOnly: language.IsChineseVariantConversion(source, target),
	}
}

func printProcessSummary(w io.Writer, result pipeline.Result, passes []translationPass) {
	line := fmt.Sprintf("Track %s (%s): route %s, %d cues", result.TrackID, language.DisplayName(result.Lang), result.Route, result.Cues)
	if result.Snapshots > 0 {
		line += fmt.Sprintf(", %d restoration snapshots", result.Snapshots)
	}
	if result.Fallback {
		line += ", restoration fell back to raw segmentation"
	}
	if result.Official != "" {
		line += ", official " + result.Official + " track attached"
	}
	fmt.Fprintln(w, line)

	applied := 0
	for _, pass := range passes {
		applied += pass.Applied
	}
	if len(passes) > 0 {
		fmt.Fprintf(w, "Translation: %d passes, %d cues translated\n", len(passes), applied)
	}
}

func cueRows(cues []subtitles.Cue) [][]string {
	rows := make([][]string, 0, len(cues))
	for i, cue := range cues {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(cue.Start),
			formatSeconds(cue.End),
			cue.Text,
			cue.Translated,
		})
	}
	return rows
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

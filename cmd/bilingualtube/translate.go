package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bilingualtube/internal/language"
	"bilingualtube/internal/services"
)

type translatedText struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var targetLang string

	cmd := &cobra.Command{
		Use:   "translate <text...>",
		Short: "Translate text through the cache and configured engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lang := strings.TrimSpace(targetLang)
			if lang == "" {
				lang = cfg.Translation.TargetLanguage
			}
			if !language.Valid(lang) {
				return fmt.Errorf("invalid target language %q", lang)
			}
			lang = language.Normalize(lang)

			translator, err := translatorFactory(cfg)
			if err != nil {
				return err
			}
			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			cache, err := ctx.openCache(runCtx)
			if err != nil {
				return err
			}
			defer cache.Close()

			translations, err := cache.Translate(runCtx, translator, args, lang)
			if err != nil {
				return err
			}

			results := make([]translatedText, len(args))
			for i, text := range args {
				results[i] = translatedText{Source: text, Translation: translations[i]}
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Source, result.Translation})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target: %s via %s\n", language.DisplayName(lang), translator.Engine())
			renderRows(out, []string{"Source", "Translation"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetLang, "lang", "", "Target language (defaults to translation.target_language)")
	return cmd
}

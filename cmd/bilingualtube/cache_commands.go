package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bilingualtube/internal/language"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the translation cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheGetCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached translation counts per engine and language",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Backend().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s\n", stats.Backend)
			if stats.Path != "" {
				fmt.Fprintf(out, "Path: %s\n", stats.Path)
			}
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			if len(stats.Groups) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(stats.Groups))
			for _, group := range stats.Groups {
				rows = append(rows, []string{group.Engine, group.Lang, strconv.Itoa(group.Count)})
			}
			renderRows(out, []string{"Engine", "Language", "Entries"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight})
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cache.Close()

			if err := cache.Backend().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s translation cache\n", cache.Backend().Name())
			return nil
		},
	}
}

func newCacheGetCommand(ctx *commandContext) *cobra.Command {
	var engine string
	var lang string

	cmd := &cobra.Command{
		Use:   "get <text>",
		Short: "Look up one cached translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			engineName := strings.TrimSpace(engine)
			if engineName == "" {
				translator, err := translatorFactory(cfg)
				if err != nil {
					return err
				}
				engineName = translator.Engine()
			}
			target := strings.TrimSpace(lang)
			if target == "" {
				target = cfg.Translation.TargetLanguage
			}
			target = language.Normalize(target)

			cache, err := ctx.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cache.Close()

			value, ok, err := cache.Lookup(cmd.Context(), engineName, target, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, map[string]any{
					"engine":      engineName,
					"target_lang": target,
					"source":      args[0],
					"found":       ok,
					"translation": value,
				})
			}
			if !ok {
				return fmt.Errorf("no cached %s translation into %s", engineName, target)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "Engine name (defaults to translation.engine)")
	cmd.Flags().StringVar(&lang, "lang", "", "Target language (defaults to translation.target_language)")
	return cmd
}

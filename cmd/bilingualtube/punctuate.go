package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilingualtube/internal/logging"
	"bilingualtube/internal/punctuation"
	"bilingualtube/internal/services/punctrunner"
	"bilingualtube/internal/subtitles"
)

type punctuateReport struct {
	Tokens             int    `json:"tokens"`
	MissingPunctuation bool   `json:"missing_punctuation"`
	Restored           bool   `json:"restored"`
	Text               string `json:"text,omitempty"`
}

func newPunctuateCommand(ctx *commandContext) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "punctuate <timedtext.json>",
		Short: "Restore punctuation for an ASR track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			resp, err := readResponse(args[0])
			if err != nil {
				return err
			}

			tokens := subtitles.Tokens(resp)
			report := punctuateReport{
				Tokens:             len(tokens),
				MissingPunctuation: subtitles.HasMissingPunctuation(tokens),
			}

			if report.MissingPunctuation && !checkOnly {
				restorer, err := punctrunner.Open(cfg.Punctuation, logging.NewComponentLogger(logger, "punctuation"))
				if err != nil {
					return err
				}
				annotated, err := restorer.Annotate(cmd.Context(), tokens)
				if err != nil {
					return err
				}
				report.Restored = true
				report.Text = punctuation.Render(annotated)
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			if report.Restored {
				fmt.Fprintln(out, report.Text)
				return nil
			}
			fmt.Fprintf(out, "Tokens: %d\n", report.Tokens)
			fmt.Fprintf(out, "Missing punctuation: %s\n", yesNo(report.MissingPunctuation))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether the track needs restoration")
	return cmd
}

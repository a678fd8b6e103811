package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilingualtube/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the punctuation runtime and model assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.Check(cfg)
			missing := deps.Missing(statuses)

			if ctx.jsonMode() {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					state := "ok"
					if !status.Available {
						state = status.Detail
						if status.Optional {
							state += " (optional)"
						}
					}
					rows = append(rows, []string{status.Name, string(status.Kind), status.Command, state})
				}
				renderRows(cmd.OutOrStdout(), []string{"Dependency", "Kind", "Location", "Status"}, rows, nil)
			}

			if len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}
}

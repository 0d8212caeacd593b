package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGenresCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List the TMDB movie genre reference table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p.genres.EnsureLoaded(cmd.Context())
			list := p.genres.Snapshot()
			if len(list) == 0 {
				return errors.New("genre list unavailable; check TMDB_API_KEY and connectivity")
			}

			if jsonOut {
				return writeJSON(cmd, list)
			}
			rows := make([][]string, 0, len(list))
			for _, g := range list {
				rows = append(rows, []string{strconv.Itoa(g.ID), g.Name})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"ID", "Name"}, rows, []columnAlignment{alignRight, alignLeft}, !isTerminal(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

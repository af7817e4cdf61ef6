package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, closeLib, err := ctx.openLibrary(cmd, nil)
			if err != nil {
				return err
			}
			defer closeLib()

			idx, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, idx)
			}

			out := cmd.OutOrStdout()
			if len(idx.Characters) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(idx.Characters))
			for _, c := range idx.Characters {
				rows = append(rows, []string{
					c.ID,
					c.Name,
					c.Author,
					c.Version,
					strconv.Itoa(c.DownloadCount),
					c.LastUpdated.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Author", "Version", "Downloads", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d character(s), index version %s\n", len(idx.Characters), idx.RepositoryVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a character and its stored files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, closeLib, err := ctx.openLibrary(cmd, nil)
			if err != nil {
				return err
			}
			defer closeLib()

			removed, err := lib.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", removed.ID, removed.Name)
			return nil
		},
	}
}

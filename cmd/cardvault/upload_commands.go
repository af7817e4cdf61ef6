package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cardvault/internal/library"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check character card PNGs without importing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}
			lib, closeLib, err := ctx.openLibrary(cmd, nil)
			if err != nil {
				return err
			}
			defer closeLib()

			results, err := lib.ValidateBatch(cmd.Context(), uploads)
			if err != nil {
				return err
			}
			invalid := 0
			for _, v := range results {
				if !v.Valid() {
					invalid++
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Validation", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, v := range results {
					for _, line := range renderValidation(v, colorize) {
						fmt.Fprintln(out, line)
					}
				}
				fmt.Fprintf(out, "\n%d valid, %d invalid\n", len(results)-invalid, invalid)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d file(s) invalid", invalid, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Add character card PNGs to the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}
			lib, closeLib, err := ctx.openLibrary(cmd, nil)
			if err != nil {
				return err
			}
			defer closeLib()

			result, err := lib.UploadBatch(cmd.Context(), uploads)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([]library.FileResult, 0, result.Total)
				rows = append(rows, result.Successful...)
				rows = append(rows, result.Failed...)
				rows = append(rows, result.Skipped...)
				for _, r := range rows {
					lines := renderValidation(r.Validation, colorize)
					if r.CharacterID != "" {
						lines[0] += " -> " + r.CharacterID
					}
					for _, line := range lines {
						fmt.Fprintln(out, line)
					}
				}
				fmt.Fprintln(out, result.Message())
			}
			if n := len(result.Failed) + len(result.Skipped); n > 0 {
				return fmt.Errorf("%d of %d file(s) failed to import", n, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// readUploads loads each path as an upload. The content type is left empty so
// the PNG signature decides.
func readUploads(paths []string) ([]library.Upload, error) {
	uploads := make([]library.Upload, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		uploads = append(uploads, library.Upload{FileName: filepath.Base(path), Data: data})
	}
	return uploads, nil
}

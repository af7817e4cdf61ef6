package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardvault/internal/fileutil"
	"cardvault/internal/pngchunk"
)

func newStripCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "strip IN OUT",
		Short:       "Write a copy of a PNG with all metadata chunks removed",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			stripped, err := pngchunk.StripMetadata(data)
			if err != nil {
				return fmt.Errorf("strip %s: %w", in, err)
			}
			if err := fileutil.WriteFileAtomic(out, stripped, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d -> %d bytes)\n", out, len(data), len(stripped))
			return nil
		},
	}
}

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cardvault/internal/charcard"
	"cardvault/internal/pngchunk"
)

type chunkView struct {
	Type   string `json:"type"`
	Length uint32 `json:"length"`
	CRC    string `json:"crc"`
}

type inspectReport struct {
	File     string         `json:"file"`
	Chunks   []chunkView    `json:"chunks"`
	Keywords map[string]int `json:"keywords"`
	Keyword  string         `json:"keyword,omitempty"`
	Strategy string         `json:"strategy,omitempty"`
	Avatar   bool           `json:"embeddedAvatar"`
	Card     *charcard.Card `json:"card,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func newInspectCommand() *cobra.Command {
	var jsonOutput bool
	var ascii bool

	cmd := &cobra.Command{
		Use:         "inspect FILE...",
		Short:       "Show the chunks, text keywords, and card payload of PNG files",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []pngchunk.TextOption
			if ascii {
				opts = append(opts, pngchunk.WithASCII())
			}

			reports := make([]inspectReport, 0, len(args))
			for _, path := range args {
				report, err := inspectFile(path, opts)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}

			if jsonOutput {
				return writeJSON(cmd, reports)
			}
			out := cmd.OutOrStdout()
			for i, report := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, renderInspectReport(report))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "Decode tEXt chunks as 7-bit ASCII instead of Latin-1")
	return cmd
}

// inspectFile returns an error only when path cannot be read. PNG and payload
// problems are recorded in the report.
func inspectFile(path string, opts []pngchunk.TextOption) (inspectReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return inspectReport{}, fmt.Errorf("read %s: %w", path, err)
	}
	report := inspectReport{File: filepath.Base(path), Keywords: map[string]int{}}

	extracted, err := charcard.FromPNG(data, opts...)
	if extracted != nil {
		for _, c := range extracted.Chunks {
			report.Chunks = append(report.Chunks, chunkView{Type: c.Type, Length: c.Length, CRC: hex.EncodeToString(c.CRC[:])})
		}
		for keyword, value := range extracted.Text {
			report.Keywords[keyword] = len(value)
		}
		_, report.Avatar = charcard.EmbeddedAvatar(extracted.Text)
		report.Keyword = extracted.Keyword
		report.Strategy = extracted.Strategy
		report.Card = extracted.Card
	}
	if err != nil {
		report.Error = describeCardError(err)
	}
	return report, nil
}

func describeCardError(err error) string {
	var formatErr *pngchunk.FormatError
	switch {
	case errors.As(err, &formatErr):
		return formatErr.Error()
	case errors.Is(err, charcard.ErrMissingPayload):
		return "no character card payload"
	default:
		return err.Error()
	}
}

func renderInspectReport(r inspectReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", r.File)

	if len(r.Chunks) > 0 {
		rows := make([][]string, 0, len(r.Chunks))
		for i, c := range r.Chunks {
			rows = append(rows, []string{strconv.Itoa(i), c.Type, strconv.FormatUint(uint64(c.Length), 10), c.CRC})
		}
		b.WriteString(renderTable([]string{"#", "Type", "Length", "CRC"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
		b.WriteString("\n")
	}

	if len(r.Keywords) > 0 {
		keys := make([]string, 0, len(r.Keywords))
		for k := range r.Keywords {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Text keywords:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s (%d chars)\n", k, r.Keywords[k])
		}
	}

	fmt.Fprintf(&b, "Embedded avatar: %s\n", yesNo(r.Avatar))
	if r.Error != "" {
		fmt.Fprintf(&b, "Card: %s\n", r.Error)
		return b.String()
	}
	if r.Card != nil {
		d := r.Card.Data
		fmt.Fprintf(&b, "Card: %s (keyword %s, %s)\n", r.Card.Spec, r.Keyword, r.Strategy)
		fmt.Fprintf(&b, "  Name:        %s\n", d.Name)
		fmt.Fprintf(&b, "  Creator:     %s\n", d.Creator)
		fmt.Fprintf(&b, "  Version:     %s\n", d.CharacterVersion)
		fmt.Fprintf(&b, "  Tags:        %s\n", strings.Join(d.Tags, ", "))
		fmt.Fprintf(&b, "  Description: %s\n", truncate(d.Description, 120))
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

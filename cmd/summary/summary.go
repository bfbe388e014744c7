package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/app"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Command creates the command that prints category counts for a method.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var (
		method  string
		format  string
		methods bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print planet counts per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Dataset.Watch = false

			a, err := app.New(settings, build)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.Dashboard.Start(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if methods {
				snap, err := a.Dashboard.Snapshot(ctx)
				if err != nil {
					return err
				}
				for _, m := range snap.Methods() {
					fmt.Fprintln(out, m)
				}
				return nil
			}

			s, _, err := a.Dashboard.Summary(ctx, method)
			if err != nil {
				return err
			}
			return Write(out, s, format)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", dataset.AllMethods, "Detection method to summarize")
	cmd.Flags().StringVarP(&format, "format", "o", FormatTable, "Output format: table, json")
	cmd.Flags().BoolVar(&methods, "methods", false, "List the detection methods instead")

	return cmd
}

// Write prints s in the given format.
func Write(w io.Writer, s aggregate.Summary, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatTable:
		return writeTable(w, s)
	default:
		return errors.Newf("unknown output format %q", format).
			Category(errors.CategoryValidation).
			Build()
	}
}

func writeTable(w io.Writer, s aggregate.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Method: %s\n\n", s.Method)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tSHARE")
	for _, e := range s.Entries {
		share := e.ShareLabel()
		if e.Category == classify.Unclassified {
			share = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Label, e.Count, share)
	}
	fmt.Fprintf(tw, "Total\t%d\t\n\n", s.Total)
	for _, line := range classify.Rules() {
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

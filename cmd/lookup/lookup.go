package lookup

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exodash/exodash/internal/app"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/errors"
)

// Command creates the command that prints one planet by name.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "lookup [planet name]",
		Short: "Print a planet by name",
		Long:  "Look a planet up by name, ignoring case and surrounding spaces.",
		Args:  cobra.ExactArgs(1),
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
			snap, err := a.Dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}

			rec, ok := snap.Lookup(args[0])
			if !ok {
				return errors.Newf("planet %q not found", args[0]).
					Category(errors.CategoryNotFound).
					Context("name", args[0]).
					Build()
			}

			out := cmd.OutOrStdout()
			if len(fields) == 0 {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			for _, column := range fields {
				v, err := snap.Field(rec, column)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %v\n", v.Column, v.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&fields, "field", nil, "Print only these columns")

	return cmd
}

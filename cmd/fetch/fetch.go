package fetch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exodash/exodash/internal/app"
	"github.com/exodash/exodash/internal/archive"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/conf"
)

// Command creates the command that brings the local snapshot up to date.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the archive table if the snapshot is not from today",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Dataset.Watch = false

			a, err := app.New(settings, build)
			if err != nil {
				return err
			}
			defer a.Close()

			var res archive.Result
			if force {
				res, err = a.Dashboard.Refresh(cmd.Context())
			} else {
				err = a.Dashboard.Start(cmd.Context())
				res = a.Dashboard.LastFetch()
			}

			for _, msg := range res.Messages {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Download even if the snapshot is from today")

	return cmd
}

package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/exodash/exodash/internal/app"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/conf"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/httpcontroller"
	"github.com/exodash/exodash/internal/observability"
)

// Command creates the command that runs the dashboard web server.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Long:  "Check the archive snapshot, then serve the dashboard and its API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !settings.WebServer.Enabled {
				return errors.Newf("web server is disabled in the configuration").
					Category(errors.CategoryConfiguration).
					Build()
			}

			a, err := app.New(settings, build)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.Dashboard.Start(ctx); err != nil {
				return err
			}

			var m *observability.Metrics
			if settings.Metrics.Enabled {
				m = a.Metrics
			}
			srv, err := httpcontroller.New(settings, a.Dashboard, m)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Interface to listen on")
	cmd.Flags().IntVarP(&settings.WebServer.Port, "port", "p", viper.GetInt("webserver.port"), "Port to listen on")
	cmd.Flags().StringVar(&settings.WebServer.ImagesDir, "images", viper.GetString("webserver.imagesdir"), "Directory holding <method>.png images")

	bindings := map[string]string{
		"webserver.host":      "host",
		"webserver.port":      "port",
		"webserver.imagesdir": "images",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

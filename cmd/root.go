package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/exodash/exodash/cmd/config"
	"github.com/exodash/exodash/cmd/export"
	"github.com/exodash/exodash/cmd/fetch"
	"github.com/exodash/exodash/cmd/lookup"
	"github.com/exodash/exodash/cmd/serve"
	"github.com/exodash/exodash/cmd/summary"
	"github.com/exodash/exodash/cmd/version"
	"github.com/exodash/exodash/internal/buildinfo"
	"github.com/exodash/exodash/internal/conf"
)

// ConfigFlag names the flag main inspects before settings are loaded.
const ConfigFlag = "config"

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "exodash",
		Short:         "Exoplanet population dashboard",
		Long:          "Keeps a daily snapshot of the NASA Exoplanet Archive planetary systems table and serves category statistics for it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		return nil, err
	}

	subcommands := []*cobra.Command{
		serve.Command(settings, build),
		fetch.Command(settings, build),
		summary.Command(settings, build),
		lookup.Command(settings, build),
		export.Command(settings, build),
		config.Command(settings),
		version.Command(build),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	flags := rootCmd.PersistentFlags()
	flags.String(ConfigFlag, "", "Path to the configuration file")
	flags.BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	flags.StringVar(&settings.Dataset.SnapshotPath, "snapshot", viper.GetString("dataset.snapshotpath"), "Path of the local archive snapshot")
	flags.StringVar(&settings.Archive.URL, "url", viper.GetString("archive.url"), "Archive table download URL")

	bindings := map[string]string{
		"debug":                "debug",
		"dataset.snapshotpath": "snapshot",
		"archive.url":          "url",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	return nil
}

package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/exodash/exodash/internal/conf"
)

// Command creates the command that prints or saves the effective settings.
func Command(settings *conf.Settings) *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults, the config file, environment variables and flags are applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if save != "" {
				if err := conf.SaveYAMLConfig(save, settings); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved configuration to %s\n", save)
				return nil
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return fmt.Errorf("error encoding settings: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the configuration to this file instead of printing it")

	return cmd
}

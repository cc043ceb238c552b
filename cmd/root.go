package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coralwatch/coralwatch-go/cmd/serve"
	"github.com/coralwatch/coralwatch-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coralwatch",
		Short: "CoralWatch coral colony tracking server",
		Long:  "Track individual coral colonies across dive sites over time and monitor SCTLD progression from uploaded observation photos.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		// flag setup failing means the binary is unusable
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(serve.Command(settings))

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.PersistentFlags().BoolVar(&settings.Debug, "debug", viper.GetBool("debug"), "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", viper.GetString("output.sqlite.path"), "Path to the SQLite database file")
	cmd.PersistentFlags().StringVar(&settings.Upload.Path, "uploads", viper.GetString("upload.path"), "Directory where uploaded images are stored")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

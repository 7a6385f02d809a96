// Package cli implements the zoebot command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/zoebot/internal/config"
	"github.com/soyeahso/zoebot/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zoebot",
		Short: "zoebot, a voice assistant for your Renault Zoe",
		Long: "zoebot answers Dialogflow fulfillment calls with the battery, climate and " +
			"odometer state of a Renault Zoe, in Swedish.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			log = logging.New(nil, effectiveLevel("info"))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.zoebot/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIntentCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// effectiveLevel prefers the --log-level flag over fallback.
func effectiveLevel(fallback string) string {
	if logLevel != "" {
		return logLevel
	}
	return fallback
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

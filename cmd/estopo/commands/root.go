// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logDev     bool
}

var global globalFlags

// Root returns the root command for the estopo CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "estopo",
		Short:         "Plan and roll out Elasticsearch node topologies on Kubernetes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.Setup(logging.Options{
				Level:       global.logLevel,
				Development: global.logDev,
			})
			if err != nil {
				return err
			}
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&global.configPath, "config", "c", "", "Path to configuration file (default: estopo.yaml)")
	cmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&global.logDev, "log-dev", false, "Human readable log output")

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Certs())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

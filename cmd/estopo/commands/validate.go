package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/cmd/estopo/handlers"
)

// Validate returns the command that checks a configuration offline.
func Validate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and topology",
		Long: `Validate the configuration and topology without contacting the cluster.

Every problem is reported at once. On success the resolved node groups
and the derived cluster settings are printed.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Validate(global.configPath)
		},
	}
}

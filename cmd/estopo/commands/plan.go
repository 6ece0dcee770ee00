package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/cmd/estopo/handlers"
)

// Plan returns the command that prints the actions of a pass without
// applying them.
func Plan() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change",
		Long: `Show what apply would change.

Certificates are provisioned (they are reused by the next apply), the
units are planned and compared with the namespace. Nothing is created
or updated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), global.configPath, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, yaml, json)")

	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/cmd/estopo/handlers"
	"github.com/imamik/estopo/internal/config"
)

// Init returns the command for interactively creating a configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "estopo.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration",
		Long: `Interactively create a configuration file.

The wizard asks for the cluster name, namespace, image, number of data
nodes and where certificates are kept. The result uses the cluster-size
shorthand: one data group per node and min(size, 3) masters.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", config.DefaultConfigFilename, "Output file path")

	return cmd
}

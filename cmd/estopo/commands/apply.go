package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/estopo/cmd/estopo/handlers"
)

// Apply returns the command that runs one reconciliation pass.
//
// Optional flags:
//
//	--dry-run: apply against an in-memory copy of the observed units
//	--rotate: issue new certificates before planning
//	--output, -o: report format (text, yaml, json)
//	--pushgateway: push pass metrics to this Pushgateway URL
//	--no-tui: disable the live view on interactive terminals
//
// Environment variables:
//
//	ESTOPO_TIMEOUT_PASS: deadline of the whole pass (default 30m)
//	ESTOPO_TIMEOUT_READY: how long to wait for master quorum (default 10m)
func Apply() *cobra.Command {
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the cluster's node groups",
		Long: `Create or update the cluster's node groups.

The pass provisions certificates, plans one StatefulSet per node group,
compares the plan with what runs in the namespace and applies the
difference tier by tier: masters first, then client nodes, then data
nodes. Units that exist but are no longer planned are reported as
orphans and never deleted.

If no config file is specified, it looks for estopo.yaml in the current
directory or its parents. Use 'estopo init' to create one.

Examples:
  # Apply using estopo.yaml
  estopo apply

  # See what a pass would do, without touching the cluster
  estopo apply --dry-run

  # Rotate certificates and roll every unit
  estopo apply --rotate

  # Machine readable report
  estopo apply -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath = global.configPath
			return handlers.Apply(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Apply against an in-memory copy of the cluster")
	cmd.Flags().BoolVar(&opts.Rotate, "rotate", false, "Issue new certificates before planning")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Report format (text, yaml, json)")
	cmd.Flags().StringVar(&opts.Pushgateway, "pushgateway", "", "Push pass metrics to this Pushgateway URL")
	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Disable the live view")

	return cmd
}

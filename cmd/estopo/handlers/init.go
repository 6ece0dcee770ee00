package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/estopo/internal/config"
	"github.com/imamik/estopo/internal/topology"
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Fprintf(stdout, "Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return err
	}

	cfg := result.ToConfig()
	if err := saveConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, result)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	out := stdout
	fmt.Fprintln(out)
	fmt.Fprintln(out, "estopo - Elasticsearch topologies on Kubernetes")
	fmt.Fprintln(out, "===============================================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This wizard creates a configuration from a cluster size.")
	fmt.Fprintln(out, "Edit the topology section afterwards for dedicated client nodes or custom limits.")
	fmt.Fprintln(out)
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, r *config.WizardResult) {
	out := stdout
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved!")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  File: %s\n", outputPath)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Cluster Summary")
	fmt.Fprintln(out, "---------------")
	fmt.Fprintf(out, "  Name:         %s\n", r.Cluster)
	fmt.Fprintf(out, "  Namespace:    %s\n", r.Namespace)
	fmt.Fprintf(out, "  Masters:      %d\n", min(r.ClusterSize, topology.MaxSimpleMasters))
	fmt.Fprintf(out, "  Data nodes:   %d\n", r.ClusterSize)
	fmt.Fprintf(out, "  Certificates: %s store\n", r.Store)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Next Steps")
	fmt.Fprintln(out, "----------")
	if r.Store == config.StoreS3 {
		fmt.Fprintln(out, "  0. Export ESTOPO_S3_ACCESS_KEY and ESTOPO_S3_SECRET_KEY")
	}
	fmt.Fprintf(out, "  1. Review %s if needed\n", outputPath)
	fmt.Fprintln(out, "  2. Check the plan:")
	fmt.Fprintln(out, "     estopo plan")
	fmt.Fprintln(out, "  3. Roll it out:")
	fmt.Fprintln(out, "     estopo apply")
	fmt.Fprintln(out)
}

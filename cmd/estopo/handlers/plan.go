package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/estopo/internal/ui/report"
)

// Plan prints the actions an apply would take. Certificates it needs to
// generate stay in memory.
func Plan(ctx context.Context, configPath, output string) error {
	format, err := report.ParseFormat(output)
	if err != nil {
		return err
	}

	env, err := newEnvironment(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := env.pipeline().Plan(ctx, env.request(false, true))
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	return report.WritePlan(stdout, env.cfg.Cluster, env.cfg.Namespace, res.Actions, format)
}

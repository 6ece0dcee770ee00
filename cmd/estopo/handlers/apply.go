package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/pipeline"
	"github.com/imamik/estopo/internal/ui/report"
	"github.com/imamik/estopo/internal/ui/tui"
)

// pushTimeout bounds the metrics push after a pass.
const pushTimeout = 10 * time.Second

// ApplyOptions are the flags of the apply command.
type ApplyOptions struct {
	ConfigPath  string
	DryRun      bool
	Rotate      bool
	Output      string
	Pushgateway string
	NoTUI       bool
}

// Apply runs one reconciliation pass and prints its report.
//
// The pass is bounded by ESTOPO_TIMEOUT_PASS. A report is printed whenever
// the pass got as far as applying, including partial failures and
// timeouts. The returned error is non-nil if any unit failed, was skipped
// because of a failed dependency, or was abandoned at the deadline.
func Apply(ctx context.Context, opts ApplyOptions) error {
	format, err := report.ParseFormat(opts.Output)
	if err != nil {
		return err
	}

	env, err := newEnvironment(ctx, opts.ConfigPath, true)
	if err != nil {
		return err
	}
	defer env.Close()

	passCtx, cancel := context.WithTimeout(ctx, env.timeouts.Pass)
	defer cancel()

	req := env.request(opts.Rotate, opts.DryRun)

	var rep *apply.Report
	if format == report.FormatText && !opts.NoTUI && isInteractive() {
		rep, err = runApplyTUI(passCtx, func(ctx context.Context, obs tui.Observers) (*apply.Report, error) {
			p := env.pipeline(
				pipeline.WithStageObserver(obs.Stage),
				pipeline.WithApplyOptions(apply.WithObserver(obs.Unit)),
			)
			res, err := p.Run(ctx, req)
			return reportOf(res), err
		}, env.cfg.Cluster, env.cfg.Namespace, opts.DryRun)
	} else {
		var res *pipeline.Result
		res, err = env.pipeline().Run(passCtx, req)
		rep = reportOf(res)
	}

	if rep != nil {
		if werr := report.Write(stdout, rep, format); werr != nil {
			return fmt.Errorf("failed to write report: %w", werr)
		}
	}

	pushMetrics(ctx, env, opts)

	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	return nil
}

func reportOf(res *pipeline.Result) *apply.Report {
	if res == nil {
		return nil
	}
	return res.Report
}

// pushMetrics pushes the pass metrics when a Pushgateway is configured.
// Push failures are logged and do not fail the pass.
func pushMetrics(ctx context.Context, env *environment, opts ApplyOptions) {
	url := opts.Pushgateway
	if url == "" {
		url = env.cfg.Metrics.Pushgateway
	}
	if url == "" || opts.DryRun {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	if err := env.metrics.Push(ctx, url, env.cfg.Metrics.Job); err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to push metrics", "url", url)
	}
}

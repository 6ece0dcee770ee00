package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/platform/memory"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/topology"
)

// Request is the input of one pass.
type Request struct {
	Topology  *topology.Topology
	Cluster   string
	Namespace string
	Image     string
	Labels    map[string]string

	// Rotate forces new certificate material.
	Rotate bool

	// DryRun applies against an in-memory copy of the observed state.
	DryRun bool
}

func (r Request) validate() error {
	var errs []error
	if r.Topology == nil {
		errs = append(errs, errors.New("topology is required"))
	}
	if r.Cluster == "" {
		errs = append(errs, errors.New("cluster is required"))
	}
	if r.Namespace == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	return errors.Join(errs...)
}

// Result carries every intermediate product of a pass.
type Result struct {
	RunID   string
	Bundle  *certs.Bundle
	Units   []plan.Unit
	Actions []reconcile.Action

	// Report is nil when the pass aborted before applying.
	Report *apply.Report
}

// Stage is a step of a pass.
type Stage string

const (
	StageCertificates Stage = "certificates"
	StagePlan         Stage = "plan"
	StageObserve      Stage = "observe"
	StageApply        Stage = "apply"
)

// Stages returns the stages of a full pass in order.
func Stages() []Stage {
	return []Stage{StageCertificates, StagePlan, StageObserve, StageApply}
}

// StageEvent reports the start (Done false) or end of a stage.
type StageEvent struct {
	Stage Stage
	Done  bool
	Err   error
}

// Pipeline wires the provisioner, planner, reconciler and applier.
type Pipeline struct {
	provisioner *certs.Provisioner
	platform    apply.Platform
	applyOpts   []apply.Option
	metrics     *Metrics
	newRunID    func() string
	onStage     func(StageEvent)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithApplyOptions passes options to the applier of each pass.
func WithApplyOptions(opts ...apply.Option) Option {
	return func(p *Pipeline) {
		p.applyOpts = append(p.applyOpts, opts...)
	}
}

// WithMetrics records pass metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) Option {
	return func(p *Pipeline) {
		p.newRunID = fn
	}
}

// WithStageObserver registers fn to receive stage progress.
func WithStageObserver(fn func(StageEvent)) Option {
	return func(p *Pipeline) {
		p.onStage = fn
	}
}

// New creates a Pipeline.
func New(provisioner *certs.Provisioner, platform apply.Platform, opts ...Option) *Pipeline {
	p := &Pipeline{
		provisioner: provisioner,
		platform:    platform,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan provisions certificates, plans units and diffs them against the
// platform without applying anything.
func (p *Pipeline) Plan(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	res := &Result{RunID: p.newRunID()}
	logger := logr.FromContextOrDiscard(ctx).WithValues("run", res.RunID, "cluster", req.Cluster)
	ctx = logr.NewContext(ctx, logger)

	var opts []certs.Option
	if req.Rotate {
		opts = append(opts, certs.WithRotation())
	}
	if req.DryRun {
		opts = append(opts, certs.WithDryRun())
	}
	p.stage(StageCertificates, false, nil)
	bundle, err := p.provisioner.Provision(ctx, req.Cluster, req.Topology.Roles(), opts...)
	p.stage(StageCertificates, true, err)
	if err != nil {
		p.aborted(req.Cluster)
		return res, fmt.Errorf("failed to provision certificates: %w", err)
	}
	res.Bundle = bundle

	p.stage(StagePlan, false, nil)
	units, err := plan.Plan(req.Topology, bundle, plan.Options{
		Cluster: req.Cluster,
		Image:   req.Image,
		Labels:  req.Labels,
	})
	p.stage(StagePlan, true, err)
	if err != nil {
		p.aborted(req.Cluster)
		return res, fmt.Errorf("failed to plan units: %w", err)
	}
	res.Units = units

	p.stage(StageObserve, false, nil)
	observed, err := p.platform.CurrentState(ctx, req.Namespace)
	p.stage(StageObserve, true, err)
	if err != nil {
		p.aborted(req.Cluster)
		return res, fmt.Errorf("failed to read current state: %w", err)
	}
	res.Actions = reconcile.Diff(units, observed)

	summary := reconcile.Summary(res.Actions)
	logger.Info("Planned pass",
		"units", len(units),
		"create", summary[reconcile.KindCreate],
		"update", summary[reconcile.KindUpdate],
		"noop", summary[reconcile.KindNoOp],
		"orphan", summary[reconcile.KindOrphan])

	return res, nil
}

// Run executes a full pass. The returned error is the report's error when
// the pass got as far as applying.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := p.Plan(ctx, req)
	if err != nil {
		return res, err
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("run", res.RunID, "cluster", req.Cluster)
	ctx = logr.NewContext(ctx, logger)

	p.stage(StageApply, false, nil)

	target := p.platform
	if req.DryRun {
		target, err = p.dryRunPlatform(ctx, req.Namespace)
		if err != nil {
			p.stage(StageApply, true, err)
			return res, err
		}
	}

	if publisher, ok := target.(apply.CertificatePublisher); ok {
		if err := publisher.PublishCertificates(ctx, req.Namespace, res.Bundle); err != nil {
			p.aborted(req.Cluster)
			err = fmt.Errorf("failed to publish certificates: %w", err)
			p.stage(StageApply, true, err)
			return res, err
		}
	}

	report := apply.New(target, p.applyOpts...).Apply(ctx, req.Namespace, res.Actions)
	report.RunID = res.RunID
	report.Cluster = req.Cluster
	report.DryRun = req.DryRun
	res.Report = report

	if p.metrics != nil && !req.DryRun {
		p.metrics.ObserveReport(req.Cluster, report)
	}

	counts := report.Counts()
	logger.Info("Pass finished",
		"duration", report.Duration().String(),
		"created", counts[apply.OutcomeCreated],
		"updated", counts[apply.OutcomeUpdated],
		"failed", counts[apply.OutcomeFailed],
		"skipped", counts[apply.OutcomeSkipped])

	err = report.Err()
	p.stage(StageApply, true, err)
	return res, err
}

func (p *Pipeline) stage(s Stage, done bool, err error) {
	if p.onStage != nil {
		p.onStage(StageEvent{Stage: s, Done: done, Err: err})
	}
}

func (p *Pipeline) dryRunPlatform(ctx context.Context, namespace string) (*memory.Platform, error) {
	observed, err := p.platform.CurrentState(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to read current state: %w", err)
	}
	sim := memory.New()
	for _, s := range observed {
		sim.Seed(namespace, s)
	}
	return sim, nil
}

func (p *Pipeline) aborted(cluster string) {
	if p.metrics != nil {
		p.metrics.ObservePass(cluster, ResultAborted)
	}
}

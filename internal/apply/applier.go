package apply

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/util/async"
	"github.com/imamik/estopo/internal/util/retry"
)

// Defaults for an Applier.
const (
	DefaultParallelism  = 4
	DefaultMaxRetries   = 4
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 15 * time.Second
	DefaultReadyTimeout = 10 * time.Minute
	DefaultPollInterval = 5 * time.Second
)

// EventType classifies an Event.
type EventType string

const (
	EventStarted  EventType = "Started"
	EventRetrying EventType = "Retrying"
	EventWaiting  EventType = "Waiting"
	EventFinished EventType = "Finished"
)

// Event reports progress of a single unit. Observers may be called from
// several goroutines at once.
type Event struct {
	Type    EventType
	Unit    string
	Tier    int
	Attempt int
	Outcome Outcome
	Err     error
}

// Applier executes reconciliation actions against a Platform.
type Applier struct {
	platform     Platform
	clock        clock.PassiveClock
	parallelism  int
	retryOpts    []retry.Option
	waitMasters  bool
	readyTimeout time.Duration
	pollInterval time.Duration
	observer     func(Event)
}

// Option configures an Applier.
type Option func(*Applier)

// WithParallelism bounds the number of concurrent units per tier. Zero or
// less runs a whole tier at once.
func WithParallelism(n int) Option {
	return func(a *Applier) {
		a.parallelism = n
	}
}

// WithRetry overrides the backoff used for transient errors.
func WithRetry(opts ...retry.Option) Option {
	return func(a *Applier) {
		a.retryOpts = append(a.retryOpts, opts...)
	}
}

// WithMasterReadiness enables or disables the quorum gate after the master
// tier. It has no effect on platforms that do not implement
// ReadinessChecker.
func WithMasterReadiness(enabled bool, timeout, interval time.Duration) Option {
	return func(a *Applier) {
		a.waitMasters = enabled
		if timeout > 0 {
			a.readyTimeout = timeout
		}
		if interval > 0 {
			a.pollInterval = interval
		}
	}
}

// WithObserver registers a progress callback.
func WithObserver(fn func(Event)) Option {
	return func(a *Applier) {
		a.observer = fn
	}
}

// WithClock sets the clock used for report timings.
func WithClock(c clock.PassiveClock) Option {
	return func(a *Applier) {
		a.clock = c
	}
}

// New creates an Applier for the platform.
func New(platform Platform, opts ...Option) *Applier {
	a := &Applier{
		platform:    platform,
		clock:       clock.RealClock{},
		parallelism: DefaultParallelism,
		retryOpts: []retry.Option{
			retry.WithMaxRetries(DefaultMaxRetries),
			retry.WithInitialDelay(DefaultInitialDelay),
			retry.WithMaxDelay(DefaultMaxDelay),
		},
		waitMasters:  true,
		readyTimeout: DefaultReadyTimeout,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply executes the actions and returns a report listing every one of
// them. It never returns nil; inspect Report.Err for failures.
func (a *Applier) Apply(ctx context.Context, namespace string, actions []reconcile.Action) *Report {
	logger := logr.FromContextOrDiscard(ctx).WithValues("namespace", namespace)

	report := &Report{
		Namespace: namespace,
		StartedAt: a.clock.Now(),
		Units:     make([]UnitResult, len(actions)),
	}

	tiers := make(map[int][]int)
	var masters []*plan.Unit
	for i, act := range actions {
		report.Units[i] = UnitResult{
			Unit:    act.Name(),
			Role:    act.Role(),
			Tier:    act.Tier(),
			Action:  act.Kind,
			Changes: act.Changes,
		}
		if act.Unit != nil && act.Unit.IsMaster() {
			masters = append(masters, act.Unit)
		}

		switch act.Kind {
		case reconcile.KindOrphan:
			logger.Info("Unit is not part of the topology, leaving it in place", "unit", act.Name())
			a.finish(&report.Units[i], OutcomeOrphan, reconcile.PhaseOrphaned, act.Current, nil)
		case reconcile.KindNoOp:
			a.finish(&report.Units[i], OutcomeNoOp, reconcile.PhaseReady, act.Current, nil)
		default:
			tiers[act.Tier()] = append(tiers[act.Tier()], i)
		}
	}

	order := make([]int, 0, len(tiers))
	for tier := range tiers {
		order = append(order, tier)
	}
	sort.Ints(order)

	var blocked error
	for _, tier := range order {
		indices := tiers[tier]

		if err := ctx.Err(); err != nil {
			for _, i := range indices {
				a.abandon(&report.Units[i], actions[i], err)
			}
			continue
		}
		if blocked != nil {
			for _, i := range indices {
				a.skip(&report.Units[i], actions[i], blocked)
			}
			continue
		}

		logger.V(1).Info("Applying tier", "tier", tier, "units", len(indices))
		a.runTier(ctx, namespace, actions, indices, report.Units)

		if tier != plan.TierMaster {
			continue
		}
		for _, i := range indices {
			if report.Units[i].Outcome == OutcomeFailed {
				blocked = fmt.Errorf("%w: master unit %s", ErrDependencyFailed, report.Units[i].Unit)
				break
			}
		}
		if blocked == nil && ctx.Err() == nil {
			if err := a.awaitMasters(ctx, namespace, masters); err != nil && ctx.Err() == nil {
				logger.Error(err, "Masters not ready, skipping dependent tiers")
				blocked = err
			}
		}
	}

	report.FinishedAt = a.clock.Now()

	if err := ctx.Err(); err != nil {
		var abandoned []string
		for _, u := range report.Units {
			if u.Outcome == OutcomeSkipped && !isApplyError(u.Err) {
				abandoned = append(abandoned, u.Unit)
			}
		}
		if len(abandoned) > 0 {
			report.Timeout = &TimeoutError{Abandoned: abandoned, Err: err}
			logger.Error(report.Timeout, "Pass did not finish")
		}
	}

	return report
}

func (a *Applier) runTier(ctx context.Context, namespace string, actions []reconcile.Action, indices []int, results []UnitResult) {
	tasks := make([]async.Task, len(indices))
	for n, i := range indices {
		tasks[n] = async.Task{
			Name: actions[i].Name(),
			Func: func(ctx context.Context) error {
				a.applyOne(ctx, namespace, actions[i], &results[i])
				return results[i].Err
			},
		}
	}

	for n, res := range async.RunParallel(ctx, tasks, a.parallelism) {
		i := indices[n]
		if results[i].Outcome == "" {
			// Never started: the context ended while waiting for a slot.
			a.abandon(&results[i], actions[i], res.Err)
		}
	}
}

func (a *Applier) applyOne(ctx context.Context, namespace string, act reconcile.Action, res *UnitResult) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("unit", act.Name(), "role", act.Role())
	if err := ctx.Err(); err != nil {
		a.abandon(res, act, err)
		return
	}

	_, to := act.Transition()
	started := a.clock.Now()
	a.emit(Event{Type: EventStarted, Unit: res.Unit, Tier: res.Tier})
	logger.Info("Applying unit", "action", act.Kind)

	var (
		state   reconcile.UnitState
		lastErr error
	)
	op := func(int) error {
		var err error
		switch act.Kind {
		case reconcile.KindCreate:
			state, err = a.platform.Create(ctx, namespace, *act.Unit)
		case reconcile.KindUpdate:
			state, err = a.platform.Update(ctx, namespace, *act.Unit, *act.Current)
		default:
			return retry.Fatal(fmt.Errorf("unsupported action %s", act.Kind))
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsTransient(err) {
			return retry.Fatal(err)
		}
		return err
	}

	opts := append([]retry.Option{}, a.retryOpts...)
	opts = append(opts, retry.WithOnRetry(func(attempt int, err error) {
		logger.V(1).Info("Transient platform error, retrying", "attempt", attempt, "error", err.Error())
		a.emit(Event{Type: EventRetrying, Unit: res.Unit, Tier: res.Tier, Attempt: attempt, Err: err})
	}))

	attempts, err := retry.Do(ctx, op, opts...)
	res.Attempts = attempts
	res.Duration = a.clock.Since(started)

	switch {
	case err == nil:
		outcome := OutcomeCreated
		if act.Kind == reconcile.KindUpdate {
			outcome = OutcomeUpdated
		}
		logger.Info("Unit applied", "outcome", outcome, "attempts", attempts)
		a.finish(res, outcome, to.Settle(true), &state, nil)
	case ctx.Err() != nil:
		a.abandon(res, act, ctx.Err())
	default:
		if lastErr == nil {
			lastErr = err
		}
		applyErr := &ApplyError{Unit: res.Unit, Role: res.Role, Attempts: attempts, Err: lastErr}
		logger.Error(applyErr, "Unit failed")
		a.finish(res, OutcomeFailed, to.Settle(false), act.Current, applyErr)
	}
}

// awaitMasters blocks until the ready master replicas reach quorum, capped
// at the number of master replicas planned.
func (a *Applier) awaitMasters(ctx context.Context, namespace string, masters []*plan.Unit) error {
	checker, ok := a.platform.(ReadinessChecker)
	if !ok || !a.waitMasters || len(masters) == 0 {
		return nil
	}

	var total int32
	for _, m := range masters {
		total += m.Replicas
	}
	need := min(masters[0].Settings.MastersQuorum, total)
	if need <= 0 {
		return nil
	}

	for _, m := range masters {
		a.emit(Event{Type: EventWaiting, Unit: m.Name, Tier: m.Tier})
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.readyTimeout)
	defer cancel()

	var ready int32
	err := wait.PollUntilContextCancel(waitCtx, a.pollInterval, true, func(ctx context.Context) (bool, error) {
		ready = 0
		for _, m := range masters {
			n, err := checker.ReadyReplicas(ctx, namespace, m.Name)
			if err != nil {
				if IsTransient(err) {
					return false, nil
				}
				return false, err
			}
			ready += n
		}
		return ready >= need, nil
	})
	if err != nil {
		return fmt.Errorf("%w (%d/%d ready): %w", ErrMastersNotReady, ready, need, err)
	}
	return nil
}

func (a *Applier) skip(res *UnitResult, act reconcile.Action, cause error) {
	from, _ := act.Transition()
	a.finish(res, OutcomeSkipped, from, act.Current, &ApplyError{Unit: res.Unit, Role: res.Role, Err: cause})
}

func (a *Applier) abandon(res *UnitResult, act reconcile.Action, cause error) {
	if cause == nil {
		cause = context.Canceled
	}
	from, _ := act.Transition()
	a.finish(res, OutcomeSkipped, from, act.Current, cause)
}

func (a *Applier) finish(res *UnitResult, outcome Outcome, phase reconcile.Phase, state *reconcile.UnitState, err error) {
	res.Outcome = outcome
	res.Phase = phase
	res.State = state
	res.Err = err
	if err != nil {
		res.Error = err.Error()
	}
	a.emit(Event{Type: EventFinished, Unit: res.Unit, Tier: res.Tier, Attempt: res.Attempts, Outcome: outcome, Err: err})
}

func (a *Applier) emit(e Event) {
	if a.observer != nil {
		a.observer(e)
	}
}

func isApplyError(err error) bool {
	var ae *ApplyError
	return errors.As(err, &ae)
}

package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
)

// Op names a platform call.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpPublish Op = "publish"
)

// Call records one mutating call.
type Call struct {
	Op        Op
	Namespace string
	Unit      string
}

type failure struct {
	err       error
	remaining int
}

// Platform keeps unit state in memory. The zero value is not usable; call New.
type Platform struct {
	mu        sync.Mutex
	units     map[string]map[string]reconcile.UnitState
	failures  map[string]*failure
	hooks     map[string]func(context.Context) error
	published map[string]*certs.Bundle
	calls     []Call
	readyLag  bool
}

// New returns an empty platform on which applied units are ready at once.
func New() *Platform {
	return &Platform{
		units:     make(map[string]map[string]reconcile.UnitState),
		failures:  make(map[string]*failure),
		hooks:     make(map[string]func(context.Context) error),
		published: make(map[string]*certs.Bundle),
	}
}

// Seed stores observed units as if they already existed.
func (p *Platform) Seed(namespace string, states ...reconcile.UnitState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ns := p.namespace(namespace)
	for _, s := range states {
		ns[s.Name] = s
	}
}

// Fail makes the next times calls for the unit return err. A negative
// times fails forever.
func (p *Platform) Fail(unit string, err error, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[unit] = &failure{err: err, remaining: times}
}

// Hook runs fn before every call for the unit. A non-nil result is
// returned as the call's error.
func (p *Platform) Hook(unit string, fn func(context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks[unit] = fn
}

// SetReadyLag controls whether applied units start with zero ready replicas.
func (p *Platform) SetReadyLag(lag bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readyLag = lag
}

// SetReady sets the ready replicas of a unit.
func (p *Platform) SetReady(namespace, unit string, ready int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ns := p.namespace(namespace)
	if s, ok := ns[unit]; ok {
		s.ReadyReplicas = ready
		ns[unit] = s
	}
}

// Calls returns the mutating calls made so far, in order.
func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// CallsFor returns the number of create and update calls for a unit.
func (p *Platform) CallsFor(unit string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Unit == unit {
			n++
		}
	}
	return n
}

// Published returns the bundle last published to the namespace.
func (p *Platform) Published(namespace string) *certs.Bundle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[namespace]
}

// CurrentState implements apply.Platform.
func (p *Platform) CurrentState(_ context.Context, namespace string) (map[string]reconcile.UnitState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.namespace(namespace)), nil
}

// Create implements apply.Platform.
func (p *Platform) Create(ctx context.Context, namespace string, unit plan.Unit) (reconcile.UnitState, error) {
	if err := p.before(ctx, OpCreate, namespace, unit.Name); err != nil {
		return reconcile.UnitState{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ns := p.namespace(namespace)
	if _, ok := ns[unit.Name]; ok {
		return reconcile.UnitState{}, fmt.Errorf("unit %s already exists in %s", unit.Name, namespace)
	}
	state := p.stateOf(unit)
	ns[unit.Name] = state
	return state, nil
}

// Update implements apply.Platform.
func (p *Platform) Update(ctx context.Context, namespace string, unit plan.Unit, _ reconcile.UnitState) (reconcile.UnitState, error) {
	if err := p.before(ctx, OpUpdate, namespace, unit.Name); err != nil {
		return reconcile.UnitState{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ns := p.namespace(namespace)
	if _, ok := ns[unit.Name]; !ok {
		return reconcile.UnitState{}, fmt.Errorf("unit %s not found in %s", unit.Name, namespace)
	}
	state := p.stateOf(unit)
	ns[unit.Name] = state
	return state, nil
}

// ReadyReplicas implements apply.ReadinessChecker.
func (p *Platform) ReadyReplicas(_ context.Context, namespace, unit string) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.namespace(namespace)[unit].ReadyReplicas, nil
}

// PublishCertificates implements apply.CertificatePublisher.
func (p *Platform) PublishCertificates(_ context.Context, namespace string, bundle *certs.Bundle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: OpPublish, Namespace: namespace})
	p.published[namespace] = bundle
	return nil
}

func (p *Platform) before(ctx context.Context, op Op, namespace, unit string) error {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Op: op, Namespace: namespace, Unit: unit})
	hook := p.hooks[unit]
	var injected error
	if f, ok := p.failures[unit]; ok && f.remaining != 0 {
		injected = f.err
		if f.remaining > 0 {
			f.remaining--
		}
	}
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	if injected != nil {
		return injected
	}
	return ctx.Err()
}

func (p *Platform) stateOf(unit plan.Unit) reconcile.UnitState {
	state := reconcile.StateOf(unit)
	if !p.readyLag {
		state.ReadyReplicas = unit.Replicas
	}
	return state
}

func (p *Platform) namespace(name string) map[string]reconcile.UnitState {
	ns, ok := p.units[name]
	if !ok {
		ns = make(map[string]reconcile.UnitState)
		p.units[name] = ns
	}
	return ns
}

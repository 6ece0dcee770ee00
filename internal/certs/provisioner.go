package certs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/clock"

	"github.com/imamik/estopo/internal/topology"
)

// Defaults for generated material.
const (
	DefaultKeySize      = 2048
	DefaultCAValidity   = 5 * 365 * 24 * time.Hour
	DefaultLeafValidity = 2 * 365 * 24 * time.Hour
)

// GenerateReason tells why a bundle or leaf was generated.
type GenerateReason string

const (
	ReasonNew       GenerateReason = "new"
	ReasonRotated   GenerateReason = "rotated"
	ReasonRenewed   GenerateReason = "expired"
	ReasonRoleAdded GenerateReason = "role-added"
)

// Provisioner loads or generates certificate bundles.
type Provisioner struct {
	store        Store
	clock        clock.PassiveClock
	keySize      int
	caValidity   time.Duration
	leafValidity time.Duration
	autoRotate   bool
	onGenerate   func(identity string, reason GenerateReason)
	locks        *keyedLock
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithClock sets the clock used for issuing and expiry checks.
func WithClock(c clock.PassiveClock) ProvisionerOption {
	return func(p *Provisioner) { p.clock = c }
}

// WithKeySize sets the RSA key size in bits.
func WithKeySize(bits int) ProvisionerOption {
	return func(p *Provisioner) { p.keySize = bits }
}

// WithValidity sets CA and leaf lifetimes. Zero keeps the default.
func WithValidity(ca, leaf time.Duration) ProvisionerOption {
	return func(p *Provisioner) {
		if ca > 0 {
			p.caValidity = ca
		}
		if leaf > 0 {
			p.leafValidity = leaf
		}
	}
}

// WithAutoRotate regenerates expired bundles instead of failing.
func WithAutoRotate(enabled bool) ProvisionerOption {
	return func(p *Provisioner) { p.autoRotate = enabled }
}

// WithGenerateHook is called after material was generated and persisted.
func WithGenerateHook(fn func(identity string, reason GenerateReason)) ProvisionerOption {
	return func(p *Provisioner) { p.onGenerate = fn }
}

// NewProvisioner creates a provisioner backed by store.
func NewProvisioner(store Store, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		store:        store,
		clock:        clock.RealClock{},
		keySize:      DefaultKeySize,
		caValidity:   DefaultCAValidity,
		leafValidity: DefaultLeafValidity,
		locks:        newKeyedLock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option configures a single Provision call.
type Option func(*provisionOptions)

type provisionOptions struct {
	rotate bool
	dryRun bool
}

// WithRotation forces a new bundle even if a valid one exists.
func WithRotation() Option {
	return func(o *provisionOptions) { o.rotate = true }
}

// WithDryRun keeps generated or rotated material in memory. The store is
// read but never written.
func WithDryRun() Option {
	return func(o *provisionOptions) { o.dryRun = true }
}

// Provision returns the bundle for identity, covering at least roles.
//
// Without rotation, repeated calls return the stored bundle unchanged. A
// role missing from the stored bundle gets a leaf from the existing CA.
func (p *Provisioner) Provision(ctx context.Context, identity string, roles []topology.Role, opts ...Option) (*Bundle, error) {
	var o provisionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.dryRun {
		p = p.detached()
	}

	if errs := validation.IsDNS1123Label(identity); len(errs) > 0 {
		return nil, fmt.Errorf("invalid cluster identity %q: %s", identity, errs[0])
	}

	unlock, err := p.locks.Lock(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("waiting for certificate lock of %q: %w", identity, err)
	}
	defer unlock()

	logger := logr.FromContextOrDiscard(ctx).WithValues("identity", identity)

	data, err := p.store.Load(ctx, identity)
	if errors.Is(err, ErrNotFound) {
		return p.create(ctx, logger, identity, roles)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate bundle: %w", err)
	}

	current, decodeErr := Decode(data)
	if o.rotate {
		generation := 1
		if decodeErr == nil {
			generation = current.Generation + 1
		}
		return p.regenerate(ctx, logger, identity, generation, roles, ReasonRotated)
	}
	if decodeErr != nil {
		return nil, &CertificateError{Identity: identity, Reason: ReasonCorrupt, Err: decodeErr}
	}

	return p.reuse(ctx, logger, current, roles)
}

// detached returns a copy of p whose writes stay in memory. It shares the
// identity locks of p.
func (p *Provisioner) detached() *Provisioner {
	d := *p
	d.store = newOverlayStore(p.store)
	d.onGenerate = nil
	return &d
}

func (p *Provisioner) issuer() issuer {
	return issuer{
		now:          p.clock.Now(),
		keySize:      p.keySize,
		caValidity:   p.caValidity,
		leafValidity: p.leafValidity,
	}
}

func (p *Provisioner) create(ctx context.Context, logger logr.Logger, identity string, roles []topology.Role) (*Bundle, error) {
	b, err := p.issuer().newBundle(identity, 1, roles)
	if err != nil {
		return nil, err
	}
	data, err := Encode(b)
	if err != nil {
		return nil, err
	}

	err = p.store.Save(ctx, identity, data)
	if errors.Is(err, ErrAlreadyExists) {
		// Another process won the race; use its bundle.
		logger.V(1).Info("Certificate bundle created concurrently, loading it")
		data, err := p.store.Load(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to load concurrently created bundle: %w", err)
		}
		winner, err := Decode(data)
		if err != nil {
			return nil, &CertificateError{Identity: identity, Reason: ReasonCorrupt, Err: err}
		}
		return p.reuse(ctx, logger, winner, roles)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save certificate bundle: %w", err)
	}

	logger.Info("Generated certificate bundle", "roles", roles)
	p.generated(identity, ReasonNew)
	return b, nil
}

func (p *Provisioner) reuse(ctx context.Context, logger logr.Logger, b *Bundle, roles []topology.Role) (*Bundle, error) {
	notAfter, err := b.verify()
	if err != nil {
		return nil, &CertificateError{Identity: b.Identity, Reason: ReasonCorrupt, Err: err}
	}

	if now := p.clock.Now(); !now.Before(notAfter) {
		expiredErr := fmt.Errorf("expired at %s", notAfter.UTC().Format(time.RFC3339))
		if !p.autoRotate {
			return nil, &CertificateError{Identity: b.Identity, Reason: ReasonExpired, Err: expiredErr}
		}
		logger.Info("Certificate bundle expired, regenerating", "notAfter", notAfter)
		return p.regenerate(ctx, logger, b.Identity, b.Generation+1, roles, ReasonRenewed)
	}

	added, err := p.issuer().addLeaves(b, roles)
	if err != nil {
		return nil, &CertificateError{Identity: b.Identity, Reason: ReasonCorrupt, Err: err}
	}
	if len(added) == 0 {
		logger.V(1).Info("Reusing certificate bundle", "generation", b.Generation)
		return b, nil
	}

	data, err := Encode(b)
	if err != nil {
		return nil, err
	}
	if err := p.store.Replace(ctx, b.Identity, data); err != nil {
		return nil, fmt.Errorf("failed to store certificate bundle: %w", err)
	}
	logger.Info("Issued certificates for new roles", "roles", added)
	p.generated(b.Identity, ReasonRoleAdded)
	return b, nil
}

func (p *Provisioner) regenerate(ctx context.Context, logger logr.Logger, identity string, generation int, roles []topology.Role, reason GenerateReason) (*Bundle, error) {
	b, err := p.issuer().newBundle(identity, generation, roles)
	if err != nil {
		return nil, err
	}
	data, err := Encode(b)
	if err != nil {
		return nil, err
	}
	if err := p.store.Replace(ctx, identity, data); err != nil {
		return nil, fmt.Errorf("failed to store certificate bundle: %w", err)
	}
	logger.Info("Regenerated certificate bundle", "generation", generation, "reason", reason)
	p.generated(identity, reason)
	return b, nil
}

func (p *Provisioner) generated(identity string, reason GenerateReason) {
	if p.onGenerate != nil {
		p.onGenerate(identity, reason)
	}
}

package apply

import (
	"context"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
)

// Platform is the orchestration platform the units are applied to.
type Platform interface {
	// CurrentState returns the observed units of the cluster keyed by name.
	CurrentState(ctx context.Context, namespace string) (map[string]reconcile.UnitState, error)

	// Create creates the unit and returns its observed state.
	Create(ctx context.Context, namespace string, unit plan.Unit) (reconcile.UnitState, error)

	// Update moves an existing unit to the planned spec.
	Update(ctx context.Context, namespace string, unit plan.Unit, current reconcile.UnitState) (reconcile.UnitState, error)
}

// ReadinessChecker is implemented by platforms that can report ready
// replicas. When available, dependents wait for master quorum.
type ReadinessChecker interface {
	ReadyReplicas(ctx context.Context, namespace, unit string) (int32, error)
}

// CertificatePublisher is implemented by platforms that need the leaf
// material of each role published before units reference it.
type CertificatePublisher interface {
	PublishCertificates(ctx context.Context, namespace string, bundle *certs.Bundle) error
}

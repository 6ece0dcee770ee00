package kube

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// Platform applies units of one cluster through the Kubernetes API.
type Platform struct {
	clientset kubernetes.Interface
	cluster   string
}

// New creates a Platform for the cluster identity using clientset.
func New(clientset kubernetes.Interface, cluster string) *Platform {
	return &Platform{clientset: clientset, cluster: cluster}
}

// NewForConfig creates a Platform from a REST config.
func NewForConfig(cfg *rest.Config, cluster string) (*Platform, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	return New(clientset, cluster), nil
}

// Clientset returns the underlying clientset.
func (p *Platform) Clientset() kubernetes.Interface {
	return p.clientset
}

// CurrentState lists the StatefulSets of the cluster. Deployments created
// before the estopo.io labels are found through the legacy selectors, the
// first non-empty match winning.
func (p *Platform) CurrentState(ctx context.Context, namespace string) (map[string]reconcile.UnitState, error) {
	selectors := append([]string{labels.SelectorForCluster(p.cluster)}, labels.LegacySelectorsForCluster(p.cluster)...)
	found := make([][]appsv1.StatefulSet, len(selectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, selector := range selectors {
		g.Go(func() error {
			list, err := p.clientset.AppsV1().StatefulSets(namespace).List(gctx, metav1.ListOptions{LabelSelector: selector})
			if err != nil {
				return fmt.Errorf("failed to list statefulsets with %s: %w", selector, err)
			}
			found[i] = list.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	state := make(map[string]reconcile.UnitState)
	for i, items := range found {
		if len(items) == 0 {
			continue
		}
		if i > 0 {
			logr.FromContextOrDiscard(ctx).Info("Found units through legacy selector", "selector", selectors[i], "count", len(items))
		}
		for n := range items {
			s := StateOf(p.cluster, &items[n])
			state[s.Name] = s
		}
		break
	}
	return state, nil
}

// Create creates the StatefulSet of a unit, and the discovery Service if
// it does not exist yet.
func (p *Platform) Create(ctx context.Context, namespace string, unit plan.Unit) (reconcile.UnitState, error) {
	if err := p.ensureDiscoveryService(ctx, namespace); err != nil {
		return reconcile.UnitState{}, err
	}

	sts, err := BuildStatefulSet(namespace, unit)
	if err != nil {
		return reconcile.UnitState{}, err
	}

	created, err := p.clientset.AppsV1().StatefulSets(namespace).Create(ctx, sts, metav1.CreateOptions{})
	if err != nil {
		return reconcile.UnitState{}, fmt.Errorf("failed to create statefulset %s/%s: %w", namespace, sts.Name, err)
	}
	return StateOf(p.cluster, created), nil
}

// Update moves the StatefulSet of a unit to the planned spec. The selector
// and volume claim templates are immutable and kept as found.
func (p *Platform) Update(ctx context.Context, namespace string, unit plan.Unit, current reconcile.UnitState) (reconcile.UnitState, error) {
	desired, err := BuildStatefulSet(namespace, unit)
	if err != nil {
		return reconcile.UnitState{}, err
	}

	client := p.clientset.AppsV1().StatefulSets(namespace)
	existing, err := p.find(ctx, namespace, current.Name)
	if err != nil {
		return reconcile.UnitState{}, err
	}

	existing.Labels = mergeLabels(existing.Labels, desired.Labels)
	existing.Annotations = mergeLabels(existing.Annotations, desired.Annotations)
	existing.Spec.Replicas = desired.Spec.Replicas
	existing.Spec.Template = desired.Spec.Template
	if existing.Spec.Selector != nil {
		existing.Spec.Template.Labels = mergeLabels(existing.Spec.Template.Labels, existing.Spec.Selector.MatchLabels)
	}
	switch {
	case len(existing.Spec.VolumeClaimTemplates) > 0:
		// The claim template cannot change, so the data volume keeps using it.
		existing.Spec.Template.Spec.Volumes = withoutVolume(existing.Spec.Template.Spec.Volumes, dataVolume)
	case len(desired.Spec.VolumeClaimTemplates) > 0:
		return reconcile.UnitState{}, fmt.Errorf("unit %s: cannot add a volume claim template to existing statefulset %s", unit.Name, existing.Name)
	}

	updated, err := client.Update(ctx, existing, metav1.UpdateOptions{})
	if err != nil {
		return reconcile.UnitState{}, fmt.Errorf("failed to update statefulset %s/%s: %w", namespace, existing.Name, err)
	}
	return StateOf(p.cluster, updated), nil
}

// ReadyReplicas implements apply.ReadinessChecker. A missing unit has no
// ready replicas.
func (p *Platform) ReadyReplicas(ctx context.Context, namespace, unit string) (int32, error) {
	sts, err := p.clientset.AppsV1().StatefulSets(namespace).Get(ctx, naming.StatefulSet(p.cluster, unit), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get statefulset %s: %w", unit, err)
	}
	return sts.Status.ReadyReplicas, nil
}

// find returns the StatefulSet of a unit by its current name, falling back
// to the unit label for objects named by older deployments.
func (p *Platform) find(ctx context.Context, namespace, unit string) (*appsv1.StatefulSet, error) {
	client := p.clientset.AppsV1().StatefulSets(namespace)
	name := naming.StatefulSet(p.cluster, unit)

	sts, err := client.Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return sts, nil
	}
	if !apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get statefulset %s/%s: %w", namespace, name, err)
	}

	list, listErr := client.List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(&metav1.LabelSelector{MatchLabels: labels.SelectorForUnit(p.cluster, unit)}),
	})
	if listErr != nil {
		return nil, fmt.Errorf("failed to list statefulsets for %s: %w", unit, listErr)
	}
	if len(list.Items) == 0 {
		return nil, fmt.Errorf("statefulset %s/%s: %w", namespace, name, err)
	}
	return &list.Items[0], nil
}

func mergeLabels(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// BuildDiscoveryService renders the headless Service nodes use to find the
// masters of a cluster.
func BuildDiscoveryService(namespace, cluster string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.DiscoveryService(cluster),
			Namespace: namespace,
			Labels:    labels.NewLabelBuilder(cluster).Build(),
		},
		Spec: corev1.ServiceSpec{
			ClusterIP:                corev1.ClusterIPNone,
			PublishNotReadyAddresses: true,
			Selector: map[string]string{
				labels.KeyCluster: cluster,
				labels.KeyRole:    string(topology.RoleMaster),
			},
			Ports: []corev1.ServicePort{{
				Name:       "transport",
				Port:       TransportPort,
				TargetPort: intstr.FromInt32(TransportPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

func (p *Platform) ensureDiscoveryService(ctx context.Context, namespace string) error {
	svc := BuildDiscoveryService(namespace, p.cluster)
	_, err := p.clientset.CoreV1().Services(namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create service %s/%s: %w", namespace, svc.Name, err)
	}
	return nil
}

func withoutVolume(volumes []corev1.Volume, name string) []corev1.Volume {
	out := volumes[:0:0]
	for _, v := range volumes {
		if v.Name != name {
			out = append(out, v)
		}
	}
	return out
}

package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// CAKey is the data key holding the cluster CA in each role secret.
const CAKey = "ca.crt"

// BuildCertSecrets renders one TLS Secret per role of the bundle. The CA
// private key is never published.
func BuildCertSecrets(namespace string, bundle *certs.Bundle) []*corev1.Secret {
	roles := bundle.Roles()
	secrets := make([]*corev1.Secret, 0, len(roles))
	for _, role := range roles {
		leaf := bundle.Leaves[role]
		secrets = append(secrets, &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{
				Name:      naming.CertSecret(bundle.Identity, string(role)),
				Namespace: namespace,
				Labels:    labels.NewLabelBuilder(bundle.Identity).WithRole(string(role)).Build(),
			},
			Type: corev1.SecretTypeTLS,
			Data: map[string][]byte{
				corev1.TLSCertKey:       []byte(leaf.Cert),
				corev1.TLSPrivateKeyKey: []byte(leaf.Key),
				CAKey:                   []byte(bundle.CA.Cert),
			},
		})
	}
	return secrets
}

// PublishCertificates implements apply.CertificatePublisher. Secrets are
// created, or updated in place when their content differs.
func (p *Platform) PublishCertificates(ctx context.Context, namespace string, bundle *certs.Bundle) error {
	client := p.clientset.CoreV1().Secrets(namespace)

	for _, secret := range BuildCertSecrets(namespace, bundle) {
		_, err := client.Create(ctx, secret, metav1.CreateOptions{})
		if err == nil {
			continue
		}
		if !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create secret %s/%s: %w", namespace, secret.Name, err)
		}

		existing, err := client.Get(ctx, secret.Name, metav1.GetOptions{})
		if err != nil {
			return fmt.Errorf("failed to get secret %s/%s: %w", namespace, secret.Name, err)
		}
		if sameData(existing.Data, secret.Data) {
			continue
		}
		existing.Data = secret.Data
		existing.Labels = mergeLabels(existing.Labels, secret.Labels)
		if _, err := client.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to update secret %s/%s: %w", namespace, secret.Name, err)
		}
	}
	return nil
}

func sameData(a, b map[string][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if string(b[k]) != string(v) {
			return false
		}
	}
	return true
}

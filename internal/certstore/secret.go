package certstore

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// BundleKey is the data key holding the encoded bundle in the Secret.
const BundleKey = "bundle.yaml"

// SecretStore keeps each bundle in a Secret named {identity}-cert-bundle.
type SecretStore struct {
	clientset kubernetes.Interface
	namespace string
}

// NewSecretStore creates a SecretStore writing to namespace.
func NewSecretStore(clientset kubernetes.Interface, namespace string) *SecretStore {
	return &SecretStore{clientset: clientset, namespace: namespace}
}

func (s *SecretStore) Load(ctx context.Context, identity string) ([]byte, error) {
	secret, err := s.clientset.CoreV1().Secrets(s.namespace).Get(ctx, naming.BundleSecret(identity), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("bundle %q: %w", identity, certs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", naming.BundleSecret(identity), err)
	}
	data, ok := secret.Data[BundleKey]
	if !ok {
		// An empty bundle decodes as corrupt, which is what it is.
		return []byte{}, nil
	}
	return data, nil
}

func (s *SecretStore) Save(ctx context.Context, identity string, data []byte) error {
	_, err := s.clientset.CoreV1().Secrets(s.namespace).Create(ctx, s.secret(identity, data), metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("bundle %q: %w", identity, certs.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create secret %s: %w", naming.BundleSecret(identity), err)
	}
	return nil
}

// Replace updates the Secret in place, retrying on resource version conflicts.
func (s *SecretStore) Replace(ctx context.Context, identity string, data []byte) error {
	secrets := s.clientset.CoreV1().Secrets(s.namespace)
	name := naming.BundleSecret(identity)

	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		current, err := secrets.Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			_, err = secrets.Create(ctx, s.secret(identity, data), metav1.CreateOptions{})
			return err
		}
		if err != nil {
			return err
		}
		current.Data = map[string][]byte{BundleKey: data}
		_, err = secrets.Update(ctx, current, metav1.UpdateOptions{})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to replace secret %s: %w", name, err)
	}
	return nil
}

func (s *SecretStore) secret(identity string, data []byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      naming.BundleSecret(identity),
			Namespace: s.namespace,
			Labels:    labels.NewLabelBuilder(identity).Build(),
		},
		Type: corev1.SecretTypeOpaque,
		Data: map[string][]byte{BundleKey: data},
	}
}

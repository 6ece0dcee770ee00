package naming

import (
	"fmt"
	"path"
)

// Unit returns the deterministic name of a deployment unit.
// An empty identity yields the bare role name.
func Unit(role, identity string) string {
	if identity == "" {
		return role
	}
	return fmt.Sprintf("%s-%s", role, identity)
}

func StatefulSet(cluster, unit string) string {
	return fmt.Sprintf("%s-%s", cluster, unit)
}

func DiscoveryService(cluster string) string {
	return fmt.Sprintf("%s-discovery", cluster)
}

// CertSecret is the TLS secret mounted by every unit of a role.
func CertSecret(cluster, role string) string {
	return fmt.Sprintf("%s-%s-certs", cluster, role)
}

// BundleSecret is the secret holding the persisted certificate bundle.
func BundleSecret(identity string) string {
	return fmt.Sprintf("%s-cert-bundle", identity)
}

func BundleFile(identity string) string {
	return identity + ".yaml"
}

func BundleObjectKey(prefix, identity string) string {
	if prefix == "" {
		return BundleFile(identity)
	}
	return path.Join(prefix, BundleFile(identity))
}

// VolumeClaim names the persistent volume claim of the index-th node
// when a claim prefix is configured.
func VolumeClaim(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}

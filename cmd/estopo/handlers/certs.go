package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/estopo/internal/certs"
)

// Certs provisions, or with rotate replaces, the certificate bundle of the
// configured cluster and prints the resulting references.
func Certs(ctx context.Context, configPath string, rotate bool) error {
	env, err := newEnvironment(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer env.Close()

	var opts []certs.Option
	if rotate {
		opts = append(opts, certs.WithRotation())
	}

	bundle, err := env.provisioner().Provision(ctx, env.cfg.Cluster, env.topology.Roles(), opts...)
	if err != nil {
		return fmt.Errorf("failed to provision certificates: %w", err)
	}

	out := stdout
	fmt.Fprintf(out, "Certificate bundle %s (generation %d)\n", bundle.Identity, bundle.Generation)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-8s %-28s %s\n", "Role", "Secret", "Fingerprint")
	for _, role := range bundle.Roles() {
		ref, err := bundle.Ref(role)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-8s %-28s %s\n", role, ref.SecretName, ref.Fingerprint[:16])
	}
	if rotate {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'estopo apply' to roll the new certificates out.")
	}
	return nil
}

package certs

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/naming"
)

// KeyPair is a PEM encoded certificate and private key.
type KeyPair struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

// Bundle is the certificate material of one cluster identity.
type Bundle struct {
	Identity   string                    `yaml:"identity"`
	Generation int                       `yaml:"generation"`
	CA         KeyPair                   `yaml:"ca"`
	Leaves     map[topology.Role]KeyPair `yaml:"leaves"`
}

// Ref points a deployment unit at the secret holding its role's leaf.
// The fingerprint changes whenever the leaf does, which is what makes
// rotation visible to the reconciler.
type Ref struct {
	SecretName  string `json:"secretName"`
	Fingerprint string `json:"fingerprint"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.SecretName == "" && r.Fingerprint == ""
}

// Ref returns the reference for the given role's leaf.
func (b *Bundle) Ref(role topology.Role) (Ref, error) {
	leaf, ok := b.Leaves[role]
	if !ok {
		return Ref{}, fmt.Errorf("bundle %q has no certificate for role %s", b.Identity, role)
	}
	block, _ := pem.Decode([]byte(leaf.Cert))
	if block == nil {
		return Ref{}, fmt.Errorf("bundle %q: certificate for role %s is not PEM", b.Identity, role)
	}
	sum := sha256.Sum256(block.Bytes)
	return Ref{
		SecretName:  naming.CertSecret(b.Identity, string(role)),
		Fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// Roles returns the roles with a leaf certificate, sorted.
func (b *Bundle) Roles() []topology.Role {
	roles := make([]topology.Role, 0, len(b.Leaves))
	for r := range b.Leaves {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Encode serializes the bundle.
func Encode(b *Bundle) ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate bundle: %w", err)
	}
	return data, nil
}

// Decode parses an encoded bundle. It does not verify the certificates.
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse certificate bundle: %w", err)
	}
	if b.CA.Cert == "" || b.CA.Key == "" {
		return nil, errors.New("certificate bundle has no CA")
	}
	return &b, nil
}

// verify checks that every key pair parses, matches its key and that every
// leaf is signed by the CA. It returns the earliest expiry found.
func (b *Bundle) verify() (time.Time, error) {
	ca, err := parseKeyPair(b.CA)
	if err != nil {
		return time.Time{}, fmt.Errorf("ca: %w", err)
	}
	if !ca.IsCA {
		return time.Time{}, errors.New("ca: certificate is not a CA")
	}

	notAfter := ca.NotAfter
	for _, role := range b.Roles() {
		leaf, err := parseKeyPair(b.Leaves[role])
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", role, err)
		}
		if err := leaf.CheckSignatureFrom(ca); err != nil {
			return time.Time{}, fmt.Errorf("%s: not signed by bundle CA: %w", role, err)
		}
		if leaf.NotAfter.Before(notAfter) {
			notAfter = leaf.NotAfter
		}
	}
	return notAfter, nil
}

func parseKeyPair(kp KeyPair) (*x509.Certificate, error) {
	pair, err := tls.X509KeyPair([]byte(kp.Cert), []byte(kp.Key))
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(pair.Certificate[0])
}

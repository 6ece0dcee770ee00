package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/naming"
)

const organization = "estopo"

// clockSkew backdates NotBefore so freshly issued certificates are accepted
// by nodes whose clocks run slightly behind.
const clockSkew = time.Hour

type issuer struct {
	now          time.Time
	keySize      int
	caValidity   time.Duration
	leafValidity time.Duration
}

func (is issuer) newBundle(identity string, generation int, roles []topology.Role) (*Bundle, error) {
	caKey, caCert, caPair, err := is.newCA(identity)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		Identity:   identity,
		Generation: generation,
		CA:         caPair,
		Leaves:     make(map[topology.Role]KeyPair, len(roles)),
	}
	for _, role := range roles {
		leaf, err := is.newLeaf(identity, role, caCert, caKey)
		if err != nil {
			return nil, err
		}
		b.Leaves[role] = leaf
	}
	return b, nil
}

// addLeaves issues leaves for roles missing from b, signed by b's CA.
// It returns the roles that were added.
func (is issuer) addLeaves(b *Bundle, roles []topology.Role) ([]topology.Role, error) {
	var missing []topology.Role
	for _, role := range roles {
		if _, ok := b.Leaves[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	caCert, caKey, err := decodeCA(b.CA)
	if err != nil {
		return nil, err
	}
	if b.Leaves == nil {
		b.Leaves = make(map[topology.Role]KeyPair, len(missing))
	}
	for _, role := range missing {
		leaf, err := is.newLeaf(b.Identity, role, caCert, caKey)
		if err != nil {
			return nil, err
		}
		b.Leaves[role] = leaf
	}
	return missing, nil
}

func (is issuer) newCA(identity string) (*rsa.PrivateKey, *x509.Certificate, KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, is.keySize)
	if err != nil {
		return nil, nil, KeyPair{}, fmt.Errorf("failed to generate CA key: %w", err)
	}
	serial, err := newSerial()
	if err != nil {
		return nil, nil, KeyPair{}, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   identity + "-ca",
			Organization: []string{organization},
		},
		NotBefore:             is.now.Add(-clockSkew),
		NotAfter:              is.now.Add(is.caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, KeyPair{}, fmt.Errorf("failed to create CA certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, KeyPair{}, err
	}
	return key, cert, encodePair(der, key), nil
}

func (is issuer) newLeaf(identity string, role topology.Role, ca *x509.Certificate, caKey *rsa.PrivateKey) (KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, is.keySize)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate %s key: %w", role, err)
	}
	serial, err := newSerial()
	if err != nil {
		return KeyPair{}, err
	}

	discovery := naming.DiscoveryService(identity)
	notAfter := is.now.Add(is.leafValidity)
	if notAfter.After(ca.NotAfter) {
		notAfter = ca.NotAfter
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:         fmt.Sprintf("%s-%s", identity, role),
			Organization:       []string{organization},
			OrganizationalUnit: []string{string(role)},
		},
		DNSNames: []string{
			"localhost",
			discovery,
			"*." + discovery,
		},
		NotBefore:             is.now.Add(-clockSkew),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, ca, &key.PublicKey, caKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to create %s certificate: %w", role, err)
	}
	return encodePair(der, key), nil
}

func decodeCA(kp KeyPair) (*x509.Certificate, *rsa.PrivateKey, error) {
	cert, err := parseKeyPair(kp)
	if err != nil {
		return nil, nil, fmt.Errorf("ca: %w", err)
	}
	block, _ := pem.Decode([]byte(kp.Key))
	if block == nil {
		return nil, nil, fmt.Errorf("ca: key is not PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("ca: %w", err)
	}
	return cert, key, nil
}

func encodePair(der []byte, key *rsa.PrivateKey) KeyPair {
	return KeyPair{
		Cert: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		Key:  string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
	}
}

func newSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return serial, nil
}

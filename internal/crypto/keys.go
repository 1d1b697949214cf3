// Package crypto turns token requests into ciphertext the tokenization
// server can open, and holds the process-wide encryption key.
package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// MinKeyBits is the smallest RSA modulus accepted for encryption.
const MinKeyBits = 2048

var (
	ErrInvalidKey        = errors.New("invalid public key")
	ErrUnsupportedScheme = errors.New("unsupported encryption scheme")
)

// Scheme selects how plaintext is encrypted with the public key.
type Scheme string

const (
	// SchemeRSAPKCS1 is direct RSA PKCS#1 v1.5, the format the tokenization
	// API has always accepted. Plaintext is capped at k-11 bytes.
	SchemeRSAPKCS1 Scheme = "rsa-pkcs1"
	// SchemeRSAOAEP is direct RSA-OAEP with SHA-256, capped at k-66 bytes.
	SchemeRSAOAEP Scheme = "rsa-oaep"
	// SchemeHybrid wraps a one-time XChaCha20-Poly1305 key with RSA-OAEP and
	// has no plaintext cap.
	SchemeHybrid Scheme = "hybrid"
)

// ParseScheme maps a configuration value onto a Scheme. Empty means the
// default.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemeRSAPKCS1:
		return SchemeRSAPKCS1, nil
	case SchemeRSAOAEP:
		return SchemeRSAOAEP, nil
	case SchemeHybrid:
		return SchemeHybrid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
	}
}

// EncryptionKey is an immutable public key plus the scheme it is used with.
type EncryptionKey struct {
	pub    *rsa.PublicKey
	scheme Scheme
}

// NewEncryptionKey wraps an already parsed key.
func NewEncryptionKey(pub *rsa.PublicKey, scheme Scheme) (*EncryptionKey, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: %d-bit modulus, need at least %d", ErrInvalidKey, pub.N.BitLen(), MinKeyBits)
	}
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if scheme == "" {
		scheme = SchemeRSAPKCS1
	}
	return &EncryptionKey{pub: pub, scheme: scheme}, nil
}

// ParseEncryptionKey parses key material as handed out by the dashboard:
// PEM, or bare base64 DER, in PKIX or PKCS#1 form.
func ParseEncryptionKey(material string, scheme Scheme) (*EncryptionKey, error) {
	pub, err := ParsePublicKey(material)
	if err != nil {
		return nil, err
	}
	return NewEncryptionKey(pub, scheme)
}

func ParsePublicKey(material string) (*rsa.PublicKey, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, fmt.Errorf("%w: empty key material", ErrInvalidKey)
	}

	var der []byte
	if block, _ := pem.Decode([]byte(material)); block != nil {
		der = block.Bytes
	} else {
		compact := strings.Join(strings.Fields(material), "")
		decoded, err := base64.StdEncoding.DecodeString(compact)
		if err != nil {
			return nil, fmt.Errorf("%w: not PEM or base64", ErrInvalidKey)
		}
		der = decoded
	}

	if key, err := x509.ParsePKIXPublicKey(der); err == nil {
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKey)
		}
		return pub, nil
	}
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return pub, nil
}

func (k *EncryptionKey) Scheme() Scheme { return k.scheme }

// Size is the modulus size in bytes.
func (k *EncryptionKey) Size() int { return k.pub.Size() }

// MaxPlaintext is the largest plaintext the scheme accepts, or -1 when
// unbounded.
func (k *EncryptionKey) MaxPlaintext() int {
	switch k.scheme {
	case SchemeRSAOAEP:
		return k.pub.Size() - 2*sha256Size - 2
	case SchemeHybrid:
		return -1
	default:
		return k.pub.Size() - 11
	}
}

// MarshalPEM renders the key as a PKIX PEM block.
func (k *EncryptionKey) MarshalPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(k.pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// ParsePrivateKey reads a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func ParsePrivateKey(material string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(material)))
	if block == nil {
		return nil, errors.New("private key is not PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}

// MarshalPrivateKeyPEM renders a private key as a PKCS#1 PEM block.
func MarshalPrivateKeyPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

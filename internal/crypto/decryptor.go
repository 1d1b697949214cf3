package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"gosell/internal/models"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrDecrypt = errors.New("cannot decrypt payload")

// Decryptor opens payloads produced by Encoder. It lives on the server side
// of the exchange.
type Decryptor struct {
	priv *rsa.PrivateKey
}

func NewDecryptor(priv *rsa.PrivateKey) *Decryptor {
	return &Decryptor{priv: priv}
}

// PublicKey returns the encryption key matching this decryptor.
func (d *Decryptor) PublicKey(scheme Scheme) (*EncryptionKey, error) {
	return NewEncryptionKey(&d.priv.PublicKey, scheme)
}

// Decrypt reverses Encode's encryption step for the given scheme.
func (d *Decryptor) Decrypt(ciphertext string, scheme Scheme) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", ErrDecrypt)
	}

	var plaintext []byte
	switch scheme {
	case SchemeRSAPKCS1, "":
		plaintext, err = rsa.DecryptPKCS1v15(rand.Reader, d.priv, raw)
	case SchemeRSAOAEP:
		plaintext, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, d.priv, raw, nil)
	case SchemeHybrid:
		plaintext, err = d.openHybrid(raw)
	default:
		return nil, ErrUnsupportedScheme
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

// DecryptRequest decrypts and decodes a token request.
func (d *Decryptor) DecryptRequest(ciphertext string, scheme Scheme) (models.TokenRequest, error) {
	plaintext, err := d.Decrypt(ciphertext, scheme)
	if err != nil {
		return models.TokenRequest{}, err
	}
	var req models.TokenRequest
	if err := json.Unmarshal(plaintext, &req); err != nil {
		return models.TokenRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func (d *Decryptor) openHybrid(raw []byte) ([]byte, error) {
	if len(raw) < 3 || raw[0] != hybridVersion {
		return nil, errors.New("bad envelope header")
	}
	n := int(binary.BigEndian.Uint16(raw[1:3]))
	rest := raw[3:]
	if len(rest) < n+chacha20poly1305.NonceSizeX {
		return nil, errors.New("truncated envelope")
	}

	dataKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, d.priv, rest[:n], nil)
	if err != nil {
		return nil, err
	}
	defer wipe(dataKey)

	aead, err := chacha20poly1305.NewX(dataKey)
	if err != nil {
		return nil, err
	}
	nonce := rest[n : n+aead.NonceSize()]
	return aead.Open(nil, nonce, rest[n+aead.NonceSize():], []byte{hybridVersion})
}

package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sha256Size = sha256.Size

	hybridVersion byte = 0x01
	dataKeySize        = chacha20poly1305.KeySize
)

// Encoder serializes token requests and encrypts them for transmission.
// It holds no key material of its own.
type Encoder struct {
	random io.Reader
}

// NewEncoder returns an encoder reading randomness from crypto/rand.
func NewEncoder() *Encoder {
	return &Encoder{random: rand.Reader}
}

// Encode serializes req and encrypts it with key. A nil key fails with an
// encryption error before any cryptographic work starts.
func (e *Encoder) Encode(req models.TokenRequest, key *EncryptionKey) (*models.EncryptedPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, tapErrors.NewSerializationError("invalid request", err)
	}

	plaintext, err := json.Marshal(req)
	if err != nil {
		return nil, tapErrors.NewSerializationError("request is not representable as JSON", err)
	}

	return e.seal(req.Type(), plaintext, key)
}

// seal encrypts plaintext and zeroes it before returning, on every path.
func (e *Encoder) seal(kind models.PaymentType, plaintext []byte, key *EncryptionKey) (*models.EncryptedPayload, error) {
	defer wipe(plaintext)

	if key == nil {
		return nil, tapErrors.NewEncryptionError(tapErrors.ReasonMissingKey, nil)
	}

	ciphertext, err := e.encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	return models.NewEncryptedPayload(kind, base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (e *Encoder) encrypt(plaintext []byte, key *EncryptionKey) ([]byte, error) {
	if limit := key.MaxPlaintext(); limit >= 0 && len(plaintext) > limit {
		return nil, tapErrors.NewEncryptionError(tapErrors.ReasonPlaintextTooLong,
			fmt.Errorf("%d bytes, %s key accepts %d", len(plaintext), key.scheme, limit))
	}

	var (
		out []byte
		err error
	)
	switch key.scheme {
	case SchemeRSAPKCS1:
		out, err = rsa.EncryptPKCS1v15(e.random, key.pub, plaintext)
	case SchemeRSAOAEP:
		out, err = rsa.EncryptOAEP(sha256.New(), e.random, key.pub, plaintext, nil)
	case SchemeHybrid:
		out, err = e.sealHybrid(plaintext, key.pub)
	default:
		return nil, tapErrors.NewEncryptionError(tapErrors.ReasonInvalidKey, ErrUnsupportedScheme)
	}
	if err != nil {
		return nil, tapErrors.NewEncryptionError(tapErrors.ReasonEncryptFailed, err)
	}
	return out, nil
}

// sealHybrid produces version | len(wrapped) | wrapped | nonce | sealed.
func (e *Encoder) sealHybrid(plaintext []byte, pub *rsa.PublicKey) ([]byte, error) {
	dataKey := make([]byte, dataKeySize)
	if _, err := io.ReadFull(e.random, dataKey); err != nil {
		return nil, fmt.Errorf("generate data key: %w", err)
	}
	defer wipe(dataKey)

	wrapped, err := rsa.EncryptOAEP(sha256.New(), e.random, pub, dataKey, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap data key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(dataKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(e.random, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, 3+len(wrapped)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, hybridVersion)
	out = binary.BigEndian.AppendUint16(out, uint16(len(wrapped)))
	out = append(out, wrapped...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte{hybridVersion}), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

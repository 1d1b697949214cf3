package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// GenerateSecureCode returns 32 random bytes, URL-safe base64 encoded.
func GenerateSecureCode() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func MustGenerateSecureCode() string {
	code, err := GenerateSecureCode()
	if err != nil {
		panic("failed to generate secure code: " + err.Error())
	}
	return code
}

// CardFingerprint identifies a card number without revealing it. The same
// number and pepper always give the same fingerprint.
func CardFingerprint(pepper []byte, number string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(number))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

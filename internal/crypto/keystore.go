package crypto

import "sync/atomic"

// KeyProvider supplies the key used when a request carries no override.
type KeyProvider interface {
	CurrentEncryptionKey() (*EncryptionKey, bool)
}

// KeyStore is the process-wide key configuration. Readers never block;
// writers replace the whole key, so an in-flight request keeps the key it
// loaded.
type KeyStore struct {
	current atomic.Pointer[EncryptionKey]
}

func NewKeyStore(key *EncryptionKey) *KeyStore {
	ks := &KeyStore{}
	if key != nil {
		ks.current.Store(key)
	}
	return ks
}

func (ks *KeyStore) CurrentEncryptionKey() (*EncryptionKey, bool) {
	key := ks.current.Load()
	return key, key != nil
}

// Set swaps in a new key and returns the previous one.
func (ks *KeyStore) Set(key *EncryptionKey) *EncryptionKey {
	return ks.current.Swap(key)
}

// SetMaterial parses and installs key material.
func (ks *KeyStore) SetMaterial(material string, scheme Scheme) error {
	key, err := ParseEncryptionKey(material, scheme)
	if err != nil {
		return err
	}
	ks.current.Store(key)
	return nil
}

func (ks *KeyStore) Clear() {
	ks.current.Store(nil)
}

package cache

import (
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityToken   EntityType = "token"
	EntityCard    EntityType = "card"
	EntityRequest EntityType = "request"
)

type KeyType string

const (
	KeyID       KeyType = "id"
	KeyCustomer KeyType = "customer"
	KeyJTI      KeyType = "jti"
)

// Namespace prefixes every key written by the sandbox.
const Namespace = "gosell"

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%s:%v", Namespace, entity, keyType, value)
}

// ParseKey extracts the entity, key type and value from a key made by
// GenerateKey. Values may themselves contain colons.
func ParseKey(key string) (EntityType, KeyType, string, bool) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0] != Namespace {
		return "", "", "", false
	}
	return EntityType(parts[1]), KeyType(parts[2]), parts[3], true
}

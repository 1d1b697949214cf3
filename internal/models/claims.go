package models

import "github.com/golang-jwt/jwt/v5"

// Request scopes
const (
	ScopeTokensWrite = "tokens:write"
	ScopeCardsRead   = "cards:read"
	ScopeCardsWrite  = "cards:write"
)

// RequestClaims is the short-lived assertion a client signs for every call.
// The JWT ID is the request id, so a replayed assertion can be detected.
type RequestClaims struct {
	jwt.RegisteredClaims
	KeyID  string   `json:"kid"`
	Scopes []string `json:"scopes"`
}

// HasScope checks if the claims include a specific scope
func (c *RequestClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ScopesFor returns the scopes an operation needs.
func ScopesFor(operation string) []string {
	switch operation {
	case "create_token":
		return []string{ScopeTokensWrite}
	case "list_cards":
		return []string{ScopeCardsRead}
	case "delete_card", "save_card":
		return []string{ScopeCardsWrite}
	default:
		return []string{}
	}
}

package utils

import (
	"errors"
	"time"

	"gosell/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// RequestTokenTTL is how long a signed request assertion stays valid.
	RequestTokenTTL = time.Minute

	requestTokenIssuer = "gosell-client"
)

var (
	ErrSecretNotConfigured = errors.New("signing secret not configured")
	ErrInvalidClaims       = errors.New("invalid token claims")
)

// SignRequestToken signs the assertion sent as the bearer token of one
// API call. requestID becomes the JWT ID.
func SignRequestToken(secret, keyID, requestID string, scopes []string, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrSecretNotConfigured
	}

	claims := models.RequestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(RequestTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			Issuer:    requestTokenIssuer,
			Subject:   keyID,
			ID:        requestID,
		},
		KeyID:  keyID,
		Scopes: scopes,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseRequestToken parses and validates a request assertion.
// It returns the claims if valid, or an error if something is wrong.
func ParseRequestToken(secret, tokenStr string) (*models.RequestClaims, error) {
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.RequestClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(requestTokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.RequestClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

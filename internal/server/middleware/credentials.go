package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashedKey accepts a key whose bcrypt hash is configured, so the plaintext
// key never has to live in a config file.
type HashedKey struct {
	Hash   string
	Caller string
}

// ValidateKey compares key with the stored bcrypt hash.
func (h HashedKey) ValidateKey(key string) (string, bool) {
	if bcrypt.CompareHashAndPassword([]byte(h.Hash), []byte(key)) != nil {
		return "", false
	}
	return h.Caller, true
}

// HashKey returns the bcrypt hash of key for use as server.api_key_hash.
func HashKey(key string, cost int) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}

// TokenClaims are the claims of a pipeline API token. The subject names the
// caller in logs.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// JWTKeys accepts HS256 tokens signed with Secret.
type JWTKeys struct {
	Secret []byte
}

// ValidateKey parses key as a signed token and returns its subject.
func (j JWTKeys) ValidateKey(key string) (string, bool) {
	claims, err := ParseToken(j.Secret, key)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

// IssueToken signs a token for subject that expires after ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("token secret is empty")
	}
	if subject == "" {
		return "", fmt.Errorf("token subject is empty")
	}
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, token string) (*TokenClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// AnyOf accepts a key when any of validators does.
type AnyOf []KeyValidator

// ValidateKey tries each validator in order.
func (a AnyOf) ValidateKey(key string) (string, bool) {
	for _, v := range a {
		if caller, ok := v.ValidateKey(key); ok {
			return caller, true
		}
	}
	return "", false
}

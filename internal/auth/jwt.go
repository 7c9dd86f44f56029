package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned for any session credential that fails
// verification: malformed, bad signature, or expired. Callers treat all three
// the same way.
var ErrInvalidCredential = errors.New("invalid session credential")

// Issuer signs and verifies stateless session credentials. The secret is
// process-wide and read-only after startup.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Issuer{secret: secret, ttl: ttl}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// Issue produces a signed credential asserting the account's identity.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks the credential and returns the account id it asserts.
// Verification failure is terminal; callers never retry.
func (i *Issuer) Verify(credential string) (int64, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredential
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidCredential
	}

	return claims.UserID, nil
}

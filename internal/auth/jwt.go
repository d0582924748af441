// Package auth implements the token service: issuing and verifying the
// signed session tokens that carry a user's identity and tenant membership,
// plus bcrypt password helpers and the optional logout denylist.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by VerifyToken for every failure mode: bad
// signature, wrong algorithm, malformed input, or expiry. Callers must not
// be able to tell which one occurred, so nothing more specific is exposed.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the decoded content of a session token. TenantID and
// TenantSlug are the sole source of tenant scoping for every request;
// handlers never accept tenant identifiers from the client.
type Identity struct {
	UserID     uint64
	Email      string
	Role       string
	TenantID   uint64
	TenantSlug string
	TokenID    string    // jti claim, used by the logout denylist
	ExpiresAt  time.Time // exp claim
}

// IssueToken builds and signs an HS256 session token for the given identity.
// The token carries sub (user id), email, role, tenant_id, tenant_slug, a
// random jti, iat and exp = now + ttl. It returns the signed string and the
// expiry time.
func IssueToken(secret string, ident Identity, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	jti, err := randomHex(16)
	if err != nil {
		return "", time.Time{}, err
	}
	claims := jwt.MapClaims{
		"sub":         ident.UserID,
		"email":       ident.Email,
		"role":        ident.Role,
		"tenant_id":   ident.TenantID,
		"tenant_slug": ident.TenantSlug,
		"jti":         jti,
		"iat":         now.Unix(),
		"exp":         exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken validates the signature and expiry of a session token and
// returns the decoded identity. Any failure yields ErrInvalidToken; the
// cause is deliberately not distinguished. Tokens without an exp claim are
// rejected outright: every accepted identity carries an expiry, which the
// logout denylist depends on for its TTL.
func VerifyToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	var ident Identity
	ident.UserID, ok = claimUint(claims, "sub")
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	ident.TenantID, _ = claimUint(claims, "tenant_id")
	ident.Email, _ = claims["email"].(string)
	ident.Role, _ = claims["role"].(string)
	ident.TenantSlug, _ = claims["tenant_slug"].(string)
	ident.TokenID, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ident.ExpiresAt = exp.Time
	}
	return ident, nil
}

// claimUint reads a numeric claim. JSON decoding yields float64 for numbers.
func claimUint(claims jwt.MapClaims, key string) (uint64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case int64:
		return uint64(v), true
	}
	return 0, false
}

// randomHex returns a hex-encoded string from n bytes of secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

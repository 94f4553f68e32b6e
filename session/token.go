package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is an exported constant or variable used by the login gate.
var ErrTokenInvalid = fmt.Errorf("invalid session token")

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// EncodeToken mints an HS256-signed representation of sess. The subject is
// the identity and iat is the session login time; ttl > 0 adds an exp claim
// relative to now. The stored record remains the source of truth; the token
// is a convenience for consumers that want a stateless read.
func EncodeToken(sess *Session, key []byte, ttl time.Duration, now time.Time) (string, error) {
	if sess == nil {
		return "", ErrTokenInvalid
	}
	if len(key) == 0 {
		return "", fmt.Errorf("%w: no signing key", ErrTokenInvalid)
	}

	claims := tokenClaims{
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.Identity,
			IssuedAt: jwt.NewNumericDate(time.UnixMilli(sess.LoginTime)),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return token, nil
}

// ParseToken validates an HS256 session token and reconstructs the session
// record it encodes.
func ParseToken(token string, key []byte) (*Session, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: no signing key", ErrTokenInvalid)
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sess := &Session{
		Identity: claims.Subject,
		Role:     claims.Role,
	}
	if claims.IssuedAt != nil {
		sess.LoginTime = claims.IssuedAt.Time.UnixMilli()
	}
	return sess, nil
}

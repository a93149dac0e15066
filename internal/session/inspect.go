package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a token without verifying it.
type TokenInfo struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	Subject   string
}

// Describe decodes the claims of a JWT bearer token without checking its
// signature. Validity is only ever established by the server.
func Describe(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("token is not a JWT: %w", err)
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else {
		for _, key := range []string{"id", "userId", "user_id"} {
			if v, ok := claims[key].(string); ok && v != "" {
				info.Subject = v
				break
			}
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	return info, nil
}

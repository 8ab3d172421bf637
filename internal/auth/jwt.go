// Package auth adapts the external identity service: it resolves a
// bearer credential into user claims. The only deployed implementation
// verifies HMAC-signed JWTs issued by that service.
package auth

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/peercall/peercall/internal/domain"
)

type Verifier interface {
	Verify(token string) (domain.Claims, error)
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(tokenStr string) (domain.Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Claims{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Claims{}, fmt.Errorf("%w: unexpected claims type", domain.ErrUnauthorized)
	}

	uid, err := subjectUserID(mc["sub"])
	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims := domain.Claims{UserID: uid}
	if role, ok := mc["role"].(string); ok {
		claims.Role = role
	}
	return claims, nil
}

// subjectUserID accepts the subject claim as either a JSON number or a
// numeric string; the identity service has emitted both over time.
func subjectUserID(sub any) (domain.UserID, error) {
	switch v := sub.(type) {
	case float64:
		return domain.UserID(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric subject %q", v)
		}
		return domain.UserID(id), nil
	default:
		return 0, fmt.Errorf("missing or invalid subject claim")
	}
}

package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookrental/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: subject is the user id.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the caller identity services consume.
func (c *Claims) Identity() model.Identity {
	return model.Identity{UserID: c.Subject, Role: c.Role}
}

func Issue(secret string, userID string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseAuth verifies a raw token or an "Authorization: Bearer" header value.
func ParseAuth(authHeader string, secret string) (*Claims, error) {
	tokenStr := strings.TrimSpace(authHeader)
	if tokenStr == "" {
		return nil, errors.New("missing authorization")
	}

	if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
		tokenStr = strings.TrimSpace(tokenStr[7:])
	}
	if tokenStr == "" {
		return nil, errors.New("missing token")
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("sub missing in claims")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return claims, nil
}

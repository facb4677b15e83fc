package jwtx

import (
	"errors"

	"bookrental/model"
	jwtutil "bookrental/util/jwt"

	"github.com/labstack/echo/v4"
)

// ContextKey is where the JWT middleware stores verified claims.
const ContextKey = "user"

var ErrNoIdentity = errors.New("no verified identity in context")

func IdentityFromContext(c echo.Context) (model.Identity, error) {
	claims, ok := c.Get(ContextKey).(*jwtutil.Claims)
	if !ok || claims == nil {
		return model.Identity{}, ErrNoIdentity
	}
	return claims.Identity(), nil
}

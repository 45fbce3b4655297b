package handlers

import (
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentClaims returns the token claims stored by the auth middleware.
func CurrentClaims(c *gin.Context) (pkgAuth.Claims, bool) {
	val, ok := c.Get(middleware.ClaimsContextKey)
	if !ok {
		return pkgAuth.Claims{}, false
	}
	claims, ok := val.(pkgAuth.Claims)
	return claims, ok
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: err.Error()})
}

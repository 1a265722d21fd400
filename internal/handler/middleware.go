package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/service"
)

const principalKey = "principal"

// AuthMiddleware validates the bearer access token and stores the caller's principal in the context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, domain.ErrUnauthorized)
			return
		}

		principal, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by AuthMiddleware
func CurrentPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := v.(domain.Principal)
	return principal, ok
}

// mustPrincipal aborts with 401 when the route was mounted without AuthMiddleware
func mustPrincipal(c *gin.Context) (domain.Principal, bool) {
	principal, ok := CurrentPrincipal(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
	}
	return principal, ok
}

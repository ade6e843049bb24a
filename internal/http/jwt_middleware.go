package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"riskadvisor/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware valida los bearer tokens del gateway y guarda claims en el contexto.
func JWTAuthMiddleware(tokens *service.GatewayTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.Enabled() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(c.Request.Context(), token)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, service.ErrJWTExpired):
				msg = "token expired"
			case errors.Is(err, service.ErrJWTRevoked):
				msg = "token revoked"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.GatewayClaims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.GatewayClaims{}, false
	}
	claims, ok := val.(service.GatewayClaims)
	return claims, ok
}

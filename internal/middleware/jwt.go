package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

// ContextAdminKey is the gin context key storing verified admin claims.
const ContextAdminKey = "currentAdmin"

// TokenValidator verifies admin bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.AdminClaims, error)
}

// AdminAuth protects admin routes with a bearer token. A nil validator
// leaves the routes open, which is how unauthenticated deployments run.
func AdminAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// AdminFromContext returns the claims stored by AdminAuth, if any.
func AdminFromContext(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.AdminClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

package middleware

import (
	"errors"
	"strings"

	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Validate(bearerToken(c))
		if err != nil {
			if errors.Is(err, services.ErrTokenMissing) {
				c.JSON(401, gin.H{"error": err.Error()})
			} else {
				c.JSON(403, gin.H{"error": services.ErrTokenInvalid.Error()})
			}
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and otherwise
// lets the request through untouched.
func OptionalAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := tokens.Validate(bearerToken(c)); err == nil {
			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !claims.IsAdmin {
			c.JSON(403, gin.H{"error": "Forbidden: Access denied for non-admin users"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetClaims returns the verified claims stored by AuthMiddleware.
func GetClaims(c *gin.Context) (*services.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

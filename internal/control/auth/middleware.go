package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth aborts with 401 unless the request carries a valid
// "Bearer <token>" Authorization header, and sets operator_id/username
// in the gin context for handlers to read.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.claimsFromHeader(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "unauthorized", "error": err.Error()})
			c.Abort()
			return
		}
		c.Set("operator_id", claims.OperatorID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// OptionalAuth sets operator_id/username when a valid bearer token is
// present, but never rejects the request.
func (s *Service) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := s.claimsFromHeader(c); err == nil {
			c.Set("operator_id", claims.OperatorID)
			c.Set("username", claims.Username)
		}
		c.Next()
	}
}

func (s *Service) claimsFromHeader(c *gin.Context) (*JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errors.New("authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("invalid authorization header format")
	}
	return s.ValidateToken(parts[1])
}

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/oasisline/backoffice/internal/gateway"
	redisx "github.com/oasisline/backoffice/internal/redis"
)

// Claims is the subset of the gateway's access token this layer reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the gateway-issued bearer token locally (same HS256 secret
// the gateway signs with) and rejects blacklisted tokens. On success the
// caller's id lands in the gin context and the token travels with the request
// context so gateway calls run under the caller's identity.
func Auth(secret string, sessions *redisx.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if sessions != nil && sessions.IsRevoked(c.Request.Context(), tokenStr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked"})
			return
		}
		claims := token.Claims.(*Claims)

		c.Set("uid", claims.Subject)
		c.Set("token", tokenStr)
		c.Request = c.Request.WithContext(gateway.WithToken(c.Request.Context(), tokenStr))
		c.Next()
	}
}

// TokenTTL reports how long the token stays valid, for blacklisting on
// logout. Unparseable expiry falls back to an hour.
func TokenTTL(tokenStr string) time.Duration {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return time.Hour
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Hour
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return time.Minute
	}
	return ttl
}

package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// Auth validates the Bearer token on the request and stores the caller's
// identity on the gin context. Requests without a valid token are rejected
// with 401 before reaching any handler.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthenticated(c)
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthenticated(c)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthenticated(c)
			return
		}

		subject, err := claims.GetSubject()
		if err != nil || subject == "" {
			abortUnauthenticated(c)
			return
		}

		c.Set(ContextUserID, subject)
		if email, ok := claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}

		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "authentication required",
	})
}

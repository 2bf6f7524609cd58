package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	AccountContextKey = "accountID"
	RoleContextKey    = "role"
	EmailContextKey   = "email"
)

// GuestTokenHeader carries the anonymous cart token for unauthenticated
// shoppers.
const GuestTokenHeader = "X-Guest-Token"

// AuthMiddleware validates the Bearer token and puts the account identity
// on the context. Requests without a valid token are rejected.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseToken(c, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the account identity when a valid Bearer
// token is present but lets anonymous requests through. Cart routes use it
// so guests and accounts share the same endpoints.
func OptionalAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			claims, err := parseToken(c, secret)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				c.Abort()
				return
			}
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// AdminOnly restricts access to the admin role. It must run after
// AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleContextKey)
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAccountID extracts the authenticated account ID from the Gin context.
func GetAccountID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(AccountContextKey); ok {
		if id, ok := val.(uuid.UUID); ok && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, errors.New("account ID not found in context")
}

func parseToken(c *gin.Context, secret []byte) (jwt.MapClaims, error) {
	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		return nil, errors.New("Missing token")
	}
	if !strings.HasPrefix(tokenString, "Bearer ") {
		return nil, errors.New("Invalid token format")
	}
	tokenString = tokenString[7:]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("Invalid token claims")
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	sub, _ := claims["sub"].(string)
	accountID, err := uuid.Parse(sub)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid subject claim"})
		c.Abort()
		return
	}

	c.Set(AccountContextKey, accountID)
	if role, ok := claims["role"].(string); ok {
		c.Set(RoleContextKey, role)
	}
	if email, ok := claims["email"].(string); ok {
		c.Set(EmailContextKey, email)
	}
}

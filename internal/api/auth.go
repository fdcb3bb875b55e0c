package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zulandar/multidb/internal/models"
)

const identityKey = "multidb.identity"

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	// Secret is the shared HS256 key. Required.
	Secret string
	// Issuer is the expected "iss" claim. Empty skips the check.
	Issuer string
}

// Identity is the caller a validated token names.
type Identity struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool { return strings.EqualFold(id.Role, models.RoleAdmin) }

// Claims are the token claims the API reads: "sub" carries the numeric user
// ID and "role" the user's role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// validateToken parses an HS256 token and extracts the caller identity.
func validateToken(cfg AuthConfig, tokenString string) (Identity, error) {
	if cfg.Secret == "" {
		return Identity{}, errors.New("authentication not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, fmt.Errorf("invalid token: subject %q is not a user id", claims.Subject)
	}
	return Identity{UserID: uint(id), Role: claims.Role}, nil
}

// authenticate rejects requests without a valid bearer token and stores the
// caller's Identity on the context.
func authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		id, err := validateToken(cfg, strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// requireAdmin rejects non-admin callers. It must run after authenticate.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin role required"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) Identity {
	id, _ := c.Get(identityKey)
	v, _ := id.(Identity)
	return v
}

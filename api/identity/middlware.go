// Package identity authorizes requests with bearer tokens.
package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/gin-gonic/gin"
)

const (
	// ContextClaims is the key used to store token claims in the Gin context.
	ContextClaims = "tokenClaims"

	// tokenQueryParam carries the token where headers cannot be set, e.g. browser websockets.
	tokenQueryParam = "token"
)

// Authoriz validates the bearer token of the request and stores its claims in the context.
// The token is read from the Authorization header, or from the token query parameter
// when the header is absent.
func Authoriz(ts i.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := ts.Decode(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Attach claims to the request context for further use.
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query(tokenQueryParam)
		return token, token != ""
	}

	// Split the "Bearer" prefix from the token.
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireClaim lets a request through only when the token claim named claim equals
// the route parameter named param. Must run after Authoriz.
func RequireClaim(claim, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(ContextClaims)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, ok := raw.(map[string]interface{})
		if !ok || fmt.Sprint(claims[claim]) != c.Param(param) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not grant access to this resource"})
			return
		}
		c.Next()
	}
}

package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stashbin/stashbin/pkg/types"
)

const (
	SessionCookieName = "user-session"

	actorKey  = "actor"
	claimsKey = "jwtUser"
)

func Encode(secret string, claims *types.JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Decode(secret string, token string) (*types.JWTClaims, error) {
	claims := &types.JWTClaims{}

	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware resolves the session cookie or bearer token into an actor.
// Unauthenticated callers never get past it.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		cookie, err := c.Request.Cookie(SessionCookieName)
		if err != nil {
			authHeader := c.GetHeader("Authorization")
			bearerToken := strings.Split(authHeader, "Bearer ")
			if len(bearerToken) != 2 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth token"})
				return
			}
			token = bearerToken[1]
		} else {
			token = cookie.Value
		}

		claims, err := Decode(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		userId, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(actorKey, &types.Actor{ID: userId, IsAdmin: claims.IsAdmin})

		c.Next()
	}
}

// RequireAdmin must run after Middleware.
func RequireAdmin(c *gin.Context) {
	actor := GetActor(c)
	if actor == nil || !actor.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator access required"})
		return
	}
	c.Next()
}

func GetActor(c *gin.Context) *types.Actor {
	actor, _ := c.Get(actorKey)
	if a, ok := actor.(*types.Actor); ok {
		return a
	}
	return nil
}

func GetClaims(c *gin.Context) *types.JWTClaims {
	claims, _ := c.Get(claimsKey)
	if cl, ok := claims.(*types.JWTClaims); ok {
		return cl
	}
	return nil
}

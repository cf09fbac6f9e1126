package main

import (
	"fmt"
	"strings"

	"github.com/abhishek622/hiregate/internal/auth"
	"github.com/abhishek622/hiregate/internal/handler"
	"github.com/abhishek622/hiregate/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the bearer token into the actor every workflow
// operation runs as.
func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyClaimsFromAuthHeader(c, app.TokenMaker)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		actor, err := claims.Actor()
		if err != nil {
			response.Unauthorized(c, "Unauthorized access")
			c.Abort()
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}

// RateLimitMiddleware limits requests per agency. It must run after
// AuthMiddleware.
func (app *application) RateLimitMiddleware() gin.HandlerFunc {
	limit := app.Config.Limiter
	return func(c *gin.Context) {
		if !limit.Enabled {
			c.Next()
			return
		}
		actor, ok := handler.GetActorFromContext(c)
		if !ok {
			c.Next()
			return
		}
		if !app.Limiter.Allow(c.Request.Context(), "agency:"+actor.AgencyID.String(), limit.Requests, limit.Window) {
			response.TooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

func verifyClaimsFromAuthHeader(c *gin.Context, tokenMaker *auth.JWTMaker) (*auth.ActorClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}

	claims, err := tokenMaker.VerifyToken(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	return claims, nil
}

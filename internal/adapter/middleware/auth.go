package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/infrastructure/auth"
)

const actorKey = "actor"

type TokenValidator interface {
	ValidateToken(raw string) (*auth.Claims, error)
}

// Auth requires a bearer token and stores the resolved actor on the context.
func Auth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			claims, err := tokens.ValidateToken(strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			SetActor(c, claims.Actor())
			return next(c)
		}
	}
}

func SetActor(c echo.Context, a actor.Actor) { c.Set(actorKey, a) }

// ActorFrom returns the authenticated actor, or the zero (anonymous) actor.
func ActorFrom(c echo.Context) actor.Actor {
	a, _ := c.Get(actorKey).(actor.Actor)
	return a
}

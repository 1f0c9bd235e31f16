// Package session gives every browser a stable id cookie. Storage
// namespaces and per-session guards are keyed by it.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const contextKey = "session_id"

type Config struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

func DefaultConfig() Config {
	return Config{
		CookieName: "ref_sid",
		MaxAge:     365 * 24 * time.Hour,
	}
}

// Middleware reuses a well-formed id cookie or issues a new one.
func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				if u, err := uuid.Parse(ck.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					Secure:   cfg.Secure,
					HttpOnly: true,
					MaxAge:   int(cfg.MaxAge.Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(contextKey, id)
			return next(c)
		}
	}
}

// ID is the current request's session id, "" outside the middleware.
func ID(c echo.Context) string {
	id, _ := c.Get(contextKey).(string)
	return id
}

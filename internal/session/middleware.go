package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// Middleware decodes the session cookie into Values available through
// FromContext. Missing or invalid cookies yield anonymous Values; an invalid
// cookie is also expired in the response.
func Middleware(codec *Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var v Values
			if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
				decoded, err := codec.Decode(cookie.Value)
				switch {
				case err == nil:
					v = decoded
				case errors.Is(err, ErrInvalidSession):
					slog.Debug("discarding session cookie", "error", err, "path", c.Request().URL.Path)
					c.SetCookie(codec.ExpiredCookie())
				default:
					return err
				}
			} else if err != nil && !errors.Is(err, http.ErrNoCookie) {
				return err
			}
			c.Set(contextKey, v)
			return next(c)
		}
	}
}

// FromContext returns the Values decoded by Middleware, or anonymous Values.
func FromContext(c echo.Context) Values {
	v, _ := c.Get(contextKey).(Values)
	return v
}

// Save writes v as the session cookie and makes it visible to later
// handlers in the same request.
func Save(c echo.Context, codec *Codec, v Values) error {
	cookie, err := codec.Cookie(v)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	c.Set(contextKey, v)
	return nil
}

// Clear expires the session cookie.
func Clear(c echo.Context, codec *Codec) {
	c.SetCookie(codec.ExpiredCookie())
	c.Set(contextKey, Values{})
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const originalPathKey = "_original_path"

// StripPathPrefix makes the app routable behind reverse proxies that mount
// it under a sub-path. The proxy announces the mount point through
// X-Forwarded-Prefix; the prefix is stripped before routing, so it must be
// registered with e.Pre. The pre-strip path is kept in the context for
// BaseURL.
func StripPathPrefix() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			originalPath := c.Request().URL.Path

			for _, prefix := range c.Request().Header.Values("X-Forwarded-Prefix") {
				if prefix == "" {
					continue
				}
				normalized := prefix
				if !strings.HasSuffix(normalized, "/") {
					normalized += "/"
				}

				if strings.HasPrefix(originalPath, normalized) {
					stripped := originalPath[len(normalized)-1:]
					c.Request().URL.Path = stripped
					c.Request().URL.RawPath = ""
					// RequestURI has to follow, echo routes on it too.
					c.Request().RequestURI = stripped
					if q := c.Request().URL.RawQuery; q != "" {
						c.Request().RequestURI = stripped + "?" + q
					}
					c.Set(originalPathKey, originalPath)
					break
				}

				// A request for the bare mount point gets sent to its slash
				// form so relative links on the welcome page resolve.
				if originalPath == prefix || originalPath == prefix+"/" {
					return c.Redirect(http.StatusFound, normalized)
				}
			}

			return next(c)
		}
	}
}

// BaseURL reconstructs the externally visible base of the app for the given
// request, honoring the forwarding headers a reverse proxy sets. The result
// always ends in "/".
func BaseURL(c echo.Context) string {
	scheme := "http"
	if c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	host := c.Request().Host
	if forwarded := c.Request().Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}

	routed := c.Path()
	requested := c.Request().URL.Path
	if stored, ok := c.Get(originalPathKey).(string); ok && stored != "" {
		requested = stored
	}

	// Whatever of the requested path precedes the routed path is the proxy
	// mount point.
	if routed != "" && requested != routed && strings.HasSuffix(requested, routed) {
		prefix := requested[:len(requested)-len(routed)]
		if prefix != "" {
			if !strings.HasSuffix(prefix, "/") {
				prefix += "/"
			}
			return scheme + "://" + host + prefix
		}
	}

	return scheme + "://" + host + "/"
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
)

// GetKeyAuthConfig builds the key auth middleware applied to every route.
// The Skipper exempts the health endpoints and disables the check entirely
// while no keys are configured; keys can arrive at runtime through
// api_keys.json, so the key list is re-read on every request. Bearer tokens
// that are not a configured key fall through to OIDC validation when an
// issuer is configured.
func GetKeyAuthConfig(applicationConfig *config.ApplicationConfig) (echo.MiddlewareFunc, error) {
	verifier, err := newOIDCVerifier(applicationConfig)
	if err != nil {
		return nil, err
	}

	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:Authorization:Bearer ,header:x-api-key,cookie:token",
		Skipper: func(c echo.Context) bool {
			if len(applicationConfig.ApiKeys) == 0 && verifier == nil {
				return true
			}
			switch c.Path() {
			case "/healthz", "/readyz":
				return true
			}
			return false
		},
		Validator:    getApiKeyValidationFunction(applicationConfig, verifier),
		ErrorHandler: getApiKeyErrorHandler(applicationConfig),
	}), nil
}

func getApiKeyErrorHandler(applicationConfig *config.ApplicationConfig) func(error, echo.Context) error {
	return func(err error, c echo.Context) error {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		if applicationConfig.OpaqueErrors {
			return c.NoContent(http.StatusUnauthorized)
		}
		return c.JSON(http.StatusUnauthorized, schema.ErrorResponse{
			Error: &schema.APIError{
				Message: "An authentication key is required",
				Code:    http.StatusUnauthorized,
				Type:    "invalid_request_error",
			},
		})
	}
}

func getApiKeyValidationFunction(applicationConfig *config.ApplicationConfig, verifier *oidcVerifier) middleware.KeyAuthValidator {
	if applicationConfig.UseSubtleKeyComparison {
		return func(apiKey string, c echo.Context) (bool, error) {
			for _, validKey := range applicationConfig.ApiKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
					return true, nil
				}
			}
			return verifier.verify(c.Request().Context(), apiKey), nil
		}
	}

	return func(apiKey string, c echo.Context) (bool, error) {
		for _, validKey := range applicationConfig.ApiKeys {
			if apiKey == validKey {
				return true, nil
			}
		}
		return verifier.verify(c.Request().Context(), apiKey), nil
	}
}

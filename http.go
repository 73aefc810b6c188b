package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/aprog93/radio-auth/middleware/jwtware"
)

// StatusFromError maps a structured error to its HTTP status. An
// explicit code on the error wins; otherwise the category decides.
func StatusFromError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders the uniform JSON failure body. Every service
// failure is surfaced verbatim; there are no retries and no silent
// recovery at this boundary.
func WriteError(c *fiber.Ctx, err error) error {
	message := err.Error()

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		message = richErr.Message
	}

	return c.Status(StatusFromError(err)).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// Protected builds the authorization gate for routes that only need a
// verified identity.
func Protected(validator TokenValidator, cfg Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{validator},
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// ProtectedWithRole builds the gate for routes that additionally
// require at least minRole. A missing or invalid token still answers
// 401 here; only a valid token with an under-privileged role gets 403.
func ProtectedWithRole(validator TokenValidator, cfg Config, minRole UserRole) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{validator},
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		MinimumRole:    minRole,
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// ClaimsFromFiber reads the gate-stored claims back out of the request.
func ClaimsFromFiber(c *fiber.Ctx, contextKey string) (AuthClaims, bool) {
	if contextKey == "" {
		contextKey = "user"
	}

	raw := c.Locals(contextKey)
	if raw == nil {
		return nil, false
	}

	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// tokenValidatorAdapter bridges the root package's TokenValidator to
// the middleware's mirrored interface.
type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

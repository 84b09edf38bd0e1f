package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// Session cookie names, shared with the handlers that set and clear them.
const (
	AdminCookie = "admin_session"
	VoterCookie = "voter_session"
)

// Context keys under which the parsed credentials are stored.
const (
	adminCredentialKey = "admin_credential"
	voterCredentialKey = "voter_credential"
)

// AdminTokenParser is the part of the admin auth service the middleware needs.
type AdminTokenParser interface {
	ParseToken(token string) (domain.AdminCredential, error)
}

// VoterTokenParser is the part of the voter auth service the middleware needs.
type VoterTokenParser interface {
	ParseToken(token string) (domain.VoterCredential, error)
	IsRevoked(ctx context.Context, cred domain.VoterCredential) (bool, error)
}

// AdminAuth validates the admin token from the Authorization header or the
// admin session cookie and injects the credential into context.
func AdminAuth(parser AdminTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerOrCookie(c, AdminCookie)
			if err != nil {
				return err
			}

			cred, err := parser.ParseToken(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(adminCredentialKey, cred)
			return next(c)
		}
	}
}

// VoterAuth validates the voter token and rejects revoked sessions. A failing
// revocation lookup is returned as-is so the error handler reports the store
// outage instead of letting the request through.
func VoterAuth(parser VoterTokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerOrCookie(c, VoterCookie)
			if err != nil {
				return err
			}

			cred, err := parser.ParseToken(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			revoked, err := parser.IsRevoked(c.Request().Context(), cred)
			if err != nil {
				return err
			}
			if revoked {
				return domain.ErrSessionRevoked
			}

			c.Set(voterCredentialKey, cred)
			return next(c)
		}
	}
}

// AdminCredential returns the credential set by AdminAuth.
func AdminCredential(c echo.Context) (domain.AdminCredential, bool) {
	cred, ok := c.Get(adminCredentialKey).(domain.AdminCredential)
	return cred, ok && cred.AdminID != ""
}

// VoterCredential returns the credential set by VoterAuth.
func VoterCredential(c echo.Context) (domain.VoterCredential, bool) {
	cred, ok := c.Get(voterCredentialKey).(domain.VoterCredential)
	return cred, ok && cred.VoterID != ""
}

// bearerOrCookie prefers the Authorization header and falls back to the named
// cookie.
func bearerOrCookie(c echo.Context, cookie string) (string, error) {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}

	if ck, err := c.Cookie(cookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
}

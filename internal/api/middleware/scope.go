package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// ElectionScope enforces that the voter credential was issued for the election
// named by the path parameter. It must run after VoterAuth.
func ElectionScope(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cred, ok := VoterCredential(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if cred.ElectionID != c.Param(param) {
				return domain.ErrScopeMismatch
			}
			return next(c)
		}
	}
}

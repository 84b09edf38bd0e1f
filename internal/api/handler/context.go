package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/api/middleware"
	"github.com/ballotcore/election-system/internal/core/domain"
)

// ctxAdmin extracts the credential injected by AdminAuth. Its absence means
// the route was registered without the middleware.
func ctxAdmin(c echo.Context) (domain.AdminCredential, error) {
	cred, ok := middleware.AdminCredential(c)
	if !ok {
		return domain.AdminCredential{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return cred, nil
}

func ctxVoter(c echo.Context) (domain.VoterCredential, error) {
	cred, ok := middleware.VoterCredential(c)
	if !ok {
		return domain.VoterCredential{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return cred, nil
}

// Cookies is the session cookie policy shared by the login handlers.
type Cookies struct {
	Secure bool
}

func (ck Cookies) set(c echo.Context, name, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ck Cookies) clear(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

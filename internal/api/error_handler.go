package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/core/domain"
)

// retryAfterSeconds is sent with 503 responses when the store is unreachable.
const retryAfterSeconds = "5"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if code == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", retryAfterSeconds)
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// mappings are checked in order, so narrower sentinels come before the kind
// they wrap.
var mappings = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "service temporarily unavailable"},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrInvalidAccessKey, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "session expired"},
	{domain.ErrSessionRevoked, http.StatusUnauthorized, "session revoked"},
	{domain.ErrScopeMismatch, http.StatusForbidden, "credential not valid for this election"},
	{domain.ErrEmailNotVerified, http.StatusForbidden, "email not verified"},
	{domain.ErrVotingClosed, http.StatusForbidden, "voting is closed"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},

	{domain.ErrElectionNotFound, http.StatusNotFound, "election not found"},
	{domain.ErrVoterNotFound, http.StatusNotFound, "voter not found"},
	{domain.ErrNotFound, http.StatusNotFound, "not found"},

	{domain.ErrAlreadyVoted, http.StatusConflict, "already voted"},
	{domain.ErrAlreadyVerified, http.StatusConflict, "email already verified"},
	{domain.ErrAdminExists, http.StatusConflict, "admin already exists"},
	{domain.ErrConflict, http.StatusConflict, "concurrent modification, retry"},

	{domain.ErrElectionOngoing, http.StatusConflict, "election is ongoing"},
	{domain.ErrElectionClosed, http.StatusConflict, "election can no longer be modified"},
	{domain.ErrResultsNotReady, http.StatusConflict, "results are available once the election is completed"},
	{domain.ErrInvariantViolation, http.StatusConflict, "operation not allowed in the current election state"},

	{domain.ErrInvalidToken, http.StatusBadRequest, "invalid or expired token"},
	{domain.ErrInvalidOrExpiredCode, http.StatusBadRequest, "invalid or expired code"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range mappings {
		if errors.Is(err, m.err) {
			if m.code == http.StatusServiceUnavailable {
				log.Warn().Err(err).Str("path", c.Path()).Msg("store unavailable")
			}
			return m.code, m.msg
		}
	}

	// Input errors carry their own description.
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

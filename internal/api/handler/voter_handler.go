package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/api/middleware"
	"github.com/ballotcore/election-system/internal/core/ports"
)

// VoterHandler serves voter login, the ballot and vote submission.
type VoterHandler struct {
	auth      ports.VoterAuthService
	elections ports.ElectionService
	votes     ports.VoteService
	cookies   Cookies
}

func NewVoterHandler(auth ports.VoterAuthService, elections ports.ElectionService, votes ports.VoteService, cookies Cookies) *VoterHandler {
	return &VoterHandler{auth: auth, elections: elections, votes: votes, cookies: cookies}
}

// Login handles POST /v1/elections/:id/voters/login.
//
// @Summary      Voter login
// @Tags         voting
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Election id"
// @Param        body  body      voterLoginRequest  true  "Voter id and access key"
// @Success      200   {object}  voterLoginResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/elections/{id}/voters/login [post]
func (h *VoterHandler) Login(c echo.Context) error {
	var req voterLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, cred, err := h.auth.Login(c.Request().Context(), c.Param("id"), req.VoterID, req.AccessKey)
	if err != nil {
		return err
	}

	h.cookies.set(c, middleware.VoterCookie, token, cred.ExpiresAt)
	return c.JSON(http.StatusOK, voterLoginResponse{Token: token, ExpiresAt: cred.ExpiresAt})
}

// Ballot handles GET /v1/elections/:id/ballot.
//
// @Summary      Get the ballot
// @Tags         voting
// @Produce      json
// @Security     VoterAuth
// @Param        id   path      string  true  "Election id"
// @Success      200  {object}  ports.BallotView
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/elections/{id}/ballot [get]
func (h *VoterHandler) Ballot(c echo.Context) error {
	cred, err := ctxVoter(c)
	if err != nil {
		return err
	}

	view, err := h.elections.Ballot(c.Request().Context(), cred, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Vote handles POST /v1/elections/:id/votes. A recorded ballot ends the
// session.
//
// @Summary      Submit a ballot
// @Tags         voting
// @Accept       json
// @Produce      json
// @Security     VoterAuth
// @Param        id    path      string       true  "Election id"
// @Param        body  body      voteRequest  true  "Selections keyed by slot"
// @Success      201   {object}  voteResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/elections/{id}/votes [post]
func (h *VoterHandler) Vote(c echo.Context) error {
	cred, err := ctxVoter(c)
	if err != nil {
		return err
	}

	var req voteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.votes.RecordVote(c.Request().Context(), cred, c.Param("id"), req.Selections); err != nil {
		return err
	}

	h.cookies.clear(c, middleware.VoterCookie)
	return c.JSON(http.StatusCreated, voteResponse{Status: "recorded"})
}

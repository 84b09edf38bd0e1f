package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/core/ports"
)

type VerificationHandler struct {
	service ports.VerificationService
}

func NewVerificationHandler(service ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Issue emails a fresh verification code and delivery token.
//
// @Summary      Send an email verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verificationRequest  true  "Account email"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/verification [post]
func (h *VerificationHandler) Issue(c echo.Context) error {
	var req verificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Issue(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, messageResponse{Message: "if the account exists, a verification code has been sent"})
}

// Confirm checks the code against the delivery token and marks the email
// verified.
//
// @Summary      Confirm an email verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      confirmVerificationRequest  true  "Delivery token and code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/verification/confirm [post]
func (h *VerificationHandler) Confirm(c echo.Context) error {
	var req confirmVerificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Verify(c.Request().Context(), req.Token, req.Code); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "email verified"})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/core/ports"
)

// ElectionHandler serves the admin election routes.
type ElectionHandler struct {
	elections     ports.ElectionService
	notifications ports.NotificationService
}

func NewElectionHandler(elections ports.ElectionService, notifications ports.NotificationService) *ElectionHandler {
	return &ElectionHandler{elections: elections, notifications: notifications}
}

// List handles GET /v1/elections.
//
// @Summary      List the admin's elections
// @Tags         elections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   electionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/elections [get]
func (h *ElectionHandler) List(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	elections, err := h.elections.List(c.Request().Context(), cred)
	if err != nil {
		return err
	}

	out := make([]electionResponse, 0, len(elections))
	for _, e := range elections {
		out = append(out, toElectionResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/elections.
//
// @Summary      Create an election
// @Tags         elections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      electionRequest  true  "Election configuration"
// @Success      201   {object}  electionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/elections [post]
func (h *ElectionHandler) Create(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	var req electionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.elections.Create(c.Request().Context(), cred, req.toConfig())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/elections/"+e.ID)
	return c.JSON(http.StatusCreated, toElectionResponse(e))
}

// Get handles GET /v1/elections/:id.
//
// @Summary      Get an election
// @Tags         elections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Election id"
// @Success      200  {object}  electionResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/elections/{id} [get]
func (h *ElectionHandler) Get(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	e, err := h.elections.Get(c.Request().Context(), cred, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toElectionResponse(e))
}

// Update handles PUT /v1/elections/:id. Only upcoming elections whose window
// has not started can be changed.
//
// @Summary      Replace an election's configuration
// @Tags         elections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Election id"
// @Param        body  body      electionRequest  true  "Election configuration"
// @Success      200   {object}  electionResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/elections/{id} [put]
func (h *ElectionHandler) Update(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	var req electionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.elections.UpdateConfig(c.Request().Context(), cred, c.Param("id"), req.toConfig())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toElectionResponse(e))
}

// Delete handles DELETE /v1/elections/:id.
//
// @Summary      Delete an election
// @Tags         elections
// @Security     BearerAuth
// @Param        id   path  string  true  "Election id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/elections/{id} [delete]
func (h *ElectionHandler) Delete(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	if err := h.elections.Delete(c.Request().Context(), cred, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Results handles GET /v1/elections/:id/results.
//
// @Summary      Get the tally of a completed election
// @Tags         elections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Election id"
// @Success      200  {object}  ports.ElectionResults
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/elections/{id}/results [get]
func (h *ElectionHandler) Results(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	res, err := h.elections.Results(c.Request().Context(), cred, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Notify handles POST /v1/elections/:id/notifications. Credentials are mailed
// asynchronously.
//
// @Summary      Email access keys to the voter roll
// @Tags         elections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Election id"
// @Success      202  {object}  notificationResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/elections/{id}/notifications [post]
func (h *ElectionHandler) Notify(c echo.Context) error {
	cred, err := ctxAdmin(c)
	if err != nil {
		return err
	}

	taskID, err := h.notifications.EnqueueVoterCredentials(c.Request().Context(), cred, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, notificationResponse{TaskID: taskID})
}

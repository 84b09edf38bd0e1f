package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ballotcore/election-system/internal/core/ports"
)

type StatusHandler struct {
	reconciler ports.StatusReconciler
}

func NewStatusHandler(reconciler ports.StatusReconciler) *StatusHandler {
	return &StatusHandler{reconciler: reconciler}
}

// Reconcile handles POST /internal/status/reconcile for external schedulers.
//
// @Summary      Reconcile election statuses
// @Tags         internal
// @Produce      json
// @Security     CronSecret
// @Success      200  {object}  ports.ReconcileReport
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /internal/status/reconcile [post]
func (h *StatusHandler) Reconcile(c echo.Context) error {
	report, err := h.reconciler.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

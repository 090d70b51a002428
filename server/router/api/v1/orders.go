package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesero-ai/mesero/order"
	"github.com/mesero-ai/mesero/store"
)

// TodayOrders returns the staff dashboard: today's non-paid tickets
// consolidated per group, plus aggregate stats. An empty day returns
// zeroed stats, not 404, so the dashboard can poll it.
func (s *APIV1Service) TodayOrders(c echo.Context) error {
	from, to := store.DayBoundsUnix(time.Now().Unix())
	rows, err := s.Store.ListUnpaidBetween(c.Request().Context(), from, to)
	if err != nil {
		slog.Error("failed to load today's orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load today's orders")
	}
	return c.JSON(http.StatusOK, order.BuildDailyReport(rows))
}

type updateOrderStateRequest struct {
	OrderID int64  `json:"order_id"` // ticket (group) number
	State   string `json:"state"`
}

// UpdateOrderState moves every line item of a ticket to the given
// state and returns the consolidated ticket.
func (s *APIV1Service) UpdateOrderState(c echo.Context) error {
	req := &updateOrderStateRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	status := store.LineItemStatus(req.State)
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown state %q", req.State))
	}

	ctx := c.Request().Context()
	if err := s.Store.UpdateStatusByGroup(ctx, req.OrderID, status, time.Now().Unix()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no order found with order_id %d", req.OrderID))
		}
		slog.Error("failed to update order state", "order_id", req.OrderID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update order state")
	}

	rows, err := s.Store.ListLineItemsByGroup(ctx, req.OrderID)
	if err != nil {
		slog.Error("failed to reload order", "order_id", req.OrderID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reload order")
	}
	group, err := order.Consolidate(rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no order found with order_id %d", req.OrderID))
	}
	return c.JSON(http.StatusOK, group)
}

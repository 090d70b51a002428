package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesero-ai/mesero/order"
	"github.com/mesero-ai/mesero/store"
)

func TestTodayOrdersHandler(t *testing.T) {
	now := time.Now().Unix()
	driver := newFakeDriver()
	driver.unpaid = []*store.LineItem{
		{GroupID: 1, ProductName: "Burger", Quantity: 1, UnitPrice: 10, LineTotal: 10, Status: store.StatusCompleted, CreatedTs: now, UpdatedTs: now},
		{GroupID: 2, ProductName: "Pizza", Quantity: 2, UnitPrice: 15, LineTotal: 30, Status: store.StatusPending, CreatedTs: now, UpdatedTs: now},
	}
	_, e := newTestService(driver, &fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/orders/today", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report order.DailyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 2, report.Stats.TotalOrders)
	require.Equal(t, 1, report.Stats.PendingOrders)
	require.Equal(t, 1, report.Stats.CompleteOrders)
	require.InDelta(t, 10.0, report.Stats.TotalSales, 1e-9)
	require.Len(t, report.Orders, 2)
}

func TestTodayOrdersHandlerEmptyDay(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodGet, "/orders/today", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// An empty day is a zeroed report, not an error, so dashboards can poll.
	require.Equal(t, http.StatusOK, rec.Code)
	var report order.DailyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 0, report.Stats.TotalOrders)
}

func TestUpdateOrderStateHandler(t *testing.T) {
	now := time.Now().Unix()
	driver := newFakeDriver()
	driver.lineItemsByGroup[4] = []*store.LineItem{
		{GroupID: 4, ProductName: "Burger", Quantity: 1, UnitPrice: 10, Status: store.StatusPending, CreatedTs: now, UpdatedTs: now},
	}
	_, e := newTestService(driver, &fakeOrchestrator{})

	rec := postJSON(e, "/orders/update_state", `{"order_id": 4, "state": "in_preparation"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var group order.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &group))
	require.Equal(t, int64(4), group.GroupID)
	require.Equal(t, store.StatusInPreparation, group.Status)
}

func TestUpdateOrderStateHandlerUnknownState(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/orders/update_state", `{"order_id": 4, "state": "teleported"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStateHandlerNotFound(t *testing.T) {
	_, e := newTestService(newFakeDriver(), &fakeOrchestrator{})

	rec := postJSON(e, "/orders/update_state", `{"order_id": 99, "state": "completed"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

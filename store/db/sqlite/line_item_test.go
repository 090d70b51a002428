package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "mesero_test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver
}

func confirmItem(t *testing.T, driver store.Driver, customerID string, ts int64) *store.LineItem {
	t.Helper()
	item, err := driver.CreateLineItemAssigningGroup(context.Background(), &store.LineItem{
		ID:           fmt.Sprintf("item-%s-%d", customerID, ts),
		ProductID:    "p-arepa",
		ProductName:  "Arepa con Queso",
		Quantity:     1,
		UnitPrice:    3.5,
		LineTotal:    3.5,
		Address:      "addr-" + customerID,
		CustomerID:   customerID,
		RestaurantID: "Macchiato",
		Status:       store.StatusPending,
		CreatedTs:    ts,
		UpdatedTs:    ts,
	})
	require.NoError(t, err)
	return item
}

func TestCreateLineItemAssigningGroup(t *testing.T) {
	driver := newTestDriver(t)

	first := confirmItem(t, driver, "alice", 100)
	require.Equal(t, int64(1), first.GroupID)

	second := confirmItem(t, driver, "bob", 110)
	require.Equal(t, int64(2), second.GroupID)

	// Alice's ticket is still open, so her next product joins it.
	appended := confirmItem(t, driver, "alice", 120)
	require.Equal(t, int64(1), appended.GroupID)

	// Appending to an old ticket must not hide the higher open ticket:
	// a new customer gets a fresh number, never bob's open ticket.
	third := confirmItem(t, driver, "carol", 130)
	require.Equal(t, int64(3), third.GroupID)
}

func TestCreateLineItemAssigningGroupAfterClose(t *testing.T) {
	driver := newTestDriver(t)

	first := confirmItem(t, driver, "alice", 100)
	require.NoError(t, driver.UpdateStatusByGroup(context.Background(), first.GroupID, store.StatusCompleted, 150))

	// A closed ticket is never reopened; the same customer gets a new one.
	next := confirmItem(t, driver, "alice", 200)
	require.Equal(t, int64(2), next.GroupID)
}

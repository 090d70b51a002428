package store

// LineItemStatus is the lifecycle state of a single order row. All rows
// sharing a group move through states together (bulk update by group).
type LineItemStatus string

const (
	StatusPending       LineItemStatus = "pending"
	StatusInPreparation LineItemStatus = "in_preparation"
	StatusCompleted     LineItemStatus = "completed"
	StatusPaid          LineItemStatus = "paid"
)

// Terminal reports whether the status closes its group: once a group is
// completed or paid, new confirmations for the customer start a new group.
func (s LineItemStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPaid
}

// Valid reports whether s is one of the known lifecycle states.
func (s LineItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInPreparation, StatusCompleted, StatusPaid:
		return true
	}
	return false
}

// DayBoundsUnix returns the inclusive UTC day window containing ts. Every
// "today" scoped query (open-ticket lookup, status-by-address, dashboard)
// uses this so the boundaries agree across drivers.
func DayBoundsUnix(ts int64) (from, to int64) {
	from = ts - ts%86400
	return from, from + 86399
}

// LineItem is one confirmed product. A logical order is the set of line items
// sharing a GroupID; the group itself is never persisted, only projected at
// read time (see the order package).
type LineItem struct {
	ID           string // uuid
	GroupID      int64  // human-readable ticket number, monotonically increasing
	ProductID    string
	ProductName  string
	Quantity     int
	UnitPrice    float64
	LineTotal    float64 // quantity*unit_price plus add-on charges, frozen at confirmation
	AddOns       string
	Notes        string
	Address      string
	CustomerName string
	CustomerID   string
	RestaurantID string
	Status       LineItemStatus
	CreatedTs    int64
	UpdatedTs    int64
}

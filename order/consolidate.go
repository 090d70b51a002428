package order

import (
	"sort"

	"github.com/mesero-ai/mesero/store"
)

// Product is one entry of a consolidated order, mapped 1:1 from a line item.
type Product struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"observations,omitempty"`
	AddOns   string  `json:"add_ons,omitempty"`
	// LineTotal is the frozen amount charged for this line, including
	// add-on surcharges.
	LineTotal float64 `json:"line_total"`
}

// Group is the consolidated view of all line items sharing one group
// identifier. It is a read-time projection, never persisted: header fields
// come from the first row by creation time, status and update time from the
// last.
type Group struct {
	GroupID      int64                `json:"id"`
	Address      string               `json:"address"`
	CustomerName string               `json:"customer_name"`
	Products     []Product            `json:"products"`
	CreatedTs    int64                `json:"created_ts"`
	UpdatedTs    int64                `json:"updated_ts"`
	Status       store.LineItemStatus `json:"state"`
}

// Total sums the frozen line totals of the group.
func (g *Group) Total() float64 {
	var total float64
	for i := range g.Products {
		total += g.Products[i].LineTotal
	}
	return total
}

// Consolidate builds the Group projection from raw rows. Rows may arrive in
// any order; they are sorted by creation time ascending before the header and
// tail fields are taken. Returns store.ErrNotFound for an empty slice.
func Consolidate(rows []*store.LineItem) (*Group, error) {
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}

	sorted := make([]*store.LineItem, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedTs < sorted[j].CreatedTs
	})

	first, last := sorted[0], sorted[len(sorted)-1]
	group := &Group{
		GroupID:      first.GroupID,
		Address:      first.Address,
		CustomerName: first.CustomerName,
		Products:     make([]Product, 0, len(sorted)),
		CreatedTs:    first.CreatedTs,
		UpdatedTs:    last.UpdatedTs,
		Status:       last.Status,
	}
	for _, row := range sorted {
		group.Products = append(group.Products, Product{
			Name:      row.ProductName,
			Quantity:  row.Quantity,
			Price:     row.UnitPrice,
			Notes:     row.Notes,
			AddOns:    row.AddOns,
			LineTotal: row.LineTotal,
		})
	}
	return group, nil
}

// DailyStats summarizes the day's tickets for the staff dashboard.
type DailyStats struct {
	TotalOrders    int     `json:"total_orders"`
	PendingOrders  int     `json:"pending_orders"`
	CompleteOrders int     `json:"complete_orders"`
	TotalSales     float64 `json:"total_sales"`
}

// DailyReport is the dashboard payload: per-ticket consolidated orders plus
// aggregate stats.
type DailyReport struct {
	Stats  DailyStats `json:"stats"`
	Orders []*Group   `json:"orders"`
}

// BuildDailyReport groups the day's non-paid rows by ticket and computes
// aggregate stats. TotalSales only counts tickets whose aggregate status is
// completed, using each row's frozen line total.
func BuildDailyReport(rows []*store.LineItem) *DailyReport {
	byGroup := make(map[int64][]*store.LineItem)
	groupIDs := make([]int64, 0)
	for _, row := range rows {
		if _, ok := byGroup[row.GroupID]; !ok {
			groupIDs = append(groupIDs, row.GroupID)
		}
		byGroup[row.GroupID] = append(byGroup[row.GroupID], row)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	report := &DailyReport{Orders: make([]*Group, 0, len(groupIDs))}
	for _, id := range groupIDs {
		group, err := Consolidate(byGroup[id])
		if err != nil {
			continue
		}

		var groupTotal float64
		for _, row := range byGroup[id] {
			groupTotal += row.LineTotal
		}

		report.Stats.TotalOrders++
		switch group.Status {
		case store.StatusPending, store.StatusInPreparation:
			report.Stats.PendingOrders++
		case store.StatusCompleted:
			report.Stats.CompleteOrders++
			report.Stats.TotalSales += groupTotal
		}

		report.Orders = append(report.Orders, group)
	}
	return report
}

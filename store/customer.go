package store

// Customer is the profile upserted opportunistically when an order is
// confirmed. Auto-created blank on first reference.
type Customer struct {
	ID        string
	Name      string
	Address   string
	CreatedTs int64
	UpdatedTs int64
}

// UpsertCustomer carries the fields of an opportunistic profile update.
// Nil fields keep their stored value.
type UpsertCustomer struct {
	ID      string
	Name    *string
	Address *string
}

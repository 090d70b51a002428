package store

// ProductType distinguishes menu dishes from add-ons (extras priced on top of
// a dish).
type ProductType string

const (
	ProductTypeMenu  ProductType = "menu"
	ProductTypeAddon ProductType = "addon"
)

// Product is a read model over the restaurant catalog. Catalog CRUD belongs to
// the inventory service; this store only reads it to answer menu lookups.
type Product struct {
	ID           string
	RestaurantID string
	Name         string
	Quantity     int
	Unit         string
	Price        float64
	Description  string
	Type         ProductType
}

// FindProduct filters catalog reads.
type FindProduct struct {
	RestaurantID  *string
	Type          *ProductType
	OnlyAvailable bool // drop rows with zero units
}

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/store"
)

type confirmOrderCapability struct {
	store   *store.Store
	metrics *metrics.Exporter
}

func newConfirmOrderCapability(st *store.Store, exporter *metrics.Exporter) *confirmOrderCapability {
	return &confirmOrderCapability{store: st, metrics: exporter}
}

func (c *confirmOrderCapability) Kind() Kind     { return KindConfirmOrder }
func (c *confirmOrderCapability) ReadOnly() bool { return false }

func (c *confirmOrderCapability) Description() string {
	return "Register one confirmed product of the customer's order. Call get_menu first to obtain the product id and price. Call exactly once per confirmed product. If the customer appears to repeat an identical order, ask them first whether it was intentional."
}

func (c *confirmOrderCapability) Parameters() string {
	return `{
		"type": "object",
		"properties": {
			"product_id": {"type": "string", "description": "Product id from get_menu."},
			"product_name": {"type": "string", "description": "Product name from get_menu."},
			"quantity": {"type": "integer", "description": "Units the customer wants.", "minimum": 1},
			"price": {"type": "number", "description": "Unit price from get_menu."},
			"address": {"type": "string", "description": "Delivery address, asked from the customer."},
			"customer_name": {"type": "string", "description": "Customer name, asked from the customer."},
			"add_ons": {"type": "array", "items": {"type": "string"}, "description": "Names of add-ons from get_addons the customer wants on this product."},
			"details": {"type": "string", "description": "Extra preparation notes, only if the customer mentioned any."}
		},
		"required": ["product_id", "product_name", "quantity", "address"]
	}`
}

func (c *confirmOrderCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	productID := argString(args, "product_id")
	productName := argString(args, "product_name")
	quantity := argInt(args, "quantity")
	address := strings.TrimSpace(argString(args, "address"))
	customerName := strings.TrimSpace(argString(args, "customer_name"))

	if productID == "" || quantity <= 0 || address == "" {
		return "", fmt.Errorf("confirm_order needs product_id, a positive quantity and a delivery address")
	}

	unitPrice, err := c.resolveUnitPrice(ctx, turn.RestaurantID, productID, argFloat(args, "price"))
	if err != nil {
		return "", err
	}

	addOnNames := argStringSlice(args, "add_ons")
	addOnCharge, err := c.resolveAddOnCharge(ctx, turn.RestaurantID, addOnNames)
	if err != nil {
		return "", err
	}

	now := time.Now().Unix()
	item := &store.LineItem{
		ID:           uuid.NewString(),
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		LineTotal:    float64(quantity)*unitPrice + float64(quantity)*addOnCharge,
		AddOns:       strings.Join(addOnNames, ", "),
		Notes:        argString(args, "details"),
		Address:      address,
		CustomerName: customerName,
		CustomerID:   turn.CustomerID,
		RestaurantID: turn.RestaurantID,
		Status:       store.StatusPending,
		CreatedTs:    now,
		UpdatedTs:    now,
	}

	created, err := c.store.CreateLineItemAssigningGroup(ctx, item)
	if err != nil {
		return "", fmt.Errorf("failed to register the order: %w", err)
	}
	c.metrics.RecordOrderConfirmed()

	// Keep the profile fresh so future greetings know the customer.
	// Best-effort: a failed upsert never undoes the order.
	upsert := &store.UpsertCustomer{ID: turn.CustomerID}
	if customerName != "" {
		upsert.Name = &customerName
	}
	upsert.Address = &address
	if _, err := c.store.UpsertCustomer(ctx, upsert); err != nil {
		slog.Warn("failed to upsert customer profile",
			"customer_id", turn.CustomerID,
			"error", err,
		)
	}

	return fmt.Sprintf("Order registered: ticket #%d, %d x %s ($%.2f total).",
		created.GroupID, created.Quantity, created.ProductName, created.LineTotal), nil
}

// resolveUnitPrice prefers the live catalog price over whatever the
// oracle extracted from the conversation.
func (c *confirmOrderCapability) resolveUnitPrice(ctx context.Context, restaurantID, productID string, quoted float64) (float64, error) {
	menuType := store.ProductTypeMenu
	products, err := c.store.ListProducts(ctx, &store.FindProduct{
		RestaurantID: &restaurantID,
		Type:         &menuType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to check the catalog: %w", err)
	}
	for _, p := range products {
		if p.ID == productID {
			return p.Price, nil
		}
	}
	if quoted <= 0 {
		return 0, fmt.Errorf("product %q is not in the catalog and no price was given", productID)
	}
	return quoted, nil
}

func (c *confirmOrderCapability) resolveAddOnCharge(ctx context.Context, restaurantID string, names []string) (float64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	addonType := store.ProductTypeAddon
	addons, err := c.store.ListProducts(ctx, &store.FindProduct{
		RestaurantID: &restaurantID,
		Type:         &addonType,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to check add-ons: %w", err)
	}

	prices := make(map[string]float64, len(addons))
	for _, a := range addons {
		prices[strings.ToLower(a.Name)] = a.Price
	}

	var charge float64
	for _, name := range names {
		price, ok := prices[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown add-on %q", name)
		}
		charge += price
	}
	return charge, nil
}

func argStringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

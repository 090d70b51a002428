package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesero-ai/mesero/order"
	"github.com/mesero-ai/mesero/store"
)

type getOrderStatusCapability struct {
	store *store.Store
}

func newGetOrderStatusCapability(st *store.Store) *getOrderStatusCapability {
	return &getOrderStatusCapability{store: st}
}

func (c *getOrderStatusCapability) Kind() Kind     { return KindGetOrderStatus }
func (c *getOrderStatusCapability) ReadOnly() bool { return true }

func (c *getOrderStatusCapability) Description() string {
	return "Get the consolidated state of today's order for a delivery address. Use it when the customer asks how their order is going or what they have ordered so far. The address may come from earlier in the conversation or be asked from the customer."
}

func (c *getOrderStatusCapability) Parameters() string {
	return `{
		"type": "object",
		"properties": {
			"address": {"type": "string", "description": "Delivery address of the order."}
		},
		"required": ["address"]
	}`
}

func (c *getOrderStatusCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	address := strings.TrimSpace(argString(args, "address"))
	if address == "" {
		return "", fmt.Errorf("get_order_status needs a delivery address")
	}

	since, _ := store.DayBoundsUnix(time.Now().Unix())
	anchor, err := c.store.GetLatestLineItemByAddress(ctx, address, since)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("No order found today for the address %s.", address), nil
		}
		return "", fmt.Errorf("failed to look up the order: %w", err)
	}

	rows, err := c.store.ListLineItemsByGroup(ctx, anchor.GroupID)
	if err != nil {
		return "", fmt.Errorf("failed to load the order: %w", err)
	}
	group, err := order.Consolidate(rows)
	if err != nil {
		return "", fmt.Errorf("failed to consolidate the order: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ticket #%d for %s (%s):\n", group.GroupID, group.Address, group.Status)
	for _, p := range group.Products {
		fmt.Fprintf(&sb, "- %d x %s ($%.2f each)", p.Quantity, p.Name, p.Price)
		if p.AddOns != "" {
			fmt.Fprintf(&sb, " with %s", p.AddOns)
		}
		if p.Notes != "" {
			fmt.Fprintf(&sb, " - %s", p.Notes)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total: $%.2f", group.Total())
	return sb.String(), nil
}

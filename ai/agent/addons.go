package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesero-ai/mesero/store"
)

type getAddonsCapability struct {
	store *store.Store
}

func newGetAddonsCapability(st *store.Store) *getAddonsCapability {
	return &getAddonsCapability{store: st}
}

func (c *getAddonsCapability) Kind() Kind     { return KindGetAddons }
func (c *getAddonsCapability) ReadOnly() bool { return true }

func (c *getAddonsCapability) Description() string {
	return "Get the add-ons (extras priced on top of a dish) currently available. Use it when the customer asks what extras they can add to a product."
}

func (c *getAddonsCapability) Parameters() string {
	return `{
		"type": "object",
		"properties": {
			"restaurant_id": {"type": "string", "description": "Restaurant identifier."}
		},
		"required": []
	}`
}

func (c *getAddonsCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	restaurantID := argString(args, "restaurant_id")

	addonType := store.ProductTypeAddon
	addons, err := c.store.ListProducts(ctx, &store.FindProduct{
		RestaurantID:  &restaurantID,
		Type:          &addonType,
		OnlyAvailable: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to load add-ons: %w", err)
	}
	if len(addons) == 0 {
		return "There are no add-ons available right now.", nil
	}

	var sb strings.Builder
	sb.WriteString("Available add-ons:\n")
	for _, a := range addons {
		fmt.Fprintf(&sb, "- %s: $%.2f", a.Name, a.Price)
		if a.Description != "" {
			fmt.Fprintf(&sb, " - %s", a.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

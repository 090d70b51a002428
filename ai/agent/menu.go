package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/store"
	"github.com/mesero-ai/mesero/store/cache"
)

const menuCacheTTL = 60 * time.Second

type getMenuCapability struct {
	store   *store.Store
	cache   *cache.Redis
	metrics *metrics.Exporter
}

func newGetMenuCapability(st *store.Store, menuCache *cache.Redis, exporter *metrics.Exporter) *getMenuCapability {
	return &getMenuCapability{store: st, cache: menuCache, metrics: exporter}
}

func (c *getMenuCapability) Kind() Kind     { return KindGetMenu }
func (c *getMenuCapability) ReadOnly() bool { return true }

func (c *getMenuCapability) Description() string {
	return "Get the restaurant menu with live availability. Call this before confirming any order to obtain the product id and current price. Offer only dishes that are in stock, and never reveal stock counts unless the customer identified themselves as the administrator."
}

func (c *getMenuCapability) Parameters() string {
	return `{
		"type": "object",
		"properties": {
			"restaurant_id": {"type": "string", "description": "Restaurant identifier."},
			"admin": {"type": "boolean", "description": "True only when the customer identified themselves as the administrator."}
		},
		"required": []
	}`
}

func (c *getMenuCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	restaurantID := argString(args, "restaurant_id")
	admin := argBool(args, "admin")

	products, err := c.loadMenu(ctx, restaurantID)
	if err != nil {
		return "", fmt.Errorf("failed to load menu: %w", err)
	}
	if len(products) == 0 {
		return fmt.Sprintf("The menu for %s is currently empty.", restaurantID), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Menu for %s:\n", restaurantID)
	for _, p := range products {
		if admin {
			fmt.Fprintf(&sb, "- %s (id %s): $%.2f per %s, %d in stock", p.Name, p.ID, p.Price, p.Unit, p.Quantity)
		} else {
			fmt.Fprintf(&sb, "- %s (id %s): $%.2f per %s", p.Name, p.ID, p.Price, p.Unit)
		}
		if p.Description != "" {
			fmt.Fprintf(&sb, " - %s", p.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (c *getMenuCapability) loadMenu(ctx context.Context, restaurantID string) ([]*store.Product, error) {
	cacheKey := "menu:" + restaurantID

	var cached []*store.Product
	if c.cache.GetJSON(ctx, cacheKey, &cached) {
		c.metrics.RecordCacheHit("menu")
		return cached, nil
	}
	c.metrics.RecordCacheMiss("menu")

	menuType := store.ProductTypeMenu
	products, err := c.store.ListProducts(ctx, &store.FindProduct{
		RestaurantID:  &restaurantID,
		Type:          &menuType,
		OnlyAvailable: true,
	})
	if err != nil {
		return nil, err
	}

	c.cache.SetJSON(ctx, cacheKey, products, menuCacheTTL)
	return products, nil
}

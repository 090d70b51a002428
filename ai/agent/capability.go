// Package agent implements the chat turn orchestrator and the closed
// set of capabilities the oracle may invoke: menu lookup, add-on
// lookup, order confirmation, order status, and menu PDF delivery.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind identifies a capability. The set is closed: the dispatcher
// rejects any name outside it instead of consulting a dynamic registry.
type Kind string

const (
	KindGetMenu        Kind = "get_menu"
	KindConfirmOrder   Kind = "confirm_order"
	KindGetOrderStatus Kind = "get_order_status"
	KindGetAddons      Kind = "get_addons"
	KindSendMenu       Kind = "send_menu"
)

// AllKinds returns every capability kind in dispatch order.
func AllKinds() []Kind {
	return []Kind{KindGetMenu, KindConfirmOrder, KindGetOrderStatus, KindGetAddons, KindSendMenu}
}

// ErrUnknownCapability is returned when the oracle requests a
// capability name outside the closed set.
var ErrUnknownCapability = fmt.Errorf("unknown capability")

// TurnContext carries the authoritative identity of the current turn.
// Capability arguments are normalized against it: restaurant_id and
// customer_id supplied by the oracle are always overwritten.
type TurnContext struct {
	CustomerID        string // WhatsApp number of the requester
	ConversationID    string
	ConversationLabel string
	RestaurantID      string
}

// Capability is one action the oracle may request during a turn.
// Run returns a human-readable result string that is folded back into
// the conversation; errors are folded too and never abort the turn.
type Capability interface {
	Kind() Kind
	Description() string
	Parameters() string // JSON Schema for the arguments object
	ReadOnly() bool
	Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error)
}

// parseArgs decodes the oracle-supplied JSON arguments. Empty input is
// treated as an empty object since some providers omit it entirely.
func parseArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("malformed capability arguments: %w", err)
	}
	return args, nil
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

func argFloat(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		var f float64
		fmt.Sscanf(v, "%f", &f)
		return f
	}
	return 0
}

func argBool(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

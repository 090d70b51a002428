package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesero-ai/mesero/ai/llm"
	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/plugin/whatsapp"
	"github.com/mesero-ai/mesero/store"
	"github.com/mesero-ai/mesero/store/cache"
)

// Registry holds the closed capability set and dispatches oracle tool
// calls to it.
type Registry struct {
	capabilities map[Kind]Capability
	metrics      *metrics.Exporter
}

// NewRegistry builds the closed capability set. Every capability is
// constructed here; there is no runtime registration.
func NewRegistry(profile *profile.Profile, st *store.Store, menuCache *cache.Redis, bridge *whatsapp.Client, exporter *metrics.Exporter) *Registry {
	capabilities := map[Kind]Capability{}
	for _, c := range []Capability{
		newGetMenuCapability(st, menuCache, exporter),
		newConfirmOrderCapability(st, exporter),
		newGetOrderStatusCapability(st),
		newGetAddonsCapability(st),
		newSendMenuCapability(bridge),
	} {
		capabilities[c.Kind()] = c
	}
	return &Registry{capabilities: capabilities, metrics: exporter}
}

// Descriptors returns the tool descriptors advertised to the oracle,
// in stable order.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	descriptors := make([]llm.ToolDescriptor, 0, len(r.capabilities))
	for _, kind := range AllKinds() {
		c, ok := r.capabilities[kind]
		if !ok {
			continue
		}
		descriptors = append(descriptors, llm.ToolDescriptor{
			Name:        string(c.Kind()),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	return descriptors
}

// Dispatch parses the raw arguments, normalizes them against the turn
// context, and runs the named capability. Names outside the closed set
// return ErrUnknownCapability.
func (r *Registry) Dispatch(ctx context.Context, turn *TurnContext, name, rawArgs string) (string, error) {
	capability, ok := r.capabilities[Kind(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}

	args, err := parseArgs(rawArgs)
	if err != nil {
		return "", err
	}
	// The oracle occasionally hallucinates these; the turn context is
	// authoritative.
	args["restaurant_id"] = turn.RestaurantID
	args["customer_id"] = turn.CustomerID

	started := time.Now()
	result, err := capability.Run(ctx, turn, args)
	elapsed := time.Since(started)

	if err != nil {
		slog.Warn("capability failed",
			"capability", name,
			"customer_id", turn.CustomerID,
			"error", err,
		)
		r.metrics.RecordCapabilityCall(name, elapsed, false, "run")
		return "", err
	}

	slog.Debug("capability completed",
		"capability", name,
		"duration_ms", elapsed.Milliseconds(),
	)
	r.metrics.RecordCapabilityCall(name, elapsed, true, "")
	return result, nil
}

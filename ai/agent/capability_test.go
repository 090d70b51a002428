package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesero-ai/mesero/internal/metrics"
	"github.com/mesero-ai/mesero/internal/profile"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{name: "empty input is an empty object", raw: "", wantLen: 0},
		{name: "valid object", raw: `{"quantity": 2, "address": "main st"}`, wantLen: 2},
		{name: "malformed json", raw: `{"quantity":`, wantErr: true},
		{name: "non-object json", raw: `[1,2]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseArgs(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, args, tt.wantLen)
		})
	}
}

func TestArgCoercion(t *testing.T) {
	args := map[string]any{
		"count_number": float64(3),
		"count_string": "4",
		"price":        float64(9.5),
		"price_string": "10.25",
		"flag":         true,
		"name":         "burger",
	}

	require.Equal(t, 3, argInt(args, "count_number"))
	require.Equal(t, 4, argInt(args, "count_string"))
	require.Equal(t, 0, argInt(args, "missing"))
	require.InDelta(t, 9.5, argFloat(args, "price"), 1e-9)
	require.InDelta(t, 10.25, argFloat(args, "price_string"), 1e-9)
	require.True(t, argBool(args, "flag"))
	require.False(t, argBool(args, "missing"))
	require.Equal(t, "burger", argString(args, "name"))
	require.Equal(t, "", argString(args, "flag"))
}

type echoCapability struct {
	gotArgs map[string]any
}

func (c *echoCapability) Kind() Kind          { return KindGetMenu }
func (c *echoCapability) Description() string { return "" }
func (c *echoCapability) Parameters() string  { return "{}" }
func (c *echoCapability) ReadOnly() bool      { return true }

func (c *echoCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	c.gotArgs = args
	return "ok", nil
}

func newDispatchTestRegistry(capability Capability) *Registry {
	return &Registry{
		capabilities: map[Kind]Capability{capability.Kind(): capability},
		metrics:      metrics.NewExporter(metrics.DefaultConfig()),
	}
}

func TestDispatchRejectsUnknownCapability(t *testing.T) {
	registry := newDispatchTestRegistry(&echoCapability{})
	_, err := registry.Dispatch(context.Background(), &TurnContext{}, "drop_tables", "{}")
	require.ErrorIs(t, err, ErrUnknownCapability)
}

func TestDispatchNormalizesIdentityArgs(t *testing.T) {
	capability := &echoCapability{}
	registry := newDispatchTestRegistry(capability)

	turn := &TurnContext{CustomerID: "573001112233", RestaurantID: "Macchiato"}
	_, err := registry.Dispatch(context.Background(), turn, string(KindGetMenu),
		`{"restaurant_id": "spoofed", "customer_id": "spoofed", "admin": false}`)
	require.NoError(t, err)

	// Oracle-supplied identity is always overwritten by the turn context.
	require.Equal(t, "Macchiato", capability.gotArgs["restaurant_id"])
	require.Equal(t, "573001112233", capability.gotArgs["customer_id"])
	require.Equal(t, false, capability.gotArgs["admin"])
}

func TestDispatchPropagatesCapabilityError(t *testing.T) {
	wantErr := errors.New("boom")
	registry := newDispatchTestRegistry(&failingCapability{err: wantErr})

	_, err := registry.Dispatch(context.Background(), &TurnContext{}, string(KindGetMenu), "{}")
	require.ErrorIs(t, err, wantErr)
}

type failingCapability struct {
	err error
}

func (c *failingCapability) Kind() Kind          { return KindGetMenu }
func (c *failingCapability) Description() string { return "" }
func (c *failingCapability) Parameters() string  { return "{}" }
func (c *failingCapability) ReadOnly() bool      { return true }

func (c *failingCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	return "", c.err
}

func TestRegistryDescriptorsCoverClosedSet(t *testing.T) {
	registry := NewRegistry(&profile.Profile{}, nil, nil, nil, metrics.NewExporter(metrics.DefaultConfig()))

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, len(AllKinds()))
	for i, kind := range AllKinds() {
		require.Equal(t, string(kind), descriptors[i].Name)
	}
}

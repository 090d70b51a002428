package agent

import (
	"context"
	"log/slog"

	"github.com/mesero-ai/mesero/plugin/whatsapp"
)

type sendMenuCapability struct {
	bridge *whatsapp.Client
}

func newSendMenuCapability(bridge *whatsapp.Client) *sendMenuCapability {
	return &sendMenuCapability{bridge: bridge}
}

func (c *sendMenuCapability) Kind() Kind     { return KindSendMenu }
func (c *sendMenuCapability) ReadOnly() bool { return true }

func (c *sendMenuCapability) Description() string {
	return "Send the menu PDF to the customer over WhatsApp. Use it when the customer asks to receive the full menu as a document."
}

func (c *sendMenuCapability) Parameters() string {
	return `{
		"type": "object",
		"properties": {},
		"required": []
	}`
}

// Run reports delivery failures as a friendly result string rather than
// an error: the customer should get an apology, not a retry loop.
func (c *sendMenuCapability) Run(ctx context.Context, turn *TurnContext, args map[string]any) (string, error) {
	if err := c.bridge.SendMenuPDF(ctx, turn.CustomerID); err != nil {
		slog.Warn("failed to send menu PDF",
			"customer_id", turn.CustomerID,
			"error", err,
		)
		return "Sorry, the menu PDF could not be delivered right now. Please try again later.", nil
	}
	return "The menu PDF is on its way to the customer's WhatsApp.", nil
}

// Package whatsapp talks to the external WhatsApp bridge over HTTP.
// The bridge owns the actual WhatsApp session; this client only relays
// outbound text messages and menu PDF deliveries to it.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// timeout matches the bridge's own 25s send deadline plus headroom.
var timeout = 30 * time.Second

// Client is an HTTP client for the WhatsApp bridge.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a bridge client, or nil when no bridge URL is
// configured. All methods tolerate a nil receiver and report the
// bridge as unavailable.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type bridgeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SendText relays a text message to the given phone number.
func (c *Client) SendText(ctx context.Context, number, message string) error {
	if c == nil {
		return errors.New("whatsapp bridge is not configured")
	}
	return c.post(ctx, "/api/send-message", map[string]string{
		"number":  number,
		"message": message,
	})
}

// SendMenuPDF asks the bridge to deliver the restaurant menu PDF to
// the given phone number. The bridge holds the PDF itself.
func (c *Client) SendMenuPDF(ctx context.Context, number string) error {
	if c == nil {
		return errors.New("whatsapp bridge is not configured")
	}
	return c.post(ctx, "/api/send-pdf", map[string]string{
		"number": number,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal bridge request to %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct bridge request to %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post to bridge %s", path)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read bridge response from %s", path)
	}

	response := &bridgeResponse{}
	if err := json.Unmarshal(b, response); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.Errorf("bridge %s returned status %d: %s", path, resp.StatusCode, b)
		}
		return errors.Wrapf(err, "failed to unmarshal bridge response from %s", path)
	}

	if !response.Success {
		reason := response.Error
		if reason == "" {
			reason = response.Message
		}
		return errors.Errorf("bridge %s refused send: %s", path, reason)
	}
	return nil
}

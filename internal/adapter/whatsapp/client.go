// Package whatsapp provides a client for the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/finbuddy/chat-relay/internal/metrics"
)

// Sender delivers outbound text messages to users.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// Client is the WhatsApp Graph API client.
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	httpClient    *http.Client
	metrics       *metrics.Metrics
}

// NewClient creates a WhatsApp client. timeout bounds every send call.
func NewClient(baseURL, token, phoneNumberID string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
	}
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

// SendText posts a text message to the user's phone number.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	body, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{PreviewURL: false, Body: text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIResponse.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APICalls.WithLabelValues("messages", "error").Inc()
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.APICalls.WithLabelValues("messages", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

var _ Sender = (*Client)(nil)

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the webhook delivery body from the WhatsApp Cloud API.
type Envelope struct {
	Entry []Entry `json:"entry"`
}

// Entry groups the changes in one delivery.
type Entry struct {
	Changes []Change `json:"changes"`
}

// Change carries one value object.
type Change struct {
	Value Value `json:"value"`
}

// Value holds the inbound messages, when any are present.
type Value struct {
	Messages []InboundMessage `json:"messages"`
}

// InboundMessage is one message from a user.
type InboundMessage struct {
	From string    `json:"from"`
	Type string    `json:"type"`
	Text *TextBody `json:"text,omitempty"`
}

// TextBody is the payload of a text message.
type TextBody struct {
	Body string `json:"body"`
}

// messageText maps a provider message to the normalized-text contract:
// text messages pass their body through, every other type becomes a
// placeholder string.
func messageText(msg InboundMessage) string {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return msg.Text.Body
		}
		return ""
	case "image":
		return "image"
	default:
		return "unknown"
	}
}

// Inbound receives a webhook delivery and processes each message through
// the rate limiter and the message handler. It always acks with a
// success-shaped body so the platform does not redeliver; internal
// failures are logged and surfaced to the user as a fallback reply.
// POST /webhook
func (h *Handler) Inbound(c echo.Context) error {
	var envelope Envelope
	if err := c.Bind(&envelope); err != nil {
		h.logger.Error("decoding webhook envelope failed", "error", err)
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	ctx := c.Request().Context()

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}

				allowed, err := h.limiter.Allow(ctx, msg.From)
				if err != nil {
					// Fail closed: without the store we cannot bound this user.
					h.logger.Error("rate limit check failed", "user_id", msg.From, "error", err)
					continue
				}
				if !allowed {
					h.logger.Info("rate limit exceeded", "user_id", msg.From)
					continue
				}

				h.service.HandleMessage(ctx, msg.From, messageText(msg))
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

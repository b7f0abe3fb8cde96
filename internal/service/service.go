// Package service orchestrates the handling of one inbound message.
package service

import (
	"log/slog"

	"github.com/finbuddy/chat-relay/internal/adapter/advice"
	"github.com/finbuddy/chat-relay/internal/adapter/whatsapp"
	"github.com/finbuddy/chat-relay/internal/metrics"
	"github.com/finbuddy/chat-relay/internal/session"
)

// Service wires the session manager, reply generation, and outbound send
// into the message-handling flow.
type Service struct {
	sessions *session.Manager
	sender   whatsapp.Sender
	advisor  advice.Generator
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a service.
func New(sessions *session.Manager, sender whatsapp.Sender, advisor advice.Generator, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		sender:   sender,
		advisor:  advisor,
		metrics:  m,
		logger:   logger,
	}
}

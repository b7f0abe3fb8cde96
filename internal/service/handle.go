package service

import (
	"context"
	"strings"
	"time"

	"github.com/finbuddy/chat-relay/internal/domain"
)

const (
	welcomeText = "👋 Welcome! I am FinBuddy! I will get to know you and share " +
		"*personalised educational info* about finance and investment.\n\n" +
		"Ask me what you want to know about finance and investments. " +
		"Or type 'schedule' to book a consultation with our experts."

	schedulePrompt = "Click the attached link to schedule a consultation with one of our experts.\n\n" +
		"https://calendar.app.google/WmSWjb33sXf8taLe6"

	scheduleFooter = "\n\n\nType and send \"schedule\" if you want to book a consultation " +
		"with one of our experts"

	apologyText = "Sorry, I encountered an issue processing your message. Please try again"
)

var greetings = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"start":          {},
}

// NormalizeText lowercases, collapses whitespace, and caps text at 500
// characters. The result is what command matching and generation see.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}

// HandleMessage processes one inbound message from a user: it records the
// message, picks a reply (greeting, schedule command, or generated
// advice), sends it, and records the outbound side. Failures never
// propagate; the user gets a generic apology and the error is logged.
func (s *Service) HandleMessage(ctx context.Context, fromID, text string) {
	start := time.Now()
	defer func() {
		s.metrics.Processing.Observe(time.Since(start).Seconds())
	}()

	if err := s.handle(ctx, fromID, text); err != nil {
		s.logger.Error("handling message failed", "user_id", fromID, "error", err)
		s.metrics.Messages.WithLabelValues("error", "failed").Inc()
		if serr := s.sender.SendText(ctx, fromID, apologyText); serr != nil {
			s.logger.Error("sending apology failed", "user_id", fromID, "error", serr)
		}
	}
}

func (s *Service) handle(ctx context.Context, fromID, text string) error {
	if err := s.sessions.AddMessage(ctx, fromID, domain.Message{
		From: fromID,
		Text: text,
		Type: domain.DirectionIncoming,
	}); err != nil {
		return err
	}

	if _, err := s.sessions.Get(ctx, fromID); err != nil {
		return err
	}

	msg := NormalizeText(text)
	s.metrics.Messages.WithLabelValues("text", "processed").Inc()

	if _, ok := greetings[msg]; ok {
		if err := s.sessions.SetStage(ctx, fromID, domain.StageActive); err != nil {
			return err
		}
		return s.sender.SendText(ctx, fromID, welcomeText)
	}

	if msg == "schedule" {
		return s.sender.SendText(ctx, fromID, schedulePrompt)
	}

	history := s.sessions.History(ctx, fromID, 10)
	reply, err := s.advisor.Generate(ctx, msg, history)
	if err != nil {
		return err
	}

	if err := s.sender.SendText(ctx, fromID, reply+scheduleFooter); err != nil {
		return err
	}

	return s.sessions.AddMessage(ctx, fromID, domain.Message{
		To:   fromID,
		Text: reply,
		Type: domain.DirectionOutgoing,
	})
}

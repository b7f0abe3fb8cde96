// Package session owns per-user conversational state persisted in the store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finbuddy/chat-relay/internal/domain"
	"github.com/finbuddy/chat-relay/internal/metrics"
	"github.com/finbuddy/chat-relay/internal/store"
)

const keyPrefix = "session:"

// Manager loads and persists sessions with a fixed TTL measured from the
// last touch. It keeps no in-process state, so any relay instance can
// serve any user.
//
// Mutations are plain read-modify-write cycles with no per-user locking:
// two concurrent writers for the same user race and the later save wins.
type Manager struct {
	store   store.Store
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	now func() time.Time
}

// NewManager creates a session manager with the given TTL.
func NewManager(st store.Store, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		store:   st,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Get loads the session for userID, creating and persisting a fresh idle
// session when none exists. A malformed stored blob is treated the same
// as an absent one rather than failing the caller.
func (m *Manager) Get(ctx context.Context, userID string) (*domain.Session, error) {
	data, err := m.store.Get(ctx, keyPrefix+userID)
	switch {
	case err == nil:
		var s domain.Session
		uerr := json.Unmarshal([]byte(data), &s)
		if uerr == nil {
			m.refreshActiveSessions(ctx)
			return &s, nil
		}
		m.logger.Error("discarding malformed session blob",
			"user_id", userID, "error", uerr)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	s := domain.NewSession(m.now().UTC())
	if err := m.Save(ctx, userID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save stamps last_activity, serializes the session, and writes it with
// the configured TTL.
func (m *Manager) Save(ctx context.Context, userID string, s *domain.Session) error {
	s.LastActivity = m.now().UTC()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session for %s: %w", userID, err)
	}
	if err := m.store.SetEx(ctx, keyPrefix+userID, string(data), m.ttl); err != nil {
		return err
	}

	m.refreshActiveSessions(ctx)
	return nil
}

// AddMessage appends msg to the user's history, keeping only the most
// recent entries.
func (m *Manager) AddMessage(ctx context.Context, userID string, msg domain.Message) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.Append(domain.HistoryEntry{Timestamp: m.now().UTC(), Message: msg})
	return m.Save(ctx, userID, s)
}

// SetStage moves the user's conversation to stage.
func (m *Manager) SetStage(ctx context.Context, userID string, stage domain.Stage) error {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	s.Stage = stage
	return m.Save(ctx, userID, s)
}

// History returns the last limit history entries for userID, or all of
// them when limit is zero or negative. It never fails: any store or
// decode error is logged and an empty slice returned.
func (m *Manager) History(ctx context.Context, userID string, limit int) []domain.HistoryEntry {
	s, err := m.Get(ctx, userID)
	if err != nil {
		m.logger.Error("getting message history failed",
			"user_id", userID, "error", err)
		return []domain.HistoryEntry{}
	}
	return s.History(limit)
}

// refreshActiveSessions republishes the approximate count of live session
// keys. Observability only; failures never reach the caller.
func (m *Manager) refreshActiveSessions(ctx context.Context) {
	count, err := m.store.CountKeys(ctx, keyPrefix)
	if err != nil {
		m.logger.Error("updating active sessions gauge failed", "error", err)
		return
	}
	m.metrics.ActiveSessions.Set(float64(count))
}

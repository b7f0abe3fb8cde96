package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/finbuddy/chat-relay/internal/domain"
	"github.com/finbuddy/chat-relay/internal/metrics"
	"github.com/finbuddy/chat-relay/internal/ratelimit"
	"github.com/finbuddy/chat-relay/internal/service"
	"github.com/finbuddy/chat-relay/internal/session"
	"github.com/finbuddy/chat-relay/internal/store"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendText(_ context.Context, _, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type staticAdvisor struct{}

func (staticAdvisor) Generate(context.Context, string, []domain.HistoryEntry) (string, error) {
	return "generated advice", nil
}

func newTestHandler(t *testing.T, limit int) (*Handler, *fakeSender, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sender := &fakeSender{}
	sessions := session.NewManager(st, time.Hour, m, logger)
	svc := service.New(sessions, sender, staticAdvisor{}, m, logger)
	limiter := ratelimit.New(st, limit, time.Minute, m)

	return NewHandler(svc, limiter, st, registry, "secret", logger), sender, st
}

func TestVerifySuccess(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=secret", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Fatalf("expected challenge echo, got %q", rec.Body.String())
	}
}

func TestVerifyBadToken(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=12345&hub.verify_token=wrong", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHealthHealthy(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" || resp.Services["redis"] != "healthy" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStats(t *testing.T) {
	e := echo.New()
	h, _, st := newTestHandler(t, 10)

	ctx := context.Background()
	if err := st.SetEx(ctx, "session:u1", "{}", time.Hour); err != nil {
		t.Fatalf("SetEx failed: %v", err)
	}
	if err := st.SetEx(ctx, "session:u2", "{}", time.Hour); err != nil {
		t.Fatalf("SetEx failed: %v", err)
	}
	if _, err := st.SlideWindow(ctx, "rate_limit:u1", 0, "m", time.Now().Unix(), time.Minute); err != nil {
		t.Fatalf("SlideWindow failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		ActiveSessions   int64 `json:"active_sessions"`
		RateLimitedUsers int64 `json:"rate_limited_users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ActiveSessions != 2 || resp.RateLimitedUsers != 1 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
}

func TestMetricsRouteRegistered(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler(t, 10)
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "whatsapp_active_sessions") {
		t.Fatalf("expected exposition to include relay gauges")
	}
}

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func postWebhook(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Inbound(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func envelope(from, msgType, body string) string {
	text := ""
	if msgType == "text" {
		text = `,"text":{"body":"` + body + `"}`
	}
	return `{"entry":[{"changes":[{"value":{"messages":[{"from":"` + from + `","type":"` + msgType + `"` + text + `}]}}]}]}`
}

func TestInboundTextMessage(t *testing.T) {
	h, sender, _ := newTestHandler(t, 10)

	rec := postWebhook(t, h, envelope("15551234", "text", "hello"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("expected ok ack, got %s", rec.Body.String())
	}
	// "hello" is a greeting, so the welcome reply goes out.
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Welcome") {
		t.Fatalf("expected welcome reply, got %+v", sender.sent)
	}
}

func TestInboundNonTextMessageGetsPlaceholder(t *testing.T) {
	h, sender, _ := newTestHandler(t, 10)

	rec := postWebhook(t, h, envelope("15551234", "image", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// "image" is not a greeting or command, so it flows to generation.
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "generated advice") {
		t.Fatalf("expected generated reply, got %+v", sender.sent)
	}
}

func TestInboundRateLimited(t *testing.T) {
	h, sender, _ := newTestHandler(t, 1)

	postWebhook(t, h, envelope("15551234", "text", "hi"))
	rec := postWebhook(t, h, envelope("15551234", "text", "hi"))

	// Second delivery is over quota: no reply, but still an ok ack.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected only the first message handled, got %d replies", len(sender.sent))
	}
}

func TestInboundMalformedBodyStillAcks(t *testing.T) {
	h, sender, _ := newTestHandler(t, 10)

	rec := postWebhook(t, h, `{"entry": not json`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack even for malformed body, got %d", rec.Code)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be handled, got %+v", sender.sent)
	}
}

func TestInboundEmptyDelivery(t *testing.T) {
	h, sender, _ := newTestHandler(t, 10)

	rec := postWebhook(t, h, `{"entry":[{"changes":[{"value":{}}]}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("status-only delivery must not produce replies, got %+v", sender.sent)
	}
}

func TestInboundMultipleMessages(t *testing.T) {
	h, sender, _ := newTestHandler(t, 10)

	body := `{"entry":[{"changes":[{"value":{"messages":[` +
		`{"from":"u1","type":"text","text":{"body":"hi"}},` +
		`{"from":"u2","type":"text","text":{"body":"hello"}}` +
		`]}}]}]}`
	rec := postWebhook(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected replies to both users, got %d", len(sender.sent))
	}
}

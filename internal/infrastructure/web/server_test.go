package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
	appctx "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/pkg/context"
)

type scriptedSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *scriptedSender) Send(ctx context.Context, msg reset.Message) (reset.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return reset.SendResult{}, s.err
	}
	return reset.SendResult{MessageID: "msg-1"}, nil
}

func (s *scriptedSender) Name() string { return "scripted" }

func (s *scriptedSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestWeb(t *testing.T, sender reset.Sender) http.Handler {
	t.Helper()

	h := reset.NewHandler(sender, reset.Config{
		FrontendURL: "https://app.example.com",
		SenderEmail: "no-reply@example.com",
	}, zerolog.Nop())

	s := NewServer(Config{Addr: ":0", SenderName: sender.Name()}, h, zerolog.Nop())

	// we are in package web, so we can access s.srv.Handler
	return s.srv.Handler
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return out
}

func TestPasswordReset_Success_200(t *testing.T) {
	sender := &scriptedSender{}
	h := newTestWeb(t, sender)

	req := httptest.NewRequest("POST", "/api/password-reset", strings.NewReader(`{"email":"a@b.com","resetToken":"tok123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["message"] != "Password reset email sent successfully" || body["messageId"] != "msg-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestPasswordReset_MissingToken_400(t *testing.T) {
	sender := &scriptedSender{}
	h := newTestWeb(t, sender)

	req := httptest.NewRequest("POST", "/api/password-reset", strings.NewReader(`{"email":"a@b.com"}`))
	w := do(h, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "Missing email or reset token" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if sender.Calls() != 0 {
		t.Fatalf("expected no send, got %d", sender.Calls())
	}
}

func TestPasswordReset_BadJSON_400(t *testing.T) {
	sender := &scriptedSender{}
	h := newTestWeb(t, sender)

	req := httptest.NewRequest("POST", "/api/password-reset", strings.NewReader("{not-json"))
	w := do(h, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if sender.Calls() != 0 {
		t.Fatalf("expected no send, got %d", sender.Calls())
	}
}

func TestPasswordReset_DeliveryFailure_500(t *testing.T) {
	sender := &scriptedSender{err: errors.New("Throttling: Maximum sending rate exceeded.")}
	h := newTestWeb(t, sender)

	req := httptest.NewRequest("POST", "/api/password-reset", strings.NewReader(`{"email":"a@b.com","resetToken":"tok123"}`))
	w := do(h, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Failed to send password reset email" {
		t.Fatalf("unexpected error: %v", body)
	}
	if body["details"] != "Throttling: Maximum sending rate exceeded." {
		t.Fatalf("unexpected details: %v", body)
	}
}

func TestPasswordReset_WrongMethod_405(t *testing.T) {
	h := newTestWeb(t, &scriptedSender{})

	w := do(h, httptest.NewRequest("GET", "/api/password-reset", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestWeb(t, &scriptedSender{})

	w := do(h, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" || body["sender"] != "scripted" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestWeb(t, &scriptedSender{})

	do(h, httptest.NewRequest("POST", "/api/password-reset", strings.NewReader(`{}`)))
	w := do(h, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `reset_mailer_requests_total{outcome="invalid",transport="http"}`) {
		t.Fatalf("expected http invalid counter in metrics output")
	}
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = appctx.GetRequestID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "rid-42")
	w := httptest.NewRecorder()
	RequestID(next).ServeHTTP(w, req)

	if got != "rid-42" {
		t.Fatalf("expected rid-42 in context, got %q", got)
	}
	if w.Header().Get("X-Request-Id") != "rid-42" {
		t.Fatalf("expected header echoed")
	}
}

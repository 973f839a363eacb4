package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/auth"
	"github.com/ticketdesk/ticketdesk-server/internal/config"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
	"github.com/ticketdesk/ticketdesk-server/internal/store/sqlite"
	"github.com/ticketdesk/ticketdesk-server/internal/transcript"
)

type testEnv struct {
	server      *http.Server
	store       store.Store
	transcripts *transcript.Store
	auth        *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	transcripts, err := transcript.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create transcript store: %v", err)
	}

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	authService := auth.NewService(auth.Operator{
		Username:     "operator",
		PasswordHash: hash,
	}, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	disabledLogger := zerolog.New(nil)
	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
	}

	server := NewServer(authService, st, transcripts, &cfg, &disabledLogger)

	return &testEnv{
		server:      server,
		store:       st,
		transcripts: transcripts,
		auth:        authService,
	}
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	token, err := e.auth.Login("operator", "password123")
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}
	return token
}

func (e *testEnv) saveTicket(t *testing.T, id string) {
	t.Helper()

	err := e.store.SaveTicket(context.Background(), &store.Ticket{
		ID:          id,
		ChannelID:   "chan-" + id,
		ChannelName: "ticket-user-0001",
		OpenedBy:    "user#0001",
		OpenTime:    "01/02/2026, 10:00:00 UTC",
		ClosedBy:    "staff#0001",
		ClosedAt:    time.Now().UTC(),
		EventCount:  3,
	})
	if err != nil {
		t.Fatalf("failed to save ticket: %v", err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString(`{"username":"operator","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/login", body)
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var authResp AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &authResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if authResp.Token == "" {
		t.Error("expected non-empty token")
	}

	if _, err := env.auth.ValidateToken(authResp.Token); err != nil {
		t.Errorf("issued token failed validation: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"operator","password":"wrong"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"intruder","password":"password123"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"operator"}`, http.StatusBadRequest},
		{"malformed json", `{not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp := httptest.NewRecorder()
			env.server.Handler.ServeHTTP(resp, req)

			if resp.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestListTickets(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.saveTicket(t, "TICKET-AAAA1111")
	env.saveTicket(t, "TICKET-BBBB2222")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var tickets []TicketResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &tickets); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}

	// Without a token the list is not served.
	req = httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	resp = httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}
}

func TestListTicketsRejectsInvalidLimit(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	for _, limit := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tickets?limit="+limit, nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp := httptest.NewRecorder()
		env.server.Handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Errorf("limit %q: expected status 400, got %d", limit, resp.Code)
		}
	}
}

func TestGetTicket(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.saveTicket(t, "TICKET-CCCC3333")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/TICKET-CCCC3333", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var ticket TicketResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &ticket); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ticket.ID != "TICKET-CCCC3333" {
		t.Errorf("expected ticket ID TICKET-CCCC3333, got %q", ticket.ID)
	}
	if ticket.ClosedBy != "staff#0001" {
		t.Errorf("expected closed_by staff#0001, got %q", ticket.ClosedBy)
	}

	// Unknown IDs 404.
	req = httptest.NewRequest(http.MethodGet, "/api/tickets/TICKET-MISSING1", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp = httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}
}

func TestGetTranscript(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.saveTicket(t, "TICKET-DDDD4444")
	doc := "<!DOCTYPE html><html><body>hello</body></html>"
	if _, err := env.transcripts.Write("TICKET-DDDD4444", doc); err != nil {
		t.Fatalf("failed to write transcript: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/TICKET-DDDD4444/transcript", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("expected text/html content type, got %q", got)
	}
	if resp.Body.String() != doc {
		t.Errorf("transcript body mismatch: got %q", resp.Body.String())
	}

	// No database row means no transcript is served.
	req = httptest.NewRequest(http.MethodGet, "/api/tickets/TICKET-MISSING1/transcript", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp = httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp := httptest.NewRecorder()
			env.server.Handler.ServeHTTP(resp, req)

			if resp.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", resp.Code)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	// Caller-supplied IDs are echoed back.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-id-1")
	resp = httptest.NewRecorder()
	env.server.Handler.ServeHTTP(resp, req)

	if got := resp.Header().Get("X-Request-ID"); got != "caller-id-1" {
		t.Errorf("expected echoed request ID caller-id-1, got %q", got)
	}
}

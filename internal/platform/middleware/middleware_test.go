package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"faircircle/internal/jwttoken"
	id "faircircle/pkg/domain"
	"faircircle/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request ID in context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("expected response header to echo request ID %q, got %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDPreservesInbound(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "upstream-id" {
		t.Fatalf("expected inbound request ID to survive, got %q", seen)
	}
}

func TestClientMetadata(t *testing.T) {
	var ip, ua string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if ip != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", ip)
	}
	if ua != "test-agent/1.0" {
		t.Fatalf("expected user agent in context, got %q", ua)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	svc := jwttoken.NewJWTService("test-signing-key", "faircircle", "faircircle-api")
	var seen id.Principal
	h := RequireAuth(svc, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Principal(r.Context())
	}))

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token, got %d", rec.Code)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("alice", -time.Minute)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for expired token, got %d", rec.Code)
		}
	})

	t.Run("valid token injects principal", func(t *testing.T) {
		token, err := svc.GenerateAccessToken("alice", time.Hour)
		if err != nil {
			t.Fatalf("failed to mint token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 with valid token, got %d", rec.Code)
		}
		if seen != "alice" {
			t.Fatalf("expected principal alice in context, got %q", seen)
		}
	})
}

func TestParseUserAgent(t *testing.T) {
	if got := ParseUserAgent(""); got != "Unknown Device" {
		t.Fatalf("expected Unknown Device for empty agent, got %q", got)
	}

	chrome := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	got := ParseUserAgent(chrome)
	if got == "" || got == "Unknown Device" {
		t.Fatalf("expected parsed device name, got %q", got)
	}
}

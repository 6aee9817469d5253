package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"faircircle/internal/fairscore"
	id "faircircle/pkg/domain"
	"faircircle/pkg/requestcontext"
)

func newScoreRouter() http.Handler {
	oracle := fairscore.NewStatic(map[id.Principal]uint8{"alice": 85})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-Principal"); raw != "" {
				r = r.WithContext(requestcontext.WithPrincipal(r.Context(), id.Principal(raw)))
			}
			next.ServeHTTP(w, r)
		})
	})
	New(oracle, logger).Register(router)
	return router
}

func get(router http.Handler, path, principal string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReportRequiresAuth(t *testing.T) {
	rec := get(newScoreRouter(), "/fairscale/score", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}

func TestReport(t *testing.T) {
	rec := get(newScoreRouter(), "/fairscale/score", "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ReportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if resp.FairScore != 85 || resp.Tier != "platinum" {
		t.Fatalf("expected score 85 platinum, got %d %q", resp.FairScore, resp.Tier)
	}
}

func TestScoreUnratedMember(t *testing.T) {
	rec := get(newScoreRouter(), "/fairscale/fairScore", "stranger")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unrated member, got %d", rec.Code)
	}

	var resp ScoreResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode score: %v", err)
	}
	if resp.FairScore != 0 {
		t.Fatalf("expected unrated score 0, got %d", resp.FairScore)
	}
}

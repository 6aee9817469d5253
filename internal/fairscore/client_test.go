package fairscore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "faircircle/pkg/domain-errors"
)

func newFairScaleStub(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", WithHTTPClient(srv.Client()))
}

func TestClientLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("returns score and sends API key header", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/fairScore", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("fairkey"))
			assert.Equal(t, "alice", r.URL.Query().Get("wallet"))
			w.Write([]byte(`{"fairscore": 72}`))
		})

		score, err := client.Lookup(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint8(72), score)
	})

	t.Run("accepts snake_case response field", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"fair_score": 45}`))
		})

		score, err := client.Lookup(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint8(45), score)
	})

	t.Run("unknown principal is unrated, not an error", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		score, err := client.Lookup(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, score)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.Lookup(ctx, "alice")
		require.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("rate limited", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Lookup(ctx, "alice")
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("unreachable service maps to unavailable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "test-key")

		_, err := client.Lookup(ctx, "alice")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestClientReport(t *testing.T) {
	ctx := context.Background()

	t.Run("returns full report", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/score", r.URL.Path)
			w.Write([]byte(`{"fairscore": 85, "tier": "platinum", "badges": ["early_adopter"], "timestamp": "2026-08-01T00:00:00Z"}`))
		})

		report, err := client.Report(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint8(85), report.Value)
		assert.Equal(t, TierPlatinum, report.Tier)
		assert.Equal(t, []string{"early_adopter"}, report.Badges)
	})

	t.Run("derives tier when upstream omits it", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"fairscore": 55}`))
		})

		report, err := client.Report(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, TierSilver, report.Tier)
		assert.NotNil(t, report.Badges)
	})

	t.Run("unknown principal gets unrated report", func(t *testing.T) {
		client := newFairScaleStub(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		report, err := client.Report(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, TierUnrated, report.Tier)
		assert.Zero(t, report.Value)
	})
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierUnrated, TierFor(0))
	assert.Equal(t, TierUnrated, TierFor(19))
	assert.Equal(t, TierBronze, TierFor(20))
	assert.Equal(t, TierSilver, TierFor(40))
	assert.Equal(t, TierGold, TierFor(60))
	assert.Equal(t, TierPlatinum, TierFor(80))
	assert.Equal(t, TierPlatinum, TierFor(100))
}

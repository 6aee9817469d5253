//go:build integration

package fairscore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "faircircle/pkg/domain"
	"faircircle/pkg/testutil/containers"
)

func TestCachedOracle(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	t.Run("serves second lookup from cache", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		upstream := NewStatic(map[id.Principal]uint8{"alice": 70})
		cached := NewCached(upstream, rc.Client)

		score, err := cached.Lookup(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint8(70), score)

		// A change upstream is invisible until the entry expires.
		upstream.Set("alice", 10)
		score, err = cached.Lookup(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint8(70), score)
	})

	t.Run("invalidate forces a fresh lookup", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		upstream := NewStatic(map[id.Principal]uint8{"bob": 40})
		cached := NewCached(upstream, rc.Client)

		_, err := cached.Lookup(ctx, "bob")
		require.NoError(t, err)

		upstream.Set("bob", 90)
		require.NoError(t, cached.Invalidate(ctx, "bob"))

		score, err := cached.Lookup(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, uint8(90), score)
	})

	t.Run("expired entry refreshes", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		upstream := NewStatic(map[id.Principal]uint8{"carol": 30})
		cached := NewCached(upstream, rc.Client, WithCacheTTL(50*time.Millisecond))

		_, err := cached.Lookup(ctx, "carol")
		require.NoError(t, err)

		upstream.Set("carol", 60)
		time.Sleep(100 * time.Millisecond)

		score, err := cached.Lookup(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, uint8(60), score)
	})
}

package seed

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db/dbtest"
	"github.com/Simplici0/printprice/internal/settings"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	database := dbtest.Open(t)

	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, database, nil)
		require.NoError(t, err, "iteration %d", i)
		if i == 0 {
			assert.Equal(t, 3, stats.Inserts)
			continue
		}
		assert.Zero(t, stats.Inserts, "iteration %d", i)
	}

	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE name = ?`, "PLA (Generic)", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM packaging_rates WHERE name = ?`, "Standard box", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM shipping_rates WHERE name = ?`, "Local pickup", 1)

	var cost float64
	require.NoError(t, database.QueryRow(`SELECT cost_per_kg FROM materials WHERE name = ?`, "PLA (Generic)").Scan(&cost))
	assert.Equal(t, 850.0, cost)
}

func TestRunKeepsExistingSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	database := dbtest.Open(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := settings.NewRedisStore(client, "")
	require.NoError(t, store.Save(ctx, settings.Bag{"markup": "65"}))

	total := len(settings.Extract(settings.Defaults()))
	stats, err := Run(ctx, database, store)
	require.NoError(t, err)
	assert.Equal(t, total-1, stats.Settings)

	bag, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "65", bag["markup"])
	assert.Equal(t, "850", bag["material_cost_per_kg"])

	stats, err = Run(ctx, database, store)
	require.NoError(t, err)
	assert.Zero(t, stats.Settings)
}

func assertCount(t *testing.T, database *sql.DB, query, arg string, expected int) {
	t.Helper()

	var count int
	require.NoError(t, database.QueryRow(query, arg).Scan(&count))
	assert.Equal(t, expected, count)
}

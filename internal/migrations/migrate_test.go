package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printprice/internal/db"
)

func TestUpIsRepeatable(t *testing.T) {
	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Up(database))
	require.NoError(t, Up(database))

	version, err := Version(database)
	require.NoError(t, err)
	require.EqualValues(t, 4, version)

	for _, table := range []string{"settings", "materials", "packaging_rates", "shipping_rates", "jobs", "products", "sales", "sale_items", "capital_items"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

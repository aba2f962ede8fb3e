// Package seed inserts the starter catalog and default settings.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/printprice/internal/settings"
)

const (
	defaultMaterialName  = "PLA (Generic)"
	defaultMaterialCost  = 850
	defaultPackagingName = "Standard box"
	defaultPackagingCost = 15
	defaultShippingName  = "Local pickup"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts  int
	Settings int
}

// Run executes the startup seed in an idempotent way. When synced is not nil
// it also receives the default settings bag, limited to keys it does not
// hold yet.
func Run(ctx context.Context, db *sql.DB, synced settings.Store) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	rows := []struct {
		table, column, name string
		cost                float64
	}{
		{"materials", "cost_per_kg", defaultMaterialName, defaultMaterialCost},
		{"packaging_rates", "flat_cost", defaultPackagingName, defaultPackagingCost},
		{"shipping_rates", "flat_cost", defaultShippingName, 0},
	}
	for _, row := range rows {
		inserted, err := ensureNamed(ctx, tx, row.table, row.column, row.name, row.cost)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		if inserted {
			stats.Inserts++
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	if synced != nil {
		n, err := ensureSettings(ctx, synced)
		if err != nil {
			return stats, err
		}
		stats.Settings = n
	}
	return stats, nil
}

// ensureNamed inserts an active row called name into table unless one exists.
// table and column come from the fixed list in Run.
func ensureNamed(ctx context.Context, tx *sql.Tx, table, column, name string, cost float64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE name = ? LIMIT 1)`, table)
	if err := tx.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s %q: %w", table, name, err)
	}
	if exists {
		return false, nil
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (name, %s, notes, active, created_at, updated_at)
		VALUES (?, ?, '', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, table, column)
	if _, err := tx.ExecContext(ctx, insert, name, cost); err != nil {
		return false, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return true, nil
}

func ensureSettings(ctx context.Context, store settings.Store) (int, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings for seed: %w", err)
	}

	missing := settings.Bag{}
	for key, value := range settings.Extract(settings.Defaults()) {
		if _, ok := current[key]; !ok {
			missing[key] = value
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := store.Save(ctx, missing); err != nil {
		return 0, fmt.Errorf("seed default settings: %w", err)
	}
	return len(missing), nil
}

package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Simplici0/printprice/internal/pricing"
)

// ErrNoSyncedStore is returned by Publish when no synced store is configured.
var ErrNoSyncedStore = errors.New("no synced settings store configured")

// Layers resolves drafts from the synced and local stores.
type Layers struct {
	Synced Store
	Local  Store
	Logger zerolog.Logger
}

// Resolve returns the merged persistent bag: synced values overridden by
// local ones. An unreachable synced store is logged and skipped so quotes
// keep working offline.
func (l Layers) Resolve(ctx context.Context) (Bag, error) {
	merged := Bag{}
	if l.Synced != nil {
		synced, err := l.Synced.Load(ctx)
		if err != nil {
			l.Logger.Warn().Err(err).Msg("synced settings unavailable, using local only")
		} else {
			for k, v := range synced {
				merged[k] = v
			}
		}
	}
	if l.Local != nil {
		local, err := l.Local.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load local settings: %w", err)
		}
		for k, v := range local {
			merged[k] = v
		}
	}
	return merged, nil
}

// Draft returns a fresh quote draft built from the resolved settings.
func (l Layers) Draft(ctx context.Context) (pricing.JobInputs, error) {
	bag, err := l.Resolve(ctx)
	if err != nil {
		return pricing.JobInputs{}, err
	}
	return Draft(bag), nil
}

// SaveLocal stores the persistent fields of in as local overrides.
func (l Layers) SaveLocal(ctx context.Context, in pricing.JobInputs) error {
	if l.Local == nil {
		return nil
	}
	return l.Local.Save(ctx, Extract(in))
}

// Publish stores the persistent fields of in as the synced defaults.
func (l Layers) Publish(ctx context.Context, in pricing.JobInputs) error {
	if l.Synced == nil {
		return ErrNoSyncedStore
	}
	return l.Synced.Save(ctx, Extract(in))
}

package postgres

import (
	"github.com/jmoiron/sqlx"
	// PostgreSQL driver
	_ "github.com/lib/pq"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
)

// store contains all PostgreSQL based sub-stores for managing the models
type store struct {
	assets *assetStore
	events *eventStore
}

// NewStore creates a new PostgreSQL based Storage interface. retention
// is the per-asset log capacity applied when rebuilding bounded logs
// from their rows.
func NewStore(db *sqlx.DB, retention int) storage.Interface {
	return &store{
		assets: newAssetStore(db, retention),
		events: newEventStore(db),
	}
}

// Assets returns a sub-store for managing the Asset model
func (s *store) Assets() storage.AssetStore {
	return s.assets
}

// Events returns a sub-store for managing the Event model
func (s *store) Events() storage.EventStore {
	return s.events
}

package memory

import "github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"

// Store contains all memory-based sub-stores for managing the persistent models
type store struct {
	assets *assetStore
	events *eventStore
}

// NewStore creates a new memory-based Storage interface
func NewStore() storage.Interface {
	return &store{
		assets: newAssetStore(),
		events: newEventStore(),
	}
}

// Assets returns a sub-store for managing the Asset model
func (s *store) Assets() storage.AssetStore {
	return s.assets
}

// Events returns a sub-store for managing the event model
func (s *store) Events() storage.EventStore {
	return s.events
}

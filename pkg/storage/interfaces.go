package storage

import "github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"

// Interface is implemented by the storage
type Interface interface {
	Assets() AssetStore
	Events() EventStore
}

// AssetStore is responsible for managing the Asset model. Assets are
// never deleted; closing an incident is a status change performed
// through Save.
type AssetStore interface {
	FetchAll() (map[string]model.Asset, error)
	FindByID(id string) (*model.Asset, error)
	Save(m *model.Asset) error
}

// EventStore is responsible for managing the ingestion audit Event
// model
type EventStore interface {
	FetchAll() (map[int32]model.Event, error)
	FindByID(id int32) (*model.Event, error)
	Create(m *model.Event) error
}

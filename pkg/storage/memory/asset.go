package memory

import (
	"sync"
	"time"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
)

type assetStore struct {
	store map[string]*model.Asset
	sync.RWMutex
}

func newAssetStore() *assetStore {
	return &assetStore{
		store: make(map[string]*model.Asset),
	}
}

func (s *assetStore) FetchAll() (models map[string]model.Asset, err error) {
	s.RLock()
	defer s.RUnlock()
	models = make(map[string]model.Asset, len(s.store))

	for id, m := range s.store {
		models[id] = *m.Clone()
	}

	return models, nil
}

func (s *assetStore) FindByID(id string) (*model.Asset, error) {
	s.RLock()
	defer s.RUnlock()
	if m, ok := s.store[id]; ok {
		return m.Clone(), nil
	}

	return nil, storage.ErrNotFound
}

func (s *assetStore) Save(m *model.Asset) error {
	s.Lock()
	defer s.Unlock()

	if existing, ok := s.store[m.ID]; ok {
		m.CreatedAt = existing.CreatedAt
	} else if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().Round(time.Second).UTC()
	}
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = m.Clone()

	return nil
}

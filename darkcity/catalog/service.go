// Package catalog serves the static game catalogs (crimes, items, drugs)
// through a small TTL cache, with fuzzy name search.
package catalog

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"

	"github.com/veszto/darkcity/darkcity/database/models"
)

const (
	cacheSize  = 8
	defaultTTL = 5 * time.Minute

	keyCrimes = "crimes"
	keyItems  = "items"
	keyDrugs  = "drugs"
)

type CrimeStore interface {
	GetAll(ctx context.Context) ([]*models.CrimeDefinition, error)
}

type ItemStore interface {
	GetAll(ctx context.Context) ([]*models.Item, error)
}

type DrugStore interface {
	GetAll(ctx context.Context) ([]*models.Drug, error)
}

type Service struct {
	crimes CrimeStore
	items  ItemStore
	drugs  DrugStore

	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

type entry struct {
	at    time.Time
	value any
}

func NewService(crimes CrimeStore, items ItemStore, drugs DrugStore) *Service {
	cache, _ := lru.New(cacheSize)
	return &Service{
		crimes: crimes,
		items:  items,
		drugs:  drugs,
		cache:  cache,
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

func (s *Service) lookup(key string) (any, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if s.now().Sub(e.at) > s.ttl {
		s.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (s *Service) store(key string, value any) {
	s.cache.Add(key, entry{at: s.now(), value: value})
}

func (s *Service) Crimes(ctx context.Context) ([]*models.CrimeDefinition, error) {
	if v, ok := s.lookup(keyCrimes); ok {
		return v.([]*models.CrimeDefinition), nil
	}
	crimes, err := s.crimes.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.store(keyCrimes, crimes)
	return crimes, nil
}

func (s *Service) Items(ctx context.Context) ([]*models.Item, error) {
	if v, ok := s.lookup(keyItems); ok {
		return v.([]*models.Item), nil
	}
	items, err := s.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.store(keyItems, items)
	return items, nil
}

func (s *Service) Drugs(ctx context.Context) ([]*models.Drug, error) {
	if v, ok := s.lookup(keyDrugs); ok {
		return v.([]*models.Drug), nil
	}
	drugs, err := s.drugs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.store(keyDrugs, drugs)
	return drugs, nil
}

// SearchItems returns catalog items whose name fuzzily matches the query,
// best match first.
func (s *Service) SearchItems(ctx context.Context, query string) ([]*models.Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return items, nil
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}

	matches := fuzzy.Find(query, names)
	out := make([]*models.Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out, nil
}

// Invalidate drops all cached catalogs, forcing a re-read on next access.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

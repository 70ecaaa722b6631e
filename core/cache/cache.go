package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supplier-sync/core/feed"

	"golang.org/x/sync/singleflight"
)

// DataKind identifies which feed payload of a supplier an entry holds.
type DataKind string

const (
	KindProducts  DataKind = "products"
	KindStock     DataKind = "stock"
	KindPrices    DataKind = "prices"
	KindPrintData DataKind = "printdata"
)

// entry is one cached parse result.
type entry struct {
	records []*feed.Record
	built   time.Time
	ttl     time.Duration
}

func (e *entry) expired() bool {
	if e.ttl == 0 {
		return true
	}
	return time.Since(e.built) > e.ttl
}

// Store caches parsed feed payloads per (supplier, kind) with independent
// TTLs. Fetches for the same key are collapsed with singleflight so that
// concurrent syncs of one supplier hit the upstream feed once.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	sf      singleflight.Group
	cfg     Config
}

// New creates an empty store with the given TTL configuration.
func New(cfg Config) *Store {
	return &Store{
		entries: make(map[string]*entry),
		cfg:     cfg,
	}
}

// FetchFunc produces a fresh payload for a cache miss.
type FetchFunc func(ctx context.Context) ([]*feed.Record, error)

// GetOrFetch returns the cached payload for (supplier, kind) when it exists
// and is fresh, and otherwise calls fetch and stores the result. With force
// set the cached entry is ignored and overwritten. The boolean reports
// whether the returned payload came from the cache.
//
// A failed fetch never evicts an existing entry, but its error is returned
// as-is: serving stale data silently would mask feed outages from the sync
// run report.
func (s *Store) GetOrFetch(ctx context.Context, supplier string, kind DataKind, force bool, fetch FetchFunc) ([]*feed.Record, bool, error) {
	key := cacheKey(supplier, kind)

	if !force {
		s.mu.RLock()
		e, ok := s.entries[key]
		s.mu.RUnlock()
		if ok && !e.expired() {
			return e.records, true, nil
		}
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if !force {
			// Another caller may have refreshed while we queued.
			s.mu.RLock()
			e, ok := s.entries[key]
			s.mu.RUnlock()
			if ok && !e.expired() {
				return e, nil
			}
		}

		records, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		fresh := &entry{
			records: records,
			built:   time.Now(),
			ttl:     s.cfg.TTLFor(kind),
		}
		s.mu.Lock()
		s.entries[key] = fresh
		s.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, false, err
	}

	e := result.(*entry)
	// Callers that shared the flight did get a cached answer from their
	// point of view, but reporting it as fresh keeps the hit/miss counters
	// aligned with upstream requests actually made.
	return e.records, false, nil
}

// Invalidate drops the entry for (supplier, kind), if any.
func (s *Store) Invalidate(supplier string, kind DataKind) {
	s.mu.Lock()
	delete(s.entries, cacheKey(supplier, kind))
	s.mu.Unlock()
}

// Flush drops every entry and returns how many were held.
func (s *Store) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]*entry)
	return n
}

func cacheKey(supplier string, kind DataKind) string {
	return fmt.Sprintf("%s:%s", supplier, kind)
}

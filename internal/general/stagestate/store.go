// Package stagestate keeps what a stage has seen, one record per pipeline traversal.
package stagestate

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Store holds records of type T keyed by correlation id. Records expire after
// ttl or when the traversal is completed. The most recent write is also kept
// apart so it survives eviction for inspection.
type Store[T any] struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache[string, T]
	latest T
	seen   bool
}

// New creates a store with the given record lifetime.
func New[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		cache: ttlcache.New[string, T](
			ttlcache.WithTTL[string, T](ttl),
			ttlcache.WithDisableTouchOnHit[string, T](),
		),
	}
}

// Start runs the expiry janitor until Stop is called.
func (s *Store[T]) Start() {
	go s.cache.Start()
}

// Stop halts the janitor.
func (s *Store[T]) Stop() {
	s.cache.Stop()
}

// Update applies fn to the record of id, creating it when absent.
func (s *Store[T]) Update(id string, fn func(rec *T)) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec T
	if item := s.cache.Get(id); item != nil {
		rec = item.Value()
	}
	fn(&rec)
	s.cache.Set(id, rec, ttlcache.DefaultTTL)

	s.latest = rec
	s.seen = true
	return rec
}

// Get returns the live record of id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.cache.Get(id); item != nil {
		return item.Value(), true
	}
	var zero T
	return zero, false
}

// Latest returns the most recently written record of any traversal.
func (s *Store[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.seen
}

// Complete drops the record of a finished traversal.
func (s *Store[T]) Complete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(id)
}

// Len reports live records.
func (s *Store[T]) Len() int {
	return s.cache.Len()
}

package store

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// memoryItem holds the value and expiration timestamp for a key.
type memoryItem struct {
	value     any
	expiresAt int64 // Unix-nano timestamp. 0 for no expiry.
}

// MemoryStore is an in-memory Store that is safe for concurrent use.
// Expired entries are reclaimed by an explicit background sweep, not
// left to accumulate until next access.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]memoryItem
	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its sweep goroutine.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &MemoryStore{
		data:      make(map[string]memoryItem),
		stopSweep: make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().UnixNano()
			s.mu.Lock()
			removed := 0
			for key, item := range s.data {
				if item.expiresAt > 0 && now > item.expiresAt {
					delete(s.data, key)
					removed++
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				logrus.WithField("removed", removed).Debug("memory store sweep reclaimed expired entries")
			}
		case <-s.stopSweep:
			return
		}
	}
}

// Set stores a key-value pair.
func (s *MemoryStore) Set(key string, value any, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryItem{value: value, expiresAt: expiresAt}
	return nil
}

// Get retrieves a value by its key. Expired entries are removed on read.
func (s *MemoryStore) Get(key string) (any, error) {
	s.mu.RLock()
	item, exists := s.data[key]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	if item.expiresAt > 0 && time.Now().UnixNano() > item.expiresAt {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return item.value, nil
}

// Delete removes a value by its key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

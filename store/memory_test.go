package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set("key", "value", 0))
	got, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	_, err := s.Get("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set("key", 1, 0))
	require.NoError(t, s.Delete("key"))
	_, err := s.Get("key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiryOnRead(t *testing.T) {
	s := NewMemoryStore(time.Hour) // sweep far away, read path must expire
	defer s.Close()

	require.NoError(t, s.Set("short", "lived", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get("short")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len(), "expired entry is removed on read")
}

func TestMemoryStoreSweepReclaimsWithoutAccess(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Set("a", 1, 10*time.Millisecond))
	require.NoError(t, s.Set("b", 2, 10*time.Millisecond))
	require.NoError(t, s.Set("keep", 3, 0))

	deadline := time.Now().Add(time.Second)
	for s.Len() > 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, s.Len(), "sweep reclaims expired entries without reads")
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%3)
			for j := 0; j < 100; j++ {
				s.Set(key, j, time.Minute)
				s.Get(key)
				if j%10 == 0 {
					s.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

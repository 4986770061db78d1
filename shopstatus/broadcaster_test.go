package shopstatus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"patisserie-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (p *recordingPublisher) Broadcast(event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.data = append(p.data, data)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func fixedSource(s models.TimeSettings) SettingsSource {
	return func() (models.TimeSettings, error) { return s, nil }
}

func TestBroadcasterSuppressesUnchangedStatus(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBroadcaster(fixedSource(kolkataSettings()), pub, time.Minute)

	open := utc(t, "2024-01-15T05:00:00Z") // 10:30 IST, open

	b.tick(open)
	b.tick(open.Add(30 * time.Second))
	b.tick(open.Add(time.Minute))

	assert.Equal(t, 1, pub.count(), "identical status must be pushed once")
	assert.Equal(t, EventShopStatus, pub.events[0])
}

func TestBroadcasterPushesOnTransition(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBroadcaster(fixedSource(kolkataSettings()), pub, time.Minute)

	b.tick(utc(t, "2024-01-15T05:00:00Z")) // open
	b.tick(utc(t, "2024-01-15T16:00:00Z")) // closed
	b.tick(utc(t, "2024-01-15T16:01:00Z")) // still closed, same next open

	require.Equal(t, 2, pub.count())
	first := pub.data[0].(Status)
	second := pub.data[1].(Status)
	assert.True(t, first.IsOpen)
	assert.False(t, second.IsOpen)
}

func TestBroadcasterFallsBackOnSourceError(t *testing.T) {
	pub := &recordingPublisher{}
	source := func() (models.TimeSettings, error) {
		return models.TimeSettings{}, errors.New("settings store down")
	}
	b := NewBroadcaster(source, pub, time.Minute)

	b.tick(utc(t, "2024-01-15T05:00:00Z"))

	require.Equal(t, 1, pub.count())
	st := pub.data[0].(Status)
	assert.True(t, st.IsOpen, "fallback status reports open")
}

func TestBroadcasterStartStop(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBroadcaster(fixedSource(kolkataSettings()), pub, 10*time.Millisecond)

	b.Start()
	deadline := time.Now().Add(time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, pub.count(), 1, "the first tick fires immediately")

	b.Stop()
	b.Stop() // idempotent
}

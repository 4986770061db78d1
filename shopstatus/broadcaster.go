package shopstatus

import (
	"fmt"
	"sync"
	"time"

	"patisserie-backend/models"

	"github.com/sirupsen/logrus"
)

// Publisher pushes an event to connected clients.
type Publisher interface {
	Broadcast(event string, data any)
}

// SettingsSource loads the current shop-hours configuration.
type SettingsSource func() (models.TimeSettings, error)

// EventShopStatus is the push-channel event carrying a Status payload.
const EventShopStatus = "shop_status"

// Broadcaster recomputes the shop status on a fixed interval and pushes
// it to clients only when the open/next-open/closing tuple actually
// changed, so idle ticks produce no network chatter.
type Broadcaster struct {
	settings SettingsSource
	pub      Publisher
	interval time.Duration

	mu   sync.Mutex
	last string

	stop     chan struct{}
	stopOnce sync.Once
}

func NewBroadcaster(settings SettingsSource, pub Publisher, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Broadcaster{
		settings: settings,
		pub:      pub,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the broadcast loop. An immediate first tick seeds the
// state so clients connected at startup get a status without waiting a
// full interval.
func (b *Broadcaster) Start() {
	go func() {
		b.tick(time.Now())
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.tick(time.Now())
			case <-b.stop:
				return
			}
		}
	}()
}

// Stop terminates the broadcast loop. Safe to call more than once.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})
}

func (b *Broadcaster) tick(now time.Time) {
	st := b.compute(now)
	key := statusKey(st)

	b.mu.Lock()
	changed := key != b.last
	if changed {
		b.last = key
	}
	b.mu.Unlock()

	if !changed {
		return
	}

	b.pub.Broadcast(EventShopStatus, st)
	logrus.WithFields(logrus.Fields{
		"is_open":   st.IsOpen,
		"next_open": st.NextOpenTime,
		"closing":   st.ClosingTime,
	}).Info("shop status changed, broadcasting")
}

func (b *Broadcaster) compute(now time.Time) Status {
	settings, err := b.settings()
	if err != nil {
		logrus.WithError(err).Warn("shop settings unavailable, broadcasting default-open status")
		return DefaultStatus(now)
	}
	st, err := Calculate(settings, now)
	if err != nil {
		logrus.WithError(err).Warn("shop status calculation failed, broadcasting default-open status")
		return DefaultStatus(now)
	}
	return st
}

// statusKey serializes the fields whose change warrants a push.
func statusKey(st Status) string {
	return fmt.Sprintf("%t|%s|%s", st.IsOpen, timeKey(st.NextOpenTime), timeKey(st.ClosingTime))
}

func timeKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

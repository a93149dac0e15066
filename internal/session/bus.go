package session

import (
	"sync"
	"sync/atomic"
)

// Bus broadcasts payload-free "auth changed" notifications.
//
// Publish invokes every subscriber registered at the time of the call,
// synchronously and in registration order, on the publishing goroutine.
type Bus struct {
	subs []*subscription
	mu   sync.Mutex
}

type subscription struct {
	fn     func()
	active atomic.Bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)

			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s == sub {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish notifies subscribers. Subscribers removed mid-publish are skipped.
func (b *Bus) Publish() {
	b.mu.Lock()
	snapshot := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, sub := range snapshot {
		if sub.active.Load() {
			sub.fn()
		}
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

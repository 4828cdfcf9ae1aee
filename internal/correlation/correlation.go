// Package correlation pairs replies with the requests that produced them.
//
// A producer registers a Key before it dispatches work and later stores the
// reply under that key. A consumer, possibly running on another goroutine,
// waits for the reply with Find. Each key is backed by a one-shot future, so
// consumers block on a channel with a deadline rather than polling a map.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
)

var (
	// ErrReplyTimeout reports that no reply was stored for a key within the
	// wait window. It says nothing about why the reply is missing.
	ErrReplyTimeout = errors.New("reply message did not arrive yet")
	// ErrDuplicate reports a second Store for a key that already holds a reply.
	ErrDuplicate = errors.New("reply already stored for correlation key")
	// ErrNoKey reports that a scope holds no key for the requested name.
	ErrNoKey = errors.New("no correlation key in scope")
)

// Key identifies one outstanding request.
type Key string

// String implements fmt.Stringer.
func (k Key) String() string { return string(k) }

// KeyName returns the scope variable under which keys created by the
// endpoint called name are recorded.
func KeyName(name string) string {
	return "correlation_key_" + name
}

// entry is the future behind a single key.
type entry[T any] struct {
	done chan struct{}
	// registered is set when a producer created or filled the entry. Entries
	// created only by a waiting Find are dropped again when that Find gives up.
	registered bool
	stored     bool
	// waiters counts the Find calls blocked on done.
	waiters int
	value   T
}

// Manager stores replies of type T by correlation key.
type Manager[T any] struct {
	clk clock.Clock

	mu      sync.Mutex
	entries map[Key]*entry[T]
}

// NewManager returns an empty Manager. A nil clk selects the wall clock.
func NewManager[T any](clk clock.Clock) *Manager[T] {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &Manager[T]{clk: clk, entries: make(map[Key]*entry[T])}
}

// lookup returns the entry for k, creating it if needed. m.mu must be held.
func (m *Manager[T]) lookup(k Key) *entry[T] {
	e, ok := m.entries[k]
	if !ok {
		e = &entry[T]{done: make(chan struct{})}
		m.entries[k] = e
	}
	return e
}

// CreateKey registers a fresh key and records it in scope under name.
// The key is registered before CreateKey returns, so a consumer that starts
// waiting right away cannot miss the reply.
func (m *Manager[T]) CreateKey(name string, scope *Scope) Key {
	k := Key(uuid.NewString())

	m.mu.Lock()
	m.lookup(k).registered = true
	m.mu.Unlock()

	if scope != nil {
		scope.Set(name, string(k))
	}
	return k
}

// Key returns the key most recently created under name in scope.
func (m *Manager[T]) Key(name string, scope *Scope) (Key, error) {
	if scope == nil {
		return "", fmt.Errorf("%w: %s", ErrNoKey, name)
	}
	v, ok := scope.Get(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrNoKey, name)
	}
	return Key(v), nil
}

// Store completes the future for k with v. Only the first reply for a key is
// kept; later ones are rejected with ErrDuplicate.
func (m *Manager[T]) Store(k Key, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.lookup(k)
	if e.stored {
		return fmt.Errorf("%w: %s", ErrDuplicate, k)
	}
	e.registered = true
	e.stored = true
	e.value = v
	close(e.done)
	return nil
}

// Find waits up to timeout for the reply stored under k and consumes it.
// A non-positive timeout checks once without waiting. Unknown keys are
// waited on like any other key. On expiry, or when ctx is done first, Find
// returns ErrReplyTimeout and leaves k's entry in place for a late reply.
func (m *Manager[T]) Find(ctx context.Context, k Key, timeout time.Duration) (T, error) {
	var zero T

	m.mu.Lock()
	e := m.lookup(k)
	e.waiters++
	m.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		tm := m.clk.NewTimer(timeout)
		defer tm.Stop()
		deadline = tm.C()
	} else {
		ch := make(chan time.Time)
		close(ch)
		deadline = ch
	}

	// Give an already completed future priority over an expired deadline.
	select {
	case <-e.done:
		return m.consume(k, e), nil
	default:
	}

	select {
	case <-e.done:
		return m.consume(k, e), nil
	case <-deadline:
		m.abandon(k, e)
		return zero, fmt.Errorf("%w: %s", ErrReplyTimeout, k)
	case <-ctx.Done():
		m.abandon(k, e)
		return zero, fmt.Errorf("%w: %s: %v", ErrReplyTimeout, k, ctx.Err())
	}
}

func (m *Manager[T]) consume(k Key, e *entry[T]) T {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.waiters--
	if m.entries[k] == e {
		delete(m.entries, k)
	}
	return e.value
}

// abandon drops an entry nobody but waiters ever referenced, once the last
// of those waiters has given up.
func (m *Manager[T]) abandon(k Key, e *entry[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.waiters--
	if m.entries[k] == e && !e.registered && e.waiters == 0 {
		delete(m.entries, k)
	}
}

// Len returns the number of keys with a pending or unconsumed reply.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

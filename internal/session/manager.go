package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultTimeout = 5 * time.Minute

// ExpiryFunc is called once for every session cleared by inactivity.
type ExpiryFunc func(ctx context.Context, key string)

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithExpiryHandler(fn ExpiryFunc) Option {
	return func(m *Manager) { m.onExpire = fn }
}

// Manager owns sessions on top of a Store. Every active session has one
// cancellable timer; a timer that fires after the session was touched again
// finds a fresh timestamp and leaves the session alone.
//
// Timers are identified by a generation number handed to their callback, so
// a callback never reads the timer variable it was created into.
type Manager struct {
	store    Store
	timeout  time.Duration
	now      func() time.Time
	onExpire ExpiryFunc
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	timers   map[string]armed
	locks    map[string]*keyLock
	closed   bool
	inflight sync.WaitGroup
}

type armed struct {
	timer *time.Timer
	gen   uint64
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store, timeout time.Duration, opts ...Option) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	m := &Manager{
		store:   store,
		timeout: timeout,
		now:     time.Now,
		logger:  slog.Default(),
		timers:  make(map[string]armed),
		locks:   make(map[string]*keyLock),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With("component", "session")

	return m
}

func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Lock serialises work on one session key and returns the matching unlock.
// Different keys never block each other.
func (m *Manager) Lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// Get returns the session for key, or a fresh Idle session. A stale session
// is cleared and reported through the expiry handler before Idle is returned.
func (m *Manager) Get(ctx context.Context, key string) (*Session, error) {
	s, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return New(key), nil
	}

	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if s.Expired(m.now(), m.timeout) {
		if err := m.Clear(ctx, key); err != nil {
			return nil, err
		}

		m.notify(ctx, key)

		return New(key), nil
	}

	return s, nil
}

// Set stores the session and restarts its inactivity window. Storing an Idle
// flow is the same as Clear.
func (m *Manager) Set(ctx context.Context, s *Session) error {
	if s.IsIdle() {
		return m.Clear(ctx, s.Key)
	}

	s.LastActivityAt = m.now()

	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	m.arm(s.Key)

	return nil
}

func (m *Manager) Touch(ctx context.Context, key string) error {
	s, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	return m.Set(ctx, s)
}

func (m *Manager) Clear(ctx context.Context, key string) error {
	m.disarm(key)

	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Close stops every pending timer and waits for expiries already running.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for key, a := range m.timers {
		a.timer.Stop()
		delete(m.timers, key)
	}
	m.mu.Unlock()

	m.inflight.Wait()
}

func (m *Manager) arm(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if a, ok := m.timers[key]; ok {
		a.timer.Stop()
	}

	m.gen++
	gen := m.gen

	m.timers[key] = armed{
		timer: time.AfterFunc(m.timeout, func() { m.expire(key, gen) }),
		gen:   gen,
	}
}

func (m *Manager) disarm(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.timers[key]; ok {
		a.timer.Stop()
		delete(m.timers, key)
	}
}

func (m *Manager) expire(key string, gen uint64) {
	m.mu.Lock()
	if a, ok := m.timers[key]; m.closed || !ok || a.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.timers, key)
	m.inflight.Add(1)
	m.mu.Unlock()

	defer m.inflight.Done()

	unlock := m.Lock(key)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := m.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return
	}

	if err != nil {
		m.logger.Error("failed to load session for expiry", "key", key, "error", err)
		return
	}

	// An event handled while this timer was pending wins.
	if !s.Expired(m.now(), m.timeout) {
		return
	}

	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Error("failed to clear expired session", "key", key, "error", err)
		return
	}

	m.logger.Info("session expired", "key", key, "flow", s.Flow.Kind())

	m.notify(ctx, key)
}

func (m *Manager) notify(ctx context.Context, key string) {
	if m.onExpire != nil {
		m.onExpire(ctx, key)
	}
}

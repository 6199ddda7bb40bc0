package idempotency

import (
	"context"
	"sync"
	"time"
)

// Memory tracks state in process memory. Only for single-instance setups.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]memoryEntry
}

type memoryEntry struct {
	state   State
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, items: make(map[string]memoryEntry)}
}

func (m *Memory) acquire(key string, lock time.Duration) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.items[key]; ok && now.Before(e.expires) {
		return e.state
	}

	m.items[key] = memoryEntry{state: StateInProgress, expires: now.Add(lock)}
	return StateNone
}

func (m *Memory) finish(key string, ok bool, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ok {
		delete(m.items, key)
		return
	}
	m.items[key] = memoryEntry{state: StateCompleted, expires: m.now().Add(ttl)}
}

func (m *Memory) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	eo := newExecOptions(opts)

	switch m.acquire(key, eo.lockDuration) {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	err := fn(ctx)
	m.finish(key, err == nil, eo.stateTTL)

	return err
}

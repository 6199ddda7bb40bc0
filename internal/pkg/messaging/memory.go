package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryMaxDeliveries caps how many times the memory broker hands out one
// message when its handler keeps failing.
const MemoryMaxDeliveries = 5

var ErrRedeliveryQueueFull = errors.New("messaging: memory redelivery queue full")

// Memory is an in-process broker. Every Consume call on a destination gets
// its own copy of each message published after it subscribed. A nacked
// message is queued again until MemoryMaxDeliveries is reached; nothing
// survives a restart. It serves single-node deployments and tests.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	seq    atomic.Uint64
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*memorySub)}
}

type memorySub struct {
	ch   chan *memoryMessage
	done chan struct{}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	subs := append([]*memorySub(nil), m.subs[destination]...)
	m.mu.RUnlock()

	now := time.Now()
	offset := m.seq.Add(1)
	for _, sub := range subs {
		mm := &memoryMessage{
			sub:     sub,
			attempt: 1,
			id:      destination + "/" + strconv.FormatUint(offset, 10),
			body:    append([]byte(nil), msg.Body...),
			key:     msg.Key,
			headers: append([]Header(nil), msg.Headers...),
			at:      now,
		}
		select {
		case sub.ch <- mm:
		case <-sub.done:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{Topic: destination, Offset: int64(offset), Timestamp: now}, nil
}

func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	sub := &memorySub{ch: make(chan *memoryMessage, 64), done: make(chan struct{})}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], sub)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-sub.ch:
					//nolint:errcheck // failures are logged by dispatch
					_ = dispatch(ctx, "memory", handler, msg, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	close(sub.done)
	wg.Wait()

	m.mu.Lock()
	subs := m.subs[source]
	for i := range subs {
		if subs[i] == sub {
			m.subs[source] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	return ctx.Err()
}

// Subscribers reports how many Consume calls are attached to destination.
func (m *Memory) Subscribers(destination string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[destination])
}

type memoryMessage struct {
	sub     *memorySub
	attempt int
	id      string
	body    []byte
	key     []byte
	headers []Header
	at      time.Time
}

func (m *memoryMessage) Body() []byte              { return m.body }
func (m *memoryMessage) Key() []byte               { return m.key }
func (m *memoryMessage) Headers() []Header         { return m.headers }
func (m *memoryMessage) ID() string                { return m.id }
func (m *memoryMessage) Timestamp() time.Time      { return m.at }
func (m *memoryMessage) Ack(context.Context) error { return nil }

func (m *memoryMessage) Nack(ctx context.Context) error {
	if m.attempt >= MemoryMaxDeliveries {
		slog.WarnContext(ctx, "memory broker dropped message after max deliveries", "id", m.id, "attempts", m.attempt)
		return nil
	}

	next := *m
	next.attempt++
	select {
	case m.sub.ch <- &next:
		return nil
	case <-m.sub.done:
		return nil
	default:
		return ErrRedeliveryQueueFull
	}
}

package messaging

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"
)

const (
	memoryBufferSize  = 1024
	memoryMaxAttempts = 5
)

// ErrMemoryBufferFull is returned by the memory broker when a consumer group is
// too far behind to accept more messages.
var ErrMemoryBufferFull = errors.New("messaging: memory buffer full")

// Memory is an in-process broker. Each consumer group receives every message
// of a topic; consumers inside a group compete for them. Messages published
// before any group subscribes are held and handed to the first group.
//
// It is meant for tests and single-node development setups.
type Memory struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
	seq    uint64
	anon   uint64
	closed bool
	done   chan struct{}
}

type memoryTopic struct {
	backlog []Message
	groups  map[string]chan Message
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string]*memoryTopic),
		done:   make(chan struct{}),
	}
}

// Close stops every running Consume call.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every consumer group of topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.seq++
	out := Message{
		ID:        strconv.FormatUint(m.seq, 10),
		Topic:     topic,
		Key:       msg.Key,
		Body:      msg.Body,
		Headers:   maps.Clone(msg.Headers),
		Timestamp: time.Now(),
		Attempts:  1,
	}

	t := m.topic(topic)
	if len(t.groups) == 0 {
		t.backlog = append(t.backlog, out)
		return nil
	}

	for _, ch := range t.groups {
		select {
		case ch <- out:
		default:
			return ErrMemoryBufferFull
		}
	}
	return nil
}

// Consume delivers messages of topic to handler until ctx is canceled or the
// broker is closed. A failed message is redelivered up to five times.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	ch, err := m.subscribe(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-ch:
					m.handle(ctx, ch, handler, msg)
				}
			}
		})
	}
	wg.Wait()

	select {
	case <-m.done:
		return nil
	default:
		return ctx.Err()
	}
}

func (m *Memory) handle(ctx context.Context, ch chan Message, handler Handler, msg Message) {
	err := safeHandle(ctx, DriverMemory, handler, msg)
	if err == nil {
		return
	}

	if msg.Attempts >= memoryMaxAttempts {
		slog.ErrorContext(ctx, "messaging: memory message dropped after max attempts", "topic", msg.Topic, "id", msg.ID, "error", err)
		return
	}

	msg.Attempts++
	select {
	case ch <- msg:
	default:
		slog.ErrorContext(ctx, "messaging: memory redelivery dropped, buffer full", "topic", msg.Topic, "id", msg.ID, "error", err)
	}
}

func (m *Memory) subscribe(topic, group string) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if group == "" {
		m.anon++
		group = "anonymous-" + strconv.FormatUint(m.anon, 10)
	}

	t := m.topic(topic)
	ch, ok := t.groups[group]
	if !ok {
		ch = make(chan Message, memoryBufferSize)
		t.groups[group] = ch
	}

	for _, msg := range t.backlog {
		select {
		case ch <- msg:
		default:
			return nil, ErrMemoryBufferFull
		}
	}
	t.backlog = nil

	return ch, nil
}

func (m *Memory) topic(name string) *memoryTopic {
	t, ok := m.topics[name]
	if !ok {
		t = &memoryTopic{groups: make(map[string]chan Message)}
		m.topics[name] = t
	}
	return t
}

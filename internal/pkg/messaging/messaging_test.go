package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func runConsumer(t *testing.T, m *Memory, topic string, h Handler, opts ...ConsumeOption) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Consume(ctx, topic, h, opts...) }()
	return cancel, errCh
}

func TestMemory_PublishBeforeSubscribeIsDelivered(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Publish(context.Background(), "auth.principal.verified", OutgoingMessage{
		Body:    []byte(`{"id":1}`),
		Headers: map[string]string{"x-correlation-id": "abc"},
	}))

	got := make(chan Message, 1)
	cancel, errCh := runConsumer(t, m, "auth.principal.verified", func(_ context.Context, msg Message) error {
		got <- msg
		return nil
	})

	select {
	case msg := <-got:
		assert.Equal(t, `{"id":1}`, string(msg.Body))
		assert.Equal(t, "abc", msg.Headers["x-correlation-id"])
		assert.Equal(t, 1, msg.Attempts)
		assert.NotEmpty(t, msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestMemory_GroupsFanOutAndCompete(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	var groupA, groupB atomic.Int64
	var wg sync.WaitGroup
	wg.Add(6)

	countInto := func(c *atomic.Int64) Handler {
		return func(context.Context, Message) error {
			c.Inc()
			wg.Done()
			return nil
		}
	}

	cancelA1, _ := runConsumer(t, m, "topic", countInto(&groupA), WithGroup("a"))
	cancelA2, _ := runConsumer(t, m, "topic", countInto(&groupA), WithGroup("a"))
	cancelB, _ := runConsumer(t, m, "topic", countInto(&groupB), WithGroup("b"), WithConcurrency(2))
	t.Cleanup(func() { cancelA1(); cancelA2(); cancelB() })

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.topics["topic"] != nil && len(m.topics["topic"].groups) == 2
	}, time.Second, 5*time.Millisecond)

	for range 3 {
		require.NoError(t, m.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("x")}))
	}

	waitOrFail(t, &wg)
	assert.Equal(t, int64(3), groupA.Load())
	assert.Equal(t, int64(3), groupB.Load())
}

func TestMemory_RedeliversFailedMessage(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	var calls atomic.Int64
	done := make(chan int, 1)
	cancel, _ := runConsumer(t, m, "topic", func(_ context.Context, msg Message) error {
		if calls.Inc() < 3 {
			return errors.New("transient")
		}
		done <- msg.Attempts
		return nil
	})
	t.Cleanup(cancel)

	require.NoError(t, m.Publish(context.Background(), "topic", OutgoingMessage{Body: []byte("x")}))

	select {
	case attempts := <-done:
		assert.Equal(t, 3, attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("message not redelivered")
	}
}

func TestMemory_PanicIsRecovered(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })

	var calls atomic.Int64
	ok := make(chan struct{})
	cancel, _ := runConsumer(t, m, "topic", func(context.Context, Message) error {
		if calls.Inc() == 1 {
			panic("boom")
		}
		close(ok)
		return nil
	})
	t.Cleanup(cancel)

	require.NoError(t, m.Publish(context.Background(), "topic", OutgoingMessage{}))

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not survive the panic")
	}
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory()

	_, errCh := runConsumer(t, m, "topic", func(context.Context, Message) error { return nil })
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.topics["topic"] != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.NoError(t, <-errCh)

	err := m.Publish(context.Background(), "topic", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })
	ctx := context.Background()

	assert.ErrorIs(t, m.Publish(ctx, "", OutgoingMessage{}), ErrTopicRequired)
	assert.ErrorIs(t, m.Consume(ctx, "", func(context.Context, Message) error { return nil }), ErrTopicRequired)
	assert.ErrorIs(t, m.Consume(ctx, "topic", nil), ErrHandlerRequired)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Publish(canceled, "topic", OutgoingMessage{}), context.Canceled)
}

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, []string{DriverGooglePubSub, DriverKafka, DriverMemory, DriverNATS, DriverNSQ}, Drivers())

	m, err := NewFromDriver(ctx, " Memory ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)
	require.NoError(t, m.Close())

	_, err = NewFromDriver(ctx, "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestNSQ_RequiresGroupAndProducer(t *testing.T) {
	n, err := NewNSQ(NSQConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })

	ctx := context.Background()
	h := func(context.Context, Message) error { return nil }

	assert.ErrorIs(t, n.Publish(ctx, "topic", OutgoingMessage{}), ErrNSQProducerAddrRequired)
	assert.ErrorIs(t, n.Consume(ctx, "topic", h), ErrGroupRequired)
	assert.ErrorIs(t, n.Consume(ctx, "topic", h, WithGroup("ch")), ErrNSQConsumerAddrsRequired)
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}
}

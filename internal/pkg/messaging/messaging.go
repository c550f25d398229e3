package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when publishing or consuming without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned by drivers that need a consumer group (Kafka group,
	// NSQ channel, Pub/Sub subscription) when none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client closed")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic until ctx is canceled.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A nil return acknowledges it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Key is used for partitioning (Kafka) and ordering (Pub/Sub).
	Key []byte
	// Body is the message payload.
	Body []byte
	// Headers travel as broker headers or attributes. NSQ has neither and drops them.
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	// ID is the broker message ID when the broker assigns one.
	ID string
	// Topic is the topic (or subject) the message was received from.
	Topic string
	// Key is the message key, if any.
	Key []byte
	// Body is the message payload.
	Body []byte
	// Headers are the message headers or attributes.
	Headers map[string]string
	// Timestamp is the broker timestamp, or the receive time when the broker has none.
	Timestamp time.Time
	// Attempts is how many times the broker has delivered this message, when known.
	Attempts int
}

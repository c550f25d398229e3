// Package messaging publishes and consumes domain events over a broker.
//
// Use cases only see the Messaging interface. The driver (NATS, NSQ, Kafka,
// Google Pub/Sub or the in-process memory broker) is picked from configuration
// at startup by NewFromDriver.
//
// Delivery is at-least-once: a handler that returns nil acknowledges the
// message, an error asks the broker to redeliver it where the broker supports
// that.
package messaging

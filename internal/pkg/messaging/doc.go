// Package messaging publishes audit and domain events to a broker.
//
// Publishing is fire-and-forget from the caller's perspective: events are
// informational and never part of an access decision. Drivers wrap Kafka,
// NATS, NSQ and Google Pub/Sub, plus a structured-log driver and an
// in-memory recorder for tests.
package messaging

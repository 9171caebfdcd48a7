package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a messaging vendor.
type Vendor string

// VendorMemory is the in-process queue.
const VendorMemory Vendor = "memory"

// ErrQueueFull is returned by Publish when the queue cannot accept more messages.
var ErrQueueFull = errors.New("messaging: queue full")

// Queue represents an abstract message queue for any payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue without blocking
	// on consumers.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue.
type Message[T any] interface {
	// ID returns the message identifier assigned on publish.
	ID() string

	// T returns the payload of this message.
	T() *T

	// Ack acknowledges successful processing of this message.
	Ack() error

	// Nack indicates failure; the queue may redeliver the message.
	Nack(err error) error
}

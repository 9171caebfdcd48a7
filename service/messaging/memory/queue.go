package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/moderation/service/messaging"
)

// Config for memory queue implementation.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns a standard configuration for memory queue.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 256,
	}
}

var errProcessed = errors.New("message already processed")

// Message is a single delivery of a payload.
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
}

func (m *Message[T]) ID() string { return m.id }

func (m *Message[T]) T() *T { return &m.payload }

// Attempt returns the zero based delivery attempt.
func (m *Message[T]) Attempt() int { return m.retryCount }

// Ack marks the delivery as done.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errProcessed
	}
	m.processed = true
	return nil
}

// Nack redelivers the payload after RetryDelay until MaxRetries is
// exhausted; afterwards the message is dead-lettered when enabled.
func (m *Message[T]) Nack(_ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errProcessed
	}
	m.processed = true
	if m.retryCount < m.queue.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, retryCount: m.retryCount + 1}
		time.AfterFunc(m.queue.config.RetryDelay, func() {
			if !m.queue.enqueue(retry) {
				m.queue.deadLetter(retry)
			}
		})
		return nil
	}
	m.queue.deadLetter(m)
	return nil
}

// Queue implements an in-memory messaging.Queue backed by a buffered channel.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	dlqMu    sync.Mutex
	dlq      []*Message[T]
}

// NewQueue creates a new in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a payload copy to the queue; a full buffer yields messaging.ErrQueueFull.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
	if !q.enqueue(msg) {
		return messaging.ErrQueueFull
	}
	return nil
}

// Consume retrieves a single message from the queue.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of buffered messages.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DeadLetters returns payloads that exhausted their retries.
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	result := make([]T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		result = append(result, msg.payload)
	}
	return result
}

func (q *Queue[T]) enqueue(msg *Message[T]) bool {
	select {
	case q.messages <- msg:
		return true
	default:
		return false
	}
}

func (q *Queue[T]) deadLetter(msg *Message[T]) {
	if !q.config.DeadLetter {
		return
	}
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, msg)
	q.dlqMu.Unlock()
}

var _ messaging.Queue[struct{}] = (*Queue[struct{}])(nil)

package notification

import (
	"context"
	"sync"
	"time"

	"github.com/viant/moderation/internal/logging"
)

// Sender names accepted in configuration.
const (
	SenderLog    = "log"
	SenderMemory = "memory"
	SenderSMTP   = "smtp"
	SenderOutbox = "outbox"
)

// Delivery is the rendered message handed to a Sender.
type Delivery struct {
	ID       string    `json:"id"`
	Template string    `json:"template"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sentAt"`
}

// Sender delivers a rendered notification to its recipient.
type Sender interface {
	Deliver(ctx context.Context, delivery *Delivery) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, delivery *Delivery) error

func (f SenderFunc) Deliver(ctx context.Context, delivery *Delivery) error { return f(ctx, delivery) }

// MemorySender stores deliveries in memory for inspection/testing.
type MemorySender struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// NewMemorySender constructs an empty memory sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (m *MemorySender) Deliver(_ context.Context, delivery *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, *delivery)
	return nil
}

// Deliveries returns a copy of deliveries seen so far.
func (m *MemorySender) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

// LogSender writes deliveries to the logger instead of sending them.
// The body is omitted since it may carry a one-time code.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender returns a LogSender.
func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Deliver(ctx context.Context, delivery *Delivery) error {
	l.logger.InfoContext(ctx, "notification delivered",
		"id", delivery.ID,
		"template", delivery.Template,
		"to", logging.MaskEmail(delivery.To),
		"subject", delivery.Subject)
	return nil
}

package notification

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/messaging/memory"
)

func TestService_DeliversRenderedNotification(t *testing.T) {
	sender := NewMemorySender()
	srv := New(WithSender(sender))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	defer srv.Shutdown()

	vars := map[string]string{VarRequesterName: "Ann", VarRequesterEmail: "ann@example.com", VarCode: "123456"}
	require.NoError(t, srv.Send(ctx, TemplateVerificationCode, vars))
	vars[VarCode] = "000000"

	assert.Eventually(t, func() bool { return len(sender.Deliveries()) == 1 }, time.Second, 5*time.Millisecond)
	delivery := sender.Deliveries()[0]
	assert.Equal(t, "ann@example.com", delivery.To)
	assert.Contains(t, delivery.Body, "123456")
	assert.NotEmpty(t, delivery.ID)
}

func TestService_SendValidation(t *testing.T) {
	srv := New(WithSender(NewMemorySender()))
	ctx := context.Background()

	err := srv.Send(ctx, "unknown.template", map[string]string{VarRequesterEmail: "ann@example.com"})
	assert.True(t, errors.Is(err, model.ErrNotification))

	assert.NoError(t, srv.Send(ctx, TemplateApproved, map[string]string{VarRequesterName: "Ann"}))
}

func TestService_QueueFullIsNotificationError(t *testing.T) {
	queue := memory.NewQueue[Notification](memory.Config{QueueBuffer: 1})
	srv := New(WithQueue(queue), WithSender(NewMemorySender()))
	ctx := context.Background()
	vars := map[string]string{VarRequesterEmail: "ann@example.com"}
	require.NoError(t, srv.Send(ctx, TemplateApproved, vars))
	err := srv.Send(ctx, TemplateApproved, vars)
	assert.True(t, errors.Is(err, model.ErrNotification))
}

func TestService_RetriesThenDeadLetters(t *testing.T) {
	var attempts int32
	failing := SenderFunc(func(context.Context, *Delivery) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("relay down")
	})
	queue := memory.NewQueue[Notification](memory.Config{QueueBuffer: 4, DeadLetter: true})
	srv := New(
		WithQueue(queue),
		WithSender(failing),
		WithBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)
		}),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	defer srv.Shutdown()

	require.NoError(t, srv.Send(ctx, TemplateDenied, map[string]string{VarRequesterEmail: "ann@example.com", VarDenialReason: "spam"}))
	assert.Eventually(t, func() bool { return len(queue.DeadLetters()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRecorder(t *testing.T) {
	recorder := &Recorder{}
	vars := map[string]string{VarCode: "1"}
	require.NoError(t, recorder.Send(context.Background(), TemplateVerificationCode, vars))
	vars[VarCode] = "2"
	sent, ok := recorder.Last(TemplateVerificationCode)
	require.True(t, ok)
	assert.Equal(t, "1", sent.Vars[VarCode])

	recorder.Err = errors.New("down")
	assert.Error(t, recorder.Send(context.Background(), TemplateDenied, nil))
	assert.Len(t, recorder.Sent(), 2)
}

package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao/store"
	"github.com/viant/moderation/service/moderation"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/service/verification"
)

type fixture struct {
	service    *Service
	recorder   *notification.Recorder
	items      *store.MemoryStore[string, model.Item]
	challenges *store.MemoryStore[string, model.Challenge]
	clock      *clock.Manual
}

func newFixture(t *testing.T, config verification.Config) *fixture {
	t.Helper()
	config.HashCost = bcrypt.MinCost
	f := &fixture{
		recorder:   &notification.Recorder{},
		items:      store.NewMemoryStore[string, model.Item](func(i *model.Item) string { return i.ID }),
		challenges: store.NewMemoryStore[string, model.Challenge](func(c *model.Challenge) string { return c.ID }),
		clock:      clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	cooldowns := store.NewMemoryStore[string, model.Cooldown](func(c *model.Cooldown) string { return c.Email })
	gate, err := verification.New(f.challenges, cooldowns,
		verification.WithConfig(config),
		verification.WithClock(f.clock),
		verification.WithDispatcher(f.recorder),
	)
	require.NoError(t, err)
	queue, err := moderation.New(f.items, moderation.WithClock(f.clock))
	require.NoError(t, err)
	f.service, err = New(gate, queue, WithPolicy(config.Required))
	require.NoError(t, err)
	return f
}

func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	sent, ok := f.recorder.Last(notification.TemplateVerificationCode)
	require.True(t, ok)
	return sent.Vars[notification.VarCode]
}

func (f *fixture) itemCount(t *testing.T) int {
	t.Helper()
	items, err := f.items.List(context.Background())
	require.NoError(t, err)
	return len(items)
}

var bob = model.Requester{Name: "Bob", Email: "bob@example.com"}

func TestSubmit_DisabledVerificationEnqueuesDirectly(t *testing.T) {
	config := verification.DefaultConfig()
	config.Enabled = false
	f := newFixture(t, config)

	receipt, err := f.service.Submit(context.Background(), model.Requester{Name: "Anon"}, model.ContentDeletion{ContentID: "c1", Reason: "duplicate"})
	require.NoError(t, err)
	assert.False(t, receipt.Pending())
	require.NotNil(t, receipt.Item)
	assert.Equal(t, model.StatusPending, receipt.Item.Status)
	assert.Equal(t, model.KindContentDeletion, receipt.Item.Kind)
	assert.Empty(t, f.recorder.Sent())
}

func TestSubmit_ExemptKind(t *testing.T) {
	config := verification.DefaultConfig()
	config.ExemptKinds = []model.ActionKind{model.KindUpdateDeletion}
	f := newFixture(t, config)

	receipt, err := f.service.Submit(context.Background(), model.Requester{}, model.UpdateDeletion{UpdateID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, receipt.Item)
	assert.Empty(t, f.recorder.Sent())
}

func TestSubmit_VerifiedFlow(t *testing.T) {
	f := newFixture(t, verification.DefaultConfig())
	ctx := context.Background()

	payload := &model.StatusChange{ContentID: "c1", Status: "resolved"}
	receipt, err := f.service.Submit(ctx, bob, payload)
	require.NoError(t, err)
	require.True(t, receipt.Pending())
	assert.Equal(t, 0, f.itemCount(t))
	payload.Status = "tampered"

	flow := receipt.Flow
	_, err = flow.Verify(ctx, "000000x")
	assert.True(t, errors.Is(err, model.ErrInvalidCode))
	assert.Equal(t, 0, f.itemCount(t))

	item, err := flow.Verify(ctx, f.lastCode(t))
	require.NoError(t, err)
	assert.Equal(t, ItemID(flow.Handle().ChallengeID), item.ID)
	assert.Equal(t, flow.Handle().ChallengeID, item.ChallengeID)
	assert.Equal(t, model.StatusChange{ContentID: "c1", Status: "resolved"}, item.Action.Payload())
	assert.Equal(t, bob, item.Requester)

	_, err = flow.Verify(ctx, f.lastCode(t))
	assert.True(t, errors.Is(err, model.ErrAlreadyConsumed))
	assert.Equal(t, 1, f.itemCount(t))

	receipt, err = f.service.Submit(ctx, bob, model.ContentDeletion{ContentID: "c2"})
	require.NoError(t, err)
	assert.False(t, receipt.Pending(), "recently verified email skips the challenge")
	assert.Equal(t, 2, f.itemCount(t))
}

func TestSubmit_ValidationWritesNothing(t *testing.T) {
	f := newFixture(t, verification.DefaultConfig())
	ctx := context.Background()

	_, err := f.service.Submit(ctx, bob, model.StatusChange{ContentID: "c1", Status: "  "})
	assert.True(t, errors.Is(err, model.ErrValidation))
	_, err = f.service.Submit(ctx, model.Requester{Name: "Bob"}, model.ContentDeletion{ContentID: "c1"})
	assert.True(t, errors.Is(err, model.ErrValidation))
	_, err = f.service.Submit(ctx, bob, nil)
	assert.True(t, errors.Is(err, model.ErrValidation))

	challenges, err := f.challenges.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, challenges)
	assert.Equal(t, 0, f.itemCount(t))
	assert.Empty(t, f.recorder.Sent())
}

func TestSubmit_PreferenceChangeDefaultsRequester(t *testing.T) {
	f := newFixture(t, verification.DefaultConfig())
	ctx := context.Background()

	receipt, err := f.service.Submit(ctx, model.Requester{}, model.PreferenceChange{Name: "Cara", Email: "Cara@Example.com", Notify: true})
	require.NoError(t, err)
	require.True(t, receipt.Pending())
	assert.Equal(t, "cara@example.com", receipt.Flow.Requester().Email)

	item, err := receipt.Flow.Verify(ctx, f.lastCode(t))
	require.NoError(t, err)
	assert.Equal(t, model.Requester{Name: "Cara", Email: "cara@example.com"}, item.Requester)
}

func TestFlow_ResendAndAbandon(t *testing.T) {
	f := newFixture(t, verification.DefaultConfig())
	ctx := context.Background()

	receipt, err := f.service.Submit(ctx, bob, model.ContentUpdate{Title: "Outage", Message: "Investigating"})
	require.NoError(t, err)
	flow := receipt.Flow
	first := flow.Handle()

	next, err := flow.Resend(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ChallengeID, next.ChallengeID)
	assert.Equal(t, *next, flow.Handle())

	_, err = f.service.Verify(ctx, first.ChallengeID, f.lastCode(t))
	assert.True(t, errors.Is(err, model.ErrExpiredCode))

	flow.Abandon()
	assert.True(t, flow.Action().IsZero())
	_, err = flow.Verify(ctx, f.lastCode(t))
	assert.True(t, errors.Is(err, model.ErrExpiredCode))
	assert.Equal(t, 0, f.itemCount(t))
}

type replayingGate struct {
	verified *verification.Verified
}

func (g *replayingGate) RequestCode(context.Context, model.Requester, model.Action) (verification.Outcome, error) {
	return verification.Outcome{Kind: verification.OutcomeChallengeIssued, Handle: &model.Handle{ChallengeID: g.verified.ChallengeID}}, nil
}

func (g *replayingGate) VerifyCode(context.Context, string, string) (*verification.Verified, error) {
	return g.verified, nil
}

func (g *replayingGate) Consumed(context.Context, string, string) (*verification.Verified, error) {
	return g.verified, nil
}

func (g *replayingGate) Resend(context.Context, string) (*model.Handle, error) {
	return nil, model.ErrAlreadyConsumed
}

func TestVerify_AtMostOneItemPerChallenge(t *testing.T) {
	items := store.NewMemoryStore[string, model.Item](func(i *model.Item) string { return i.ID })
	queue, err := moderation.New(items)
	require.NoError(t, err)
	gate := &replayingGate{verified: &verification.Verified{
		ChallengeID: "ch-1",
		Action:      model.MustAction(model.UpdateDeletion{UpdateID: "u1"}),
		Requester:   bob,
	}}
	srv, err := New(gate, queue)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = srv.Verify(ctx, "ch-1", "123456")
	require.NoError(t, err)
	_, err = srv.Verify(ctx, "ch-1", "123456")
	assert.True(t, errors.Is(err, model.ErrAlreadyConsumed))

	list, err := items.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingInserts struct {
	*store.MemoryStore[string, model.Item]
	failures int
}

func (s *failingInserts) Insert(ctx context.Context, item *model.Item) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return s.MemoryStore.Insert(ctx, item)
}

func TestVerify_RetryAfterEnqueueFailure(t *testing.T) {
	f := newFixture(t, verification.DefaultConfig())
	items := &failingInserts{MemoryStore: f.items, failures: 1}
	queue, err := moderation.New(items, moderation.WithClock(f.clock))
	require.NoError(t, err)
	f.service.queue = queue
	ctx := context.Background()

	receipt, err := f.service.Submit(ctx, bob, model.UpdateDeletion{UpdateID: "u1"})
	require.NoError(t, err)
	challengeID := receipt.Flow.Handle().ChallengeID
	code := f.lastCode(t)

	_, err = f.service.Verify(ctx, challengeID, code)
	assert.True(t, errors.Is(err, model.ErrPersistence))
	assert.Equal(t, 0, f.itemCount(t))

	_, err = f.service.Verify(ctx, challengeID, "000000")
	assert.True(t, errors.Is(err, model.ErrAlreadyConsumed))
	assert.Equal(t, 0, f.itemCount(t))

	item, err := f.service.Verify(ctx, challengeID, code)
	require.NoError(t, err)
	assert.Equal(t, ItemID(challengeID), item.ID)
	assert.Equal(t, model.UpdateDeletion{UpdateID: "u1"}, item.Action.Payload())

	_, err = f.service.Verify(ctx, challengeID, code)
	assert.True(t, errors.Is(err, model.ErrAlreadyConsumed))
	assert.Equal(t, 1, f.itemCount(t))
}

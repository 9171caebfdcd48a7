package moderation

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/idgen"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/internal/storeerr"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/dao/criteria"
	"github.com/viant/moderation/tracing"
)

// Request describes a submission to enqueue.  ID is optional.
type Request struct {
	ID          string
	Action      model.Action
	Requester   model.Requester
	ChallengeID string
}

// Service is the moderation queue.
type Service struct {
	items   dao.Conditional[string, model.Item]
	clock   clock.Clock
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New creates a queue over the item store.
func New(items dao.Conditional[string, model.Item], options ...Option) (*Service, error) {
	if items == nil {
		return nil, errors.New("item store is required")
	}
	s := &Service{items: items, clock: clock.System{}, logger: logging.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Enqueue creates a pending item.  The requester identity is recorded as
// given; it is not checked here.
func (s *Service) Enqueue(ctx context.Context, request Request) (item *model.Item, err error) {
	ctx, span := tracing.StartSpan(ctx, "moderation.Enqueue", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	if request.Action.IsZero() {
		return nil, model.NewValidationError("payload", "payload is required")
	}
	id := strings.TrimSpace(request.ID)
	if id == "" {
		id = idgen.NewSortable()
	}
	item = &model.Item{
		ID:          id,
		Kind:        request.Action.Kind(),
		Action:      request.Action,
		Requester:   request.Requester.Normalized(),
		ChallengeID: request.ChallengeID,
		SubmittedAt: s.clock.Now(),
		Status:      model.StatusPending,
	}
	span.WithAttributes(map[string]string{"item.id": id, "action.kind": string(item.Kind)})
	if err = s.items.Insert(ctx, item); err != nil {
		return nil, model.NewPersistenceError("enqueue item", err)
	}
	s.metrics.Enqueued(string(item.Kind))
	s.logger.InfoContext(ctx, "item enqueued", "item_id", id, "kind", item.Kind)
	return item, nil
}

// Load returns a single item.
func (s *Service) Load(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.items.Load(ctx, id)
	if err != nil {
		return nil, storeerr.Wrap("load item", "item", id, err)
	}
	return item, nil
}

// ListPending returns pending items of kind, most recent first.  An empty
// kind lists every kind.
func (s *Service) ListPending(ctx context.Context, kind model.ActionKind) ([]*model.Item, error) {
	return s.List(ctx, model.StatusPending, kind)
}

// List returns items filtered by status and kind, most recent first.  Empty
// filters match everything.
func (s *Service) List(ctx context.Context, status model.Status, kind model.ActionKind) ([]*model.Item, error) {
	if kind != "" && !kind.Valid() {
		return nil, model.NewValidationError("kind", "unsupported action kind "+string(kind))
	}
	parameters := []*dao.Parameter{
		dao.NewParameter(dao.ParamStatus, string(status)),
		dao.NewParameter(dao.ParamKind, string(kind)),
	}
	all, err := s.items.List(ctx, parameters...)
	if err != nil {
		return nil, model.NewPersistenceError("list items", err)
	}
	result := make([]*model.Item, 0, len(all))
	for _, item := range all {
		if criteria.Match(fields(item), parameters) {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].SubmittedAt.After(result[j].SubmittedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func fields(item *model.Item) map[string]string {
	return map[string]string{
		dao.ParamStatus: string(item.Status),
		dao.ParamKind:   string(item.Kind),
	}
}

// Package moderation provides a moderated-action pipeline for a
// community-maintained status board.
//
// Anonymous visitors submit actions (new content, deletions, status changes,
// subscription preferences).  Depending on configuration an action is first
// gated by an emailed one-time code; once verified it is queued for an
// administrator who approves or denies it.  Only approval applies the
// action's side effects, exactly once.
//
// The root Service wires the layers:
//
//   - verification  – one-time codes, attempts, expiry and cooldown
//   - capture       – snapshot an action and replay it after verification
//   - moderation    – the pending item queue
//   - approval      – claim, apply effects, decide
//   - notification  – templated email delivery from a worker pool
//
// Typical use:
//
//	srv, _ := moderation.New(ctx, moderation.WithConfig(cfg))
//	_ = srv.Start(ctx)
//	receipt, _ := srv.Submit(ctx, requester, model.StatusChange{ContentID: "c1", Status: "resolved"})
//	item, _ := srv.Verify(ctx, receipt.Flow.Handle().ChallengeID, code)
//	_, _ = srv.Approve(ctx, item.ID)
package moderation

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptStorePersistsSnapshots(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	ctx := context.Background()
	store := NewAttemptStore(client, time.Hour)

	section := sampleBank().Sections[0]
	attempt := app.NewAttempt("a-1", "u-1", section.Section, app.GroupRows(section.Rows, app.FoldOptions{}))
	if err := store.Create(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("attempt:a-1") {
		t.Fatalf("expected snapshot key to be set")
	}
	if _, err := attempt.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, _, err := attempt.Answer(1, "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := store.Save(ctx, attempt); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store has no local copy and must rehydrate from Redis.
	other := NewAttemptStore(client, time.Hour)
	restored, err := other.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	snap := restored.Snapshot()
	if snap.UserID != "u-1" || snap.State != domain.AttemptActive || snap.Answers[1] != "B" {
		t.Fatalf("unexpected restored snapshot %+v", snap)
	}
	if len(other.live) != 0 || len(store.live) != 0 {
		t.Fatalf("attempts without subscribers must not stay in process")
	}

	if _, err := other.Get(ctx, "missing"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestAttemptStoreKeepsSubscribedAttemptsOnly(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	ctx := context.Background()
	sections := sectionStub{section: sampleBank().Sections[0]}
	first := NewAttemptStore(client, time.Hour)
	second := NewAttemptStore(client, time.Hour)
	svcA := app.NewAttemptService(first, sections, app.FoldOptions{})
	svcB := app.NewAttemptService(second, sections, app.FoldOptions{})

	view, err := svcA.Create(ctx, "u-1", "s1", true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updates, cancel, err := svcA.Subscribe(ctx, "u-1", view.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	<-updates
	_, cancelSecond, err := svcA.Subscribe(ctx, "u-1", view.ID)
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	if len(first.live) != 1 || first.live[view.ID].refs != 2 {
		t.Fatalf("expected one shared live attempt, got %d", len(first.live))
	}

	if _, _, err := svcA.Answer(ctx, "u-1", view.ID, 1, "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if got := <-updates; got.AnsweredCount != 1 {
		t.Fatalf("subscriber missed the answer, got %+v", got)
	}

	// another instance sees the saved answer
	if _, _, err := svcB.Answer(ctx, "u-1", view.ID, 1, "A"); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered on the second instance, got %v", err)
	}

	cancelSecond()
	if len(first.live) != 1 {
		t.Fatalf("attempt evicted while still subscribed")
	}
	cancel()
	if len(first.live) != 0 {
		t.Fatalf("expected attempt evicted after the last subscriber left")
	}

	// finished elsewhere, visible here once nothing holds a local copy
	if _, _, err := svcB.Finish(ctx, "u-1", view.ID); err != nil {
		t.Fatalf("finish on second instance: %v", err)
	}
	got, err := svcA.Get(ctx, "u-1", view.ID)
	if err != nil || got.State != domain.AttemptFinished {
		t.Fatalf("expected finished attempt, got %s err %v", got.State, err)
	}
}

type sectionStub struct {
	section domain.BankSection
}

func (s sectionStub) GetSection(_ context.Context, sectionID string) (domain.BankSection, error) {
	if sectionID != s.section.ID {
		return domain.BankSection{}, domain.ErrSectionNotFound
	}
	return s.section, nil
}

func (s sectionStub) Invalidate(context.Context, string) {}

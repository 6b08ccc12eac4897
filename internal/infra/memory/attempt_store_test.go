package memory

import (
	"context"
	"errors"
	"testing"

	"eatpl-quiz-service/internal/app"
	"eatpl-quiz-service/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	store := NewAttemptStore()
	ctx := context.Background()

	questions := app.GroupRows(sampleBank().Sections[0].Rows, app.FoldOptions{})
	attempt := app.NewAttempt("a-1", "u-1", domain.Section{ID: "cardio"}, questions)
	if err := store.Create(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != attempt {
		t.Fatalf("expected the live attempt back")
	}
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/koinonia-app/backend/internal/models"
)

func TestMemoryToggleInteraction(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()
	entity := Entity{Kind: models.EntityPost, ID: "p1"}

	present, count, err := led.ToggleInteraction(ctx, entity, models.KindAmen, "u1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !present || count != 1 {
		t.Errorf("first toggle: got present=%v count=%d, want true 1", present, count)
	}

	present, count, err = led.ToggleInteraction(ctx, entity, models.KindAmen, "u1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if present || count != 0 {
		t.Errorf("second toggle: got present=%v count=%d, want false 0", present, count)
	}

	present, count, err = led.ToggleInteraction(ctx, entity, models.KindAmen, "u1")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !present || count != 1 {
		t.Errorf("third toggle: got present=%v count=%d, want true 1", present, count)
	}
}

func TestMemoryToggleDistinctActors(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()
	entity := Entity{Kind: models.EntityPost, ID: "p1"}
	actors := []string{"u1", "u2", "u3", "u4", "u5"}

	var wg sync.WaitGroup
	for _, a := range actors {
		wg.Add(1)
		go func(actorID string) {
			defer wg.Done()
			if _, _, err := led.ToggleInteraction(ctx, entity, models.KindLightbulb, actorID); err != nil {
				t.Errorf("toggle %s: %v", actorID, err)
			}
		}(a)
	}
	wg.Wait()

	count, err := led.Counter(ctx, entity, models.KindLightbulb)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if count != int64(len(actors)) {
		t.Errorf("got count %d, want %d", count, len(actors))
	}
	for _, a := range actors {
		has, err := led.HasInteraction(ctx, entity, models.KindLightbulb, a)
		if err != nil {
			t.Fatalf("has: %v", err)
		}
		if !has {
			t.Errorf("actor %s: interaction record missing", a)
		}
	}
}

func TestMemoryCounterClampsAtZero(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()
	entity := Entity{Kind: models.EntityUser, ID: "u1"}

	count, err := led.IncrementCounter(ctx, entity, models.KindFollowing, -5)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 0 {
		t.Errorf("got count %d, want 0", count)
	}

	count, err = led.IncrementCounter(ctx, entity, models.KindFollowing, 2)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 2 {
		t.Errorf("got count %d, want 2", count)
	}
}

func TestMemoryAppendAndRemoveChild(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()
	entity := Entity{Kind: models.EntityPost, ID: "p1"}

	childID, count, err := led.AppendChild(ctx, entity, models.KindComment, ChildRecord{
		ActorID: "u1",
		Content: "first",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if childID == "" || count != 1 {
		t.Errorf("append: got id=%q count=%d, want non-empty 1", childID, count)
	}

	if _, _, err := led.AppendChild(ctx, entity, models.KindComment, ChildRecord{ActorID: "u2", Content: "second"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	count, err = led.RemoveChild(ctx, entity, models.KindComment, childID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 1 {
		t.Errorf("after remove: got count %d, want 1", count)
	}

	// Removing an absent child leaves the counter alone.
	count, err = led.RemoveChild(ctx, entity, models.KindComment, childID)
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if count != 1 {
		t.Errorf("after absent remove: got count %d, want 1", count)
	}
}

func TestMemoryRemoveEntity(t *testing.T) {
	ctx := context.Background()
	led := NewMemory()
	entity := Entity{Kind: models.EntityPost, ID: "p1"}
	other := Entity{Kind: models.EntityPost, ID: "p2"}

	if _, _, err := led.ToggleInteraction(ctx, entity, models.KindAmen, "u1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, _, err := led.AppendChild(ctx, entity, models.KindComment, ChildRecord{ActorID: "u1", Content: "c"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, _, err := led.ToggleInteraction(ctx, other, models.KindAmen, "u1"); err != nil {
		t.Fatalf("toggle other: %v", err)
	}

	if err := led.RemoveEntity(ctx, entity); err != nil {
		t.Fatalf("remove entity: %v", err)
	}

	count, _ := led.Counter(ctx, entity, models.KindAmen)
	if count != 0 {
		t.Errorf("amen count after removal: got %d, want 0", count)
	}
	has, _ := led.HasInteraction(ctx, entity, models.KindAmen, "u1")
	if has {
		t.Error("interaction record survived entity removal")
	}

	count, _ = led.Counter(ctx, other, models.KindAmen)
	if count != 1 {
		t.Errorf("sibling entity count: got %d, want 1", count)
	}
}

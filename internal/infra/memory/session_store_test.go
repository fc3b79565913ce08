package memory

import (
	"testing"

	"minigame-service/internal/app"
	"minigame-service/internal/game"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session, err := app.NewSession("s-1", sampleGame(), game.Options{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	store.Save(session)
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}

	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

package memory

import (
	"testing"

	"cogniquiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	shell := app.NewShell("s1", app.ShellDeps{}, nil)
	defer shell.Close()

	store.Save(shell)
	if got, ok := store.Get("s1"); !ok || got != shell {
		t.Fatalf("expected session present")
	}
	if all := store.All(); len(all) != 1 {
		t.Fatalf("expected one session, got %d", len(all))
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
	if all := store.All(); len(all) != 0 {
		t.Fatalf("expected no sessions, got %d", len(all))
	}
}

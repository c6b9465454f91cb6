package session_test

import (
	"context"
	"strings"
	"testing"

	"github.com/coursemind/coursemind/internal/session"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(2)

	id, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty session id")
	}

	if err := store.AddExchange(ctx, id, "What is MCP?", "A protocol."); err != nil {
		t.Fatalf("AddExchange: %v", err)
	}

	history, err := store.History(ctx, id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	want := "User: What is MCP?\nAssistant: A protocol."
	if history != want {
		t.Errorf("History = %q, want %q", history, want)
	}
}

func TestMemoryStoreCapsHistory(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(2)
	id, _ := store.Create(ctx)

	for _, q := range []string{"q1", "q2", "q3"} {
		if err := store.AddExchange(ctx, id, q, "a-"+q); err != nil {
			t.Fatalf("AddExchange: %v", err)
		}
	}

	history, err := store.History(ctx, id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if strings.Contains(history, "q1") {
		t.Errorf("oldest exchange should have been evicted:\n%s", history)
	}
	if !strings.Contains(history, "q2") || !strings.Contains(history, "q3") {
		t.Errorf("recent exchanges missing:\n%s", history)
	}
	// Oldest remaining exchange comes first.
	if strings.Index(history, "q2") > strings.Index(history, "q3") {
		t.Errorf("history not oldest-first:\n%s", history)
	}
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	store := session.NewMemoryStore(2)
	history, err := store.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if history != "" {
		t.Errorf("unknown session should yield empty history, got %q", history)
	}
}

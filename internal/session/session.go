// Package session persists per-conversation history so follow-up
// questions can reference earlier exchanges. The orchestrator itself
// is stateless across queries; this is the only long-term memory.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store records and replays conversation history keyed by session id.
type Store interface {
	Create(ctx context.Context) (string, error)
	// History returns the remembered exchanges formatted as
	// "User: ...\nAssistant: ..." lines, oldest first, or "" for an
	// unknown session.
	History(ctx context.Context, sessionID string) (string, error)
	AddExchange(ctx context.Context, sessionID, question, answer string) error
}

type exchange struct {
	question string
	answer   string
}

func formatHistory(exchanges []exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(exchanges)*2)
	for _, e := range exchanges {
		parts = append(parts, fmt.Sprintf("User: %s", e.question))
		parts = append(parts, fmt.Sprintf("Assistant: %s", e.answer))
	}
	return strings.Join(parts, "\n")
}

// MemoryStore keeps sessions in process memory. Used in development
// and tests; production deployments configure the Postgres store.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string][]exchange
	maxHistory int
}

func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string][]exchange),
		maxHistory: maxHistory,
	}
}

func (s *MemoryStore) Create(_ context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = nil
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return formatHistory(s.sessions[sessionID]), nil
}

func (s *MemoryStore) AddExchange(_ context.Context, sessionID, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exchanges := append(s.sessions[sessionID], exchange{question: question, answer: answer})
	if len(exchanges) > s.maxHistory {
		exchanges = exchanges[len(exchanges)-s.maxHistory:]
	}
	s.sessions[sessionID] = exchanges
	return nil
}

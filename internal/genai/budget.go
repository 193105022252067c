package genai

import (
	"fmt"
	"sync"
)

// BudgetChecker checks and records provider token usage per assembly session.
type BudgetChecker interface {
	// Check returns true if the session has budget remaining.
	Check(sessionID string) (bool, error)
	// Record records token usage for a session.
	Record(sessionID string, tokens int) error
	// Usage returns current usage for a session.
	Usage(sessionID string) (used int64, budget int64, err error)
}

// InMemoryBudget is a simple in-memory budget tracker. A session with no
// budget set is unlimited.
type InMemoryBudget struct {
	mu      sync.RWMutex
	budgets map[string]int64
	usage   map[string]int64
}

// NewInMemoryBudget creates a new in-memory budget tracker.
func NewInMemoryBudget() *InMemoryBudget {
	return &InMemoryBudget{
		budgets: make(map[string]int64),
		usage:   make(map[string]int64),
	}
}

// SetBudget sets the token budget for a session.
func (b *InMemoryBudget) SetBudget(sessionID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[sessionID] = tokens
}

func (b *InMemoryBudget) Check(sessionID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget, hasBudget := b.budgets[sessionID]
	if !hasBudget {
		return true, nil
	}
	return b.usage[sessionID] < budget, nil
}

func (b *InMemoryBudget) Record(sessionID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[sessionID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(sessionID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[sessionID], b.budgets[sessionID], nil
}

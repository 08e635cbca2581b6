package quiz

import (
	"context"
	"sync"

	"github.com/luminalearn/lumina/internal/model"
)

// History receives completed attempts. LoadAll returns them most recent first.
type History interface {
	Append(ctx context.Context, a model.CompletedAttempt) error
	LoadAll(ctx context.Context) ([]model.CompletedAttempt, error)
}

// MemoryHistory keeps attempts for the lifetime of the process.
type MemoryHistory struct {
	mu       sync.RWMutex
	attempts []model.CompletedAttempt
}

// NewMemoryHistory creates an empty in-process history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Append prepends the attempt so LoadAll sees it first.
func (h *MemoryHistory) Append(_ context.Context, a model.CompletedAttempt) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts = append([]model.CompletedAttempt{a}, h.attempts...)
	return nil
}

// LoadAll returns a copy of all attempts, most recent first.
func (h *MemoryHistory) LoadAll(_ context.Context) ([]model.CompletedAttempt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]model.CompletedAttempt(nil), h.attempts...), nil
}

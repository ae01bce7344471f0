package cache

import (
	"context"
	"sync"

	"github.com/ladderlink/ladderlink/internal/league"
)

// Mock is an in-memory StandingsCache that records invalidations.
// It is safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	entries map[string][]league.Standing

	GetCalls        []string
	SetCalls        []string
	InvalidateCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{entries: make(map[string][]league.Standing)}
}

func (m *Mock) Get(ctx context.Context, leagueID string) ([]league.Standing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = append(m.GetCalls, leagueID)
	s, ok := m.entries[leagueID]
	return s, ok
}

func (m *Mock) Set(ctx context.Context, leagueID string, standings []league.Standing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, leagueID)
	m.entries[leagueID] = standings
}

func (m *Mock) Invalidate(ctx context.Context, leagueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvalidateCalls = append(m.InvalidateCalls, leagueID)
	delete(m.entries, leagueID)
}

func (m *Mock) Close() error { return nil }

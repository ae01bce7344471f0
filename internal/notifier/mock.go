package notifier

import (
	"context"
	"sync"

	"github.com/ladderlink/ladderlink/internal/league"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendResultNotificationFunc func(result ResultNotification, dryRun bool) error
	SendStandingsFunc          func(l *league.League, standings []league.Standing, dryRun bool) error

	// Call records
	SendResultNotificationCalls []ResultNotification
	SendStandingsCalls          []struct {
		League    *league.League
		Standings []league.Standing
	}
	FormatLeagueNotFoundCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = nil
	m.SendStandingsCalls = nil
	m.FormatLeagueNotFoundCalls = nil
}

func (m *Mock) SendResultNotification(ctx context.Context, result ResultNotification, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, result)
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(result, dryRun)
	}
	return nil
}

func (m *Mock) SendStandings(ctx context.Context, l *league.League, standings []league.Standing, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendStandingsCalls = append(m.SendStandingsCalls, struct {
		League    *league.League
		Standings []league.Standing
	}{l, standings})
	if m.SendStandingsFunc != nil {
		return m.SendStandingsFunc(l, standings, dryRun)
	}
	return nil
}

func (m *Mock) FormatStandingsResponse(l *league.League, standings []league.Standing) (any, error) {
	return "formatted_standings", nil
}

func (m *Mock) FormatLeagueNotFoundResponse(code string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatLeagueNotFoundCalls = append(m.FormatLeagueNotFoundCalls, code)
	return "formatted_league_not_found", nil
}

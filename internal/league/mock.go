package league

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateLeagueFunc            func(name, description, code string) (*League, error)
	GetLeagueFunc               func(leagueID string) (*League, error)
	GetLeagueByCodeFunc         func(code string) (*League, error)
	RegisterPlayerFunc          func(name, email, leagueCode string, initialRating int) (*Membership, error)
	GetMembershipFunc           func(playerID, leagueID string) (*Membership, error)
	ApplyRatingUpdateFunc       func(update RatingUpdate) error
	GetRatingHistoryFunc        func(membershipID string) ([]RatingHistoryEntry, error)
	CreateMatchFunc             func(match *MatchRecord) error
	GetMatchFunc                func(matchID string) (*MatchRecord, error)
	UpdateProcessingStatusFunc  func(matchID string, status ProcessingStatus) error
	GetMatchesForProcessingFunc func() ([]*MatchRecord, error)
	GetMatchesFunc              func(leagueID string) ([]*MatchRecord, error)
	GetRecentMatchesFunc        func(leagueID, playerID string, limit int) ([]MatchRecord, error)
	GetStandingsFunc            func(leagueID string) ([]Standing, error)

	// Call records
	GetMembershipCalls []struct {
		PlayerID string
		LeagueID string
	}
	ApplyRatingUpdateCalls      []RatingUpdate
	CreateMatchCalls            []*MatchRecord
	UpdateProcessingStatusCalls []struct {
		MatchID string
		Status  ProcessingStatus
	}
	GetStandingsCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMembershipCalls = nil
	m.ApplyRatingUpdateCalls = nil
	m.CreateMatchCalls = nil
	m.UpdateProcessingStatusCalls = nil
	m.GetStandingsCalls = nil
}

func (m *MockStore) CreateLeague(ctx context.Context, name, description, code string) (*League, error) {
	if m.CreateLeagueFunc != nil {
		return m.CreateLeagueFunc(name, description, code)
	}
	return &League{ID: "league-" + code, Name: name, Description: description, Code: code}, nil
}

func (m *MockStore) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	if m.GetLeagueFunc != nil {
		return m.GetLeagueFunc(leagueID)
	}
	return &League{ID: leagueID}, nil
}

func (m *MockStore) GetLeagueByCode(ctx context.Context, code string) (*League, error) {
	if m.GetLeagueByCodeFunc != nil {
		return m.GetLeagueByCodeFunc(code)
	}
	return nil, ErrLeagueNotFound
}

func (m *MockStore) RegisterPlayer(ctx context.Context, name, email, leagueCode string, initialRating int) (*Membership, error) {
	if m.RegisterPlayerFunc != nil {
		return m.RegisterPlayerFunc(name, email, leagueCode, initialRating)
	}
	return &Membership{PlayerName: name, Rating: initialRating}, nil
}

func (m *MockStore) GetMembership(ctx context.Context, playerID, leagueID string) (*Membership, error) {
	m.mu.Lock()
	m.GetMembershipCalls = append(m.GetMembershipCalls, struct {
		PlayerID string
		LeagueID string
	}{playerID, leagueID})
	m.mu.Unlock()
	if m.GetMembershipFunc != nil {
		return m.GetMembershipFunc(playerID, leagueID)
	}
	return nil, ErrMembershipNotFound
}

func (m *MockStore) ApplyRatingUpdate(ctx context.Context, update RatingUpdate) error {
	m.mu.Lock()
	m.ApplyRatingUpdateCalls = append(m.ApplyRatingUpdateCalls, update)
	m.mu.Unlock()
	if m.ApplyRatingUpdateFunc != nil {
		return m.ApplyRatingUpdateFunc(update)
	}
	if update.Match != nil {
		if update.Match.ID == "" {
			update.Match.ID = "match-1"
		}
		update.Match.LeagueID = update.LeagueID
		update.Match.ProcessingStatus = StatusRated
	}
	return nil
}

func (m *MockStore) GetRatingHistory(ctx context.Context, membershipID string) ([]RatingHistoryEntry, error) {
	if m.GetRatingHistoryFunc != nil {
		return m.GetRatingHistoryFunc(membershipID)
	}
	return nil, nil
}

func (m *MockStore) CreateMatch(ctx context.Context, match *MatchRecord) error {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, match)
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(match)
	}
	if match.ID == "" {
		match.ID = "match-1"
	}
	match.ProcessingStatus = StatusNew
	return nil
}

func (m *MockStore) GetMatch(ctx context.Context, matchID string) (*MatchRecord, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrMatchNotFound
}

func (m *MockStore) UpdateProcessingStatus(ctx context.Context, matchID string, status ProcessingStatus) error {
	m.mu.Lock()
	m.UpdateProcessingStatusCalls = append(m.UpdateProcessingStatusCalls, struct {
		MatchID string
		Status  ProcessingStatus
	}{matchID, status})
	m.mu.Unlock()
	if m.UpdateProcessingStatusFunc != nil {
		return m.UpdateProcessingStatusFunc(matchID, status)
	}
	return nil
}

func (m *MockStore) GetMatchesForProcessing(ctx context.Context) ([]*MatchRecord, error) {
	if m.GetMatchesForProcessingFunc != nil {
		return m.GetMatchesForProcessingFunc()
	}
	return nil, nil
}

func (m *MockStore) GetMatches(ctx context.Context, leagueID string) ([]*MatchRecord, error) {
	if m.GetMatchesFunc != nil {
		return m.GetMatchesFunc(leagueID)
	}
	return nil, nil
}

func (m *MockStore) GetRecentMatches(ctx context.Context, leagueID, playerID string, limit int) ([]MatchRecord, error) {
	if m.GetRecentMatchesFunc != nil {
		return m.GetRecentMatchesFunc(leagueID, playerID, limit)
	}
	return nil, nil
}

func (m *MockStore) GetStandings(ctx context.Context, leagueID string) ([]Standing, error) {
	m.mu.Lock()
	m.GetStandingsCalls = append(m.GetStandingsCalls, leagueID)
	m.mu.Unlock()
	if m.GetStandingsFunc != nil {
		return m.GetStandingsFunc(leagueID)
	}
	return nil, nil
}

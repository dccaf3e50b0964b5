package game

import "slices"

const (
	// DefaultStartBalance is credited to a fresh session.
	DefaultStartBalance = 1000
	// TestCredit is the amount AddTestBalance grants.
	TestCredit = 1000
	// HistorySize bounds the trailing history of realized multipliers.
	HistorySize = 40
)

// Session carries the player's aggregates across rounds: balance, lifetime
// totals, the rollover feeding the next round's pool, the multiplier
// history, and the round counter. It is the unit of persistence.
type Session struct {
	Balance   float64
	TotalBet  float64
	TotalWin  float64
	TotalLoss float64
	Rollover  float64
	History   []float64
	Round     int
}

// NewSession returns a session with the starting balance and no history.
func NewSession(startBalance float64) *Session {
	return &Session{Balance: startBalance}
}

// appendHistory records a realized multiplier, keeping the newest entries.
func (s *Session) appendHistory(mult float64) {
	s.History = append(s.History, mult)
	if len(s.History) > HistorySize {
		s.History = s.History[len(s.History)-HistorySize:]
	}
}

// State returns the persistable form of the session.
func (s *Session) State() SessionState {
	return SessionState{
		Balance:   s.Balance,
		TotalBet:  s.TotalBet,
		TotalWin:  s.TotalWin,
		TotalLoss: s.TotalLoss,
		Rollover:  s.Rollover,
		History:   slices.Clone(s.History),
		Round:     s.Round,
	}
}

// restore overwrites the session from a persisted state.
func (s *Session) restore(st SessionState) {
	s.Balance = st.Balance
	s.TotalBet = st.TotalBet
	s.TotalWin = st.TotalWin
	s.TotalLoss = st.TotalLoss
	s.Rollover = st.Rollover
	s.History = slices.Clone(st.History)
	if len(s.History) > HistorySize {
		s.History = s.History[len(s.History)-HistorySize:]
	}
	s.Round = st.Round
}

// SessionState is the serialized shape of a session.
type SessionState struct {
	Balance   float64   `json:"balance"`
	TotalBet  float64   `json:"totalBet"`
	TotalWin  float64   `json:"totalWin"`
	TotalLoss float64   `json:"totalLoss"`
	Rollover  float64   `json:"rollover"`
	History   []float64 `json:"history"`
	Round     int       `json:"round"`
}

// Store persists session state across process restarts. Implementations
// must degrade gracefully: a missing snapshot is not an error, and Load
// reports ok=false rather than failing the engine.
type Store interface {
	Save(st SessionState) error
	Load() (st SessionState, ok bool, err error)
	Clear() error
}

package game

import (
	"time"

	"github.com/google/uuid"
)

// Phase identifies where a round is within its lifecycle.
type Phase int

const (
	Betting Phase = iota
	Resolving
	Running
	Settling
)

// String returns the phase name used in logs and wire messages.
func (p Phase) String() string {
	switch p {
	case Betting:
		return "betting"
	case Resolving:
		return "resolving"
	case Running:
		return "running"
	case Settling:
		return "settling"
	default:
		return "unknown"
	}
}

// Round is the aggregate for one game cycle. Exactly one round is live at
// a time; it is created when betting opens and archived at settlement.
type Round struct {
	Number  int
	ID      string
	Bettors []*Bettor

	resolved  bool
	CrashLane int
	Ledger    Ledger

	// Player bet, latched once per round.
	HasBet        bool
	Bet           float64
	CashedOut     bool
	CashoutLane   int
	CashoutMult   float64
	CashoutAmount float64

	CurrentLane int
	Crossing    bool
	crossStart  time.Time
	Splat       bool
	Over        bool
	FinalMult   float64
}

func newRound(number int) *Round {
	return &Round{Number: number, ID: uuid.NewString()}
}

// resolve stores the round's outcome. The crash lane is immutable once
// set; resolving a round twice means the state machine was driven
// incorrectly and panics.
func (r *Round) resolve(o Outcome) {
	if r.resolved {
		panic("game: round resolved twice")
	}
	r.resolved = true
	r.CrashLane = o.CrashLane
	r.Ledger = o.Ledger
}

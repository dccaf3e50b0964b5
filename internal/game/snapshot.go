package game

import (
	"slices"
	"time"
)

// BettorView is one row of the snapshot's bettor table.
type BettorView struct {
	ID            string
	Name          string
	Stake         float64
	Status        BettorStatus
	CashoutMult   float64
	CashoutAmount float64
	IsPlayer      bool
}

// Snapshot is an immutable copy of the engine state for presentation.
// Adapters poll it once per render tick; nothing in it aliases live
// engine state.
type Snapshot struct {
	Phase       Phase
	PhaseEndsIn time.Duration

	Round         int
	RoundID       string
	CurrentLane   int
	Crossing      bool
	CrossProgress float64
	Splat         bool
	OutcomeKnown  bool
	CrashLane     int
	RoundOver     bool
	FinalMult     float64

	HasBet        bool
	Bet           float64
	CashedOut     bool
	CashoutMult   float64
	CashoutAmount float64

	Bettors []BettorView

	Balance   float64
	TotalBet  float64
	TotalWin  float64
	TotalLoss float64
	Rollover  float64
	Ledger    Ledger
	History   []float64
}

// Snapshot captures the current engine state. The player's row, when a bet
// is live this round, comes first in the bettor table.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Phase:     e.phase,
		Balance:   e.session.Balance,
		TotalBet:  e.session.TotalBet,
		TotalWin:  e.session.TotalWin,
		TotalLoss: e.session.TotalLoss,
		Rollover:  e.session.Rollover,
		History:   slices.Clone(e.session.History),
	}
	if e.phase != Running && !e.phaseEnd.IsZero() {
		snap.PhaseEndsIn = max(0, e.clock.Until(e.phaseEnd))
	}

	r := e.round
	if r == nil {
		return snap
	}
	snap.Round = r.Number
	snap.RoundID = r.ID
	snap.CurrentLane = r.CurrentLane
	snap.Crossing = r.Crossing
	snap.Splat = r.Splat
	snap.RoundOver = r.Over
	snap.FinalMult = r.FinalMult
	snap.OutcomeKnown = r.resolved
	if r.resolved {
		snap.CrashLane = r.CrashLane
		snap.Ledger = r.Ledger
	}
	if r.Crossing && e.cfg.CrossTime > 0 {
		p := float64(e.clock.Since(r.crossStart)) / float64(e.cfg.CrossTime)
		snap.CrossProgress = min(max(p, 0), 1)
	} else if r.CurrentLane > 0 {
		snap.CrossProgress = 1
	}

	snap.HasBet = r.HasBet
	snap.Bet = r.Bet
	snap.CashedOut = r.CashedOut
	snap.CashoutMult = r.CashoutMult
	snap.CashoutAmount = r.CashoutAmount

	snap.Bettors = make([]BettorView, 0, len(r.Bettors)+1)
	if r.HasBet {
		status := Waiting
		switch {
		case r.CashedOut:
			status = CashedOut
		case r.Splat:
			status = Crashed
		}
		snap.Bettors = append(snap.Bettors, BettorView{
			ID:            "you",
			Name:          "You",
			Stake:         r.Bet,
			Status:        status,
			CashoutMult:   r.CashoutMult,
			CashoutAmount: r.CashoutAmount,
			IsPlayer:      true,
		})
	}
	for _, b := range r.Bettors {
		snap.Bettors = append(snap.Bettors, BettorView{
			ID:            b.ID,
			Name:          b.Name,
			Stake:         b.Stake,
			Status:        b.Status,
			CashoutMult:   b.CashoutMult,
			CashoutAmount: b.CashoutAmount,
		})
	}
	return snap
}

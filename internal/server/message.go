package server

import (
	"encoding/json"
	"time"

	"github.com/lox/chickenrun/internal/game"
)

// MessageType identifies a message on the wire.
type MessageType string

const (
	// Client → Server
	MessageTypePlaceBet      MessageType = "place_bet"
	MessageTypeCashOut       MessageType = "cash_out"
	MessageTypeResetProgress MessageType = "reset_progress"
	MessageTypeAddBalance    MessageType = "add_balance"

	// Server → Client
	MessageTypeWelcome  MessageType = "welcome"
	MessageTypeAccepted MessageType = "accepted"
	MessageTypeRejected MessageType = "rejected"
	MessageTypeSnapshot MessageType = "snapshot"
)

// Message is the base WebSocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type PlaceBetData struct {
	Amount float64 `json:"amount"`
}

// Server → Client payloads

type WelcomeData struct {
	Multipliers []float64 `json:"multipliers"`
	LaneCount   int       `json:"laneCount"`
	MinBet      float64   `json:"minBet"`
}

type AcceptedData struct {
	Intent MessageType `json:"intent"`
}

type RejectedData struct {
	Intent MessageType `json:"intent"`
	Code   string      `json:"code"`
	Reason string      `json:"reason"`
}

// BettorState is one row of the wire bettor table.
type BettorState struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Stake         float64 `json:"stake"`
	Status        string  `json:"status"`
	CashoutMult   float64 `json:"cashoutMult,omitempty"`
	CashoutAmount float64 `json:"cashoutAmount,omitempty"`
	IsPlayer      bool    `json:"isPlayer,omitempty"`
}

// LedgerState mirrors the round ledger on the wire.
type LedgerState struct {
	Pot            float64 `json:"pot"`
	Pool           float64 `json:"pool"`
	PlatformProfit float64 `json:"platformProfit"`
	ProviderFee    float64 `json:"providerFee"`
	NextRollover   float64 `json:"nextRollover"`
	Bonus          float64 `json:"bonus"`
}

// SnapshotData is the full engine state pushed to clients on every
// broadcast tick.
type SnapshotData struct {
	Phase         string  `json:"phase"`
	PhaseEndsInMs int64   `json:"phaseEndsInMs"`
	Round         int     `json:"round"`
	RoundID       string  `json:"roundId"`
	CurrentLane   int     `json:"currentLane"`
	Crossing      bool    `json:"crossing"`
	CrossProgress float64 `json:"crossProgress"`
	Splat         bool    `json:"splat"`
	OutcomeKnown  bool    `json:"outcomeKnown"`
	CrashLane     int     `json:"crashLane"`
	RoundOver     bool    `json:"roundOver"`
	FinalMult     float64 `json:"finalMult"`

	HasBet        bool    `json:"hasBet"`
	Bet           float64 `json:"bet"`
	CashedOut     bool    `json:"cashedOut"`
	CashoutMult   float64 `json:"cashoutMult"`
	CashoutAmount float64 `json:"cashoutAmount"`

	Bettors []BettorState `json:"bettors"`

	Balance   float64     `json:"balance"`
	TotalBet  float64     `json:"totalBet"`
	TotalWin  float64     `json:"totalWin"`
	TotalLoss float64     `json:"totalLoss"`
	Rollover  float64     `json:"rollover"`
	Ledger    LedgerState `json:"ledger"`
	History   []float64   `json:"history"`
}

// SnapshotFromGame converts an engine snapshot to its wire form.
func SnapshotFromGame(s game.Snapshot) SnapshotData {
	bettors := make([]BettorState, 0, len(s.Bettors))
	for _, b := range s.Bettors {
		bettors = append(bettors, BettorState{
			ID:            b.ID,
			Name:          b.Name,
			Stake:         b.Stake,
			Status:        b.Status.String(),
			CashoutMult:   b.CashoutMult,
			CashoutAmount: b.CashoutAmount,
			IsPlayer:      b.IsPlayer,
		})
	}
	return SnapshotData{
		Phase:         s.Phase.String(),
		PhaseEndsInMs: s.PhaseEndsIn.Milliseconds(),
		Round:         s.Round,
		RoundID:       s.RoundID,
		CurrentLane:   s.CurrentLane,
		Crossing:      s.Crossing,
		CrossProgress: s.CrossProgress,
		Splat:         s.Splat,
		OutcomeKnown:  s.OutcomeKnown,
		CrashLane:     s.CrashLane,
		RoundOver:     s.RoundOver,
		FinalMult:     s.FinalMult,
		HasBet:        s.HasBet,
		Bet:           s.Bet,
		CashedOut:     s.CashedOut,
		CashoutMult:   s.CashoutMult,
		CashoutAmount: s.CashoutAmount,
		Bettors:       bettors,
		Balance:       s.Balance,
		TotalBet:      s.TotalBet,
		TotalWin:      s.TotalWin,
		TotalLoss:     s.TotalLoss,
		Rollover:      s.Rollover,
		Ledger: LedgerState{
			Pot:            s.Ledger.Pot,
			Pool:           s.Ledger.Pool,
			PlatformProfit: s.Ledger.PlatformProfit,
			ProviderFee:    s.Ledger.ProviderFee,
			NextRollover:   s.Ledger.NextRollover,
			Bonus:          s.Ledger.Bonus,
		},
		History: s.History,
	}
}

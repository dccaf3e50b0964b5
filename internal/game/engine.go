package game

import (
	"context"
	"errors"
	"math"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/chickenrun/internal/randutil"
)

// Intent rejection reasons. Adapters map these onto their own wire codes;
// none of them abort the round.
var (
	ErrWrongPhase          = errors.New("wrong phase")
	ErrAlreadyBet          = errors.New("bet already placed")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoActiveBet         = errors.New("no active bet")
	ErrAlreadyCashedOut    = errors.New("already cashed out")
)

// Config holds the engine pacing and economy knobs.
type Config struct {
	BettingTime  time.Duration
	ResolveTime  time.Duration
	CrossTime    time.Duration
	RestTime     time.Duration
	SettleTime   time.Duration
	MinBet       float64
	StartBalance float64
}

// DefaultConfig returns the standard pacing and economy settings.
func DefaultConfig() Config {
	return Config{
		BettingTime:  15 * time.Second,
		ResolveTime:  5 * time.Second,
		CrossTime:    2 * time.Second,
		RestTime:     2 * time.Second,
		SettleTime:   4 * time.Second,
		MinBet:       10,
		StartBalance: DefaultStartBalance,
	}
}

// Engine drives rounds through betting, resolving, running and settling.
// A single Run loop owns every phase transition; player intents may arrive
// from any goroutine and are serialized through the engine mutex, so they
// observe the machine only at phase-consistent points.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  quartz.Clock
	rng    *rand.Rand
	store  Store
	logger zerolog.Logger

	session *Session
	round   *Round
	phase   Phase
	// phaseEnd is the deadline of the current betting/resolving/settling
	// timer; Running paces itself per lane instead.
	phaseEnd time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the engine clock. Tests pass a quartz mock.
func WithClock(c quartz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand substitutes the engine's random source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithStore attaches a persistence store. The engine loads it once at
// construction and saves after every state-affecting event.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger attaches a structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l.With().Str("component", "engine").Logger()
	}
}

// NewEngine builds an engine with a fresh session, restoring persisted
// state when a store is attached. A corrupt snapshot falls back to the
// starting balance.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		clock:  quartz.NewReal(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = randutil.New(time.Now().UnixNano())
	}
	e.session = NewSession(cfg.StartBalance)
	if e.store != nil {
		st, ok, err := e.store.Load()
		switch {
		case err != nil:
			e.logger.Warn().Err(err).Msg("discarding unreadable session snapshot")
		case ok:
			e.session.restore(st)
			e.logger.Info().
				Float64("balance", st.Balance).
				Int("round", st.Round).
				Msg("restored session")
		}
	}
	return e
}

// Run cycles rounds until ctx is cancelled. It is the only goroutine that
// transitions phases.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.beginBetting()
		if err := e.wait(ctx, e.cfg.BettingTime, "betting"); err != nil {
			return err
		}
		e.beginResolving()
		if err := e.wait(ctx, e.cfg.ResolveTime, "resolving"); err != nil {
			return err
		}
		e.beginRunning()
		if err := e.crossLanes(ctx); err != nil {
			return err
		}
		e.beginSettling()
		if err := e.wait(ctx, e.cfg.SettleTime, "settling"); err != nil {
			return err
		}
	}
}

// wait blocks for d or until ctx is cancelled. Timers are tagged so mock
// clocks can trap phase boundaries.
func (e *Engine) wait(ctx context.Context, d time.Duration, tag string) error {
	timer := e.clock.NewTimer(d, "engine", tag)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) beginBetting() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Round++
	e.round = newRound(e.session.Round)
	e.phase = Betting
	e.phaseEnd = e.clock.Now().Add(e.cfg.BettingTime)
	e.logger.Info().
		Int("round", e.round.Number).
		Str("round_id", e.round.ID).
		Msg("betting open")
}

// beginResolving generates the round's simulated bettors and decides the
// outcome. The crash lane is fixed here, before any lane is crossed, and
// nothing observed during the run may alter it.
func (e *Engine) beginResolving() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Resolving
	e.phaseEnd = e.clock.Now().Add(e.cfg.ResolveTime)
	e.round.Bettors = GenerateBettors(e.rng)
	stake := 0.0
	if e.round.HasBet {
		stake = e.round.Bet
	}
	outcome := Decide(e.rng, e.round.Bettors, stake, e.session.Rollover)
	e.round.resolve(outcome)
	e.session.Rollover = outcome.Ledger.NextRollover
	e.logger.Info().
		Int("round", e.round.Number).
		Int("crash_lane", outcome.CrashLane).
		Int("bettors", len(e.round.Bettors)).
		Float64("pot", outcome.Ledger.Pot).
		Float64("pool", outcome.Ledger.Pool).
		Msg("round resolved")
	e.persistLocked()
}

func (e *Engine) beginRunning() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Running
}

// crossLanes advances the chicken lane by lane until the crash lane ends
// the round or all eight lanes are crossed.
func (e *Engine) crossLanes(ctx context.Context) error {
	for lane := 1; lane <= LaneCount; lane++ {
		e.enterLane(lane)
		if err := e.wait(ctx, e.cfg.CrossTime, "crossing"); err != nil {
			return err
		}
		if e.finishCrossing(lane) {
			return nil
		}
		if err := e.wait(ctx, e.cfg.RestTime, "rest"); err != nil {
			return err
		}
	}
	return nil
}

// enterLane starts the crossing of a lane. Simulated bettors committed to
// a surviving lane cash out as the chicken enters it.
func (e *Engine) enterLane(lane int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.round
	if lane != r.CrashLane {
		mult := Multiplier(lane)
		for _, b := range r.Bettors {
			if b.Status == Waiting && b.TargetLane == lane {
				b.cashOut(mult)
			}
		}
	}
	r.CurrentLane = lane
	r.Crossing = true
	r.crossStart = e.clock.Now()
}

// finishCrossing ends a lane crossing and reports whether the round ended
// there. The player may still cash out during the crash lane's crossing;
// the splat lands only once the crossing completes.
func (e *Engine) finishCrossing(lane int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.round
	r.Crossing = false
	if lane != r.CrashLane {
		return false
	}
	r.Splat = true
	return true
}

// beginSettling applies the terminal effects not already applied, archives
// the realized multiplier, and persists.
func (e *Engine) beginSettling() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = Settling
	e.phaseEnd = e.clock.Now().Add(e.cfg.SettleTime)
	r := e.round
	r.Over = true

	var mult float64
	if r.Splat {
		mult = Multiplier(r.CrashLane)
		bonus := 0.0
		for _, b := range r.Bettors {
			if b.Status == Waiting {
				b.Status = Crashed
				bonus += b.Stake
			}
		}
		if r.HasBet && !r.CashedOut {
			e.session.TotalLoss += r.Bet
			bonus += r.Bet
		}
		r.Ledger.Bonus = bonus
		e.logger.Info().
			Int("round", r.Number).
			Int("lane", r.CrashLane).
			Float64("mult", mult).
			Float64("bonus", bonus).
			Msg("crashed")
	} else {
		mult = Multiplier(LaneCount)
		for _, b := range r.Bettors {
			if b.Status == Waiting {
				b.cashOut(mult)
			}
		}
		if r.HasBet && !r.CashedOut {
			r.CashedOut = true
			r.CashoutLane = LaneCount
			r.CashoutMult = mult
			r.CashoutAmount = r.Bet * (1 + mult)
			e.session.Balance += r.CashoutAmount
			e.session.TotalWin += r.CashoutAmount
		}
		e.logger.Info().
			Int("round", r.Number).
			Float64("mult", mult).
			Msg("safe finish")
	}
	r.FinalMult = mult
	e.session.appendHistory(mult)
	e.persistLocked()
}

// PlaceBet stakes the given amount for the current round. At most one bet
// is accepted per round, only during the betting phase.
func (e *Engine) PlaceBet(amount float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != Betting || e.round == nil {
		return ErrWrongPhase
	}
	if e.round.HasBet {
		return ErrAlreadyBet
	}
	if math.IsNaN(amount) || amount <= 0 || amount < e.cfg.MinBet {
		return ErrInvalidAmount
	}
	if amount > e.session.Balance {
		return ErrInsufficientBalance
	}
	e.round.HasBet = true
	e.round.Bet = amount
	e.session.Balance -= amount
	e.session.TotalBet += amount
	e.persistLocked()
	e.logger.Info().
		Int("round", e.round.Number).
		Float64("amount", amount).
		Float64("balance", e.session.Balance).
		Msg("bet placed")
	return nil
}

// CashOut locks in the current lane's multiplier for the player's bet and
// credits the payout immediately. Accepted at any point while the lane is
// being crossed or rested on, including mid-crossing of the crash lane.
func (e *Engine) CashOut() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.round
	if e.phase != Running || r == nil || r.CurrentLane < 1 || r.Splat {
		return ErrWrongPhase
	}
	if !r.HasBet {
		return ErrNoActiveBet
	}
	if r.CashedOut {
		return ErrAlreadyCashedOut
	}
	mult := Multiplier(r.CurrentLane)
	r.CashedOut = true
	r.CashoutLane = r.CurrentLane
	r.CashoutMult = mult
	r.CashoutAmount = r.Bet * (1 + mult)
	e.session.Balance += r.CashoutAmount
	e.session.TotalWin += r.CashoutAmount
	e.persistLocked()
	e.logger.Info().
		Int("round", r.Number).
		Int("lane", r.CashoutLane).
		Float64("mult", mult).
		Float64("amount", r.CashoutAmount).
		Msg("cashed out")
	return nil
}

// ResetProgress clears all persisted aggregates and returns the player to
// the starting balance. Takes effect immediately; the live round keeps
// playing out.
func (e *Engine) ResetProgress() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store != nil {
		if err := e.store.Clear(); err != nil {
			e.logger.Warn().Err(err).Msg("clearing session snapshot")
		}
	}
	e.session = NewSession(e.cfg.StartBalance)
	e.logger.Info().Msg("progress reset")
}

// AddTestBalance credits a fixed test amount to the balance.
func (e *Engine) AddTestBalance() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Balance += TestCredit
	e.persistLocked()
}

func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.session.State()); err != nil {
		e.logger.Warn().Err(err).Msg("saving session snapshot")
	}
}

package game_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/chickenrun/internal/game"
	"github.com/lox/chickenrun/internal/randutil"
	"github.com/lox/chickenrun/internal/store"
)

const testTimeout = 5 * time.Second

// startEngine runs an engine on a mock clock and stops it when the test
// finishes.
func startEngine(t *testing.T, opts ...game.Option) (*game.Engine, *quartz.Mock) {
	t.Helper()
	mClock := quartz.NewMock(t)
	opts = append([]game.Option{
		game.WithClock(mClock),
		game.WithRand(randutil.New(1)),
	}, opts...)
	eng := game.NewEngine(game.DefaultConfig(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = eng.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(testTimeout):
			t.Error("engine did not stop")
		}
	})
	return eng, mClock
}

// advanceNext waits for the engine to schedule its next timer and fires
// it.
func advanceNext(t *testing.T, mClock *quartz.Mock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if d, ok := mClock.Peek(); ok {
			mClock.Advance(d).MustWait(ctx)
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no timer scheduled")
}

func waitFor(t *testing.T, cond func(game.Snapshot) bool, eng *game.Engine) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond(eng.Snapshot()) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met, snapshot: %+v", eng.Snapshot())
}

func waitForPhase(t *testing.T, eng *game.Engine, phase game.Phase) {
	t.Helper()
	waitFor(t, func(s game.Snapshot) bool { return s.Phase == phase }, eng)
}

// driveToRoundOver fires crossing and rest timers lane by lane until the
// round ends. The engine must already be crossing lane 1.
func driveToRoundOver(t *testing.T, eng *game.Engine, mClock *quartz.Mock) {
	t.Helper()
	start := eng.Snapshot()
	require.True(t, start.OutcomeKnown)
	crash := start.CrashLane

	for lane := 1; lane <= game.LaneCount; lane++ {
		advanceNext(t, mClock) // crossing timer
		if lane == crash {
			waitFor(t, func(s game.Snapshot) bool { return s.RoundOver }, eng)
			return
		}
		waitFor(t, func(s game.Snapshot) bool { return s.CurrentLane == lane && !s.Crossing }, eng)

		advanceNext(t, mClock) // rest timer
		if lane < game.LaneCount {
			waitFor(t, func(s game.Snapshot) bool { return s.CurrentLane == lane+1 && s.Crossing }, eng)
		}
	}
	waitFor(t, func(s game.Snapshot) bool { return s.RoundOver }, eng)
}

func TestEngineRoundLifecycle(t *testing.T) {
	st := store.NewMemoryStore()
	eng, mClock := startEngine(t, game.WithStore(st))

	waitFor(t, func(s game.Snapshot) bool { return s.Phase == game.Betting && s.Round == 1 }, eng)

	require.NoError(t, eng.PlaceBet(50))
	snap := eng.Snapshot()
	require.Equal(t, 950.0, snap.Balance)
	require.Equal(t, 50.0, snap.TotalBet)
	require.ErrorIs(t, eng.PlaceBet(50), game.ErrAlreadyBet)
	require.Equal(t, 950.0, eng.Snapshot().Balance)

	advanceNext(t, mClock)
	waitForPhase(t, eng, game.Resolving)

	snap = eng.Snapshot()
	require.True(t, snap.OutcomeKnown)
	require.GreaterOrEqual(t, len(snap.Bettors), game.MinBots+1)
	require.LessOrEqual(t, len(snap.Bettors), game.MaxBots+1)
	require.True(t, snap.Bettors[0].IsPlayer)
	require.GreaterOrEqual(t, snap.CrashLane, 0)
	require.LessOrEqual(t, snap.CrashLane, game.LaneCount)
	require.InDelta(t, snap.Ledger.Pot*0.6, snap.Ledger.Pool, 1e-9)
	require.InDelta(t, snap.Ledger.NextRollover, snap.Rollover, 1e-9)
	crash := snap.CrashLane
	rollover := snap.Rollover

	advanceNext(t, mClock)
	waitFor(t, func(s game.Snapshot) bool { return s.Phase == game.Running && s.CurrentLane == 1 }, eng)

	driveToRoundOver(t, eng, mClock)
	waitForPhase(t, eng, game.Settling)

	snap = eng.Snapshot()
	require.Len(t, snap.History, 1)
	if crash == 0 {
		require.False(t, snap.Splat)
		require.Equal(t, 4.0, snap.FinalMult)
		require.Equal(t, 4.0, snap.History[0])
		// Everyone still riding was force-cashed at 4.0x, the player
		// included.
		require.True(t, snap.CashedOut)
		require.Equal(t, 4.0, snap.CashoutMult)
		require.Equal(t, 250.0, snap.CashoutAmount)
		require.Equal(t, 1200.0, snap.Balance)
		for _, b := range snap.Bettors {
			require.Equal(t, game.CashedOut, b.Status)
		}
	} else {
		require.True(t, snap.Splat)
		require.Equal(t, game.Multiplier(crash), snap.FinalMult)
		require.Equal(t, game.Multiplier(crash), snap.History[0])
		// The player never cashed out: stake lost, counted in the bonus.
		require.Equal(t, 50.0, snap.TotalLoss)
		require.GreaterOrEqual(t, snap.Ledger.Bonus, 50.0)
		for _, b := range snap.Bettors {
			if b.IsPlayer {
				require.Equal(t, game.Crashed, b.Status)
				continue
			}
			if b.Status == game.CashedOut {
				require.Less(t, b.CashoutMult, game.Multiplier(crash)+1e-9)
			}
		}
	}

	// The snapshot survives the round boundary in the store.
	persisted, ok, err := st.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Balance, persisted.Balance)
	require.Equal(t, snap.Rollover, persisted.Rollover)

	// Settling loops back to betting with the next round number, and the
	// committed rollover funds the next pool.
	advanceNext(t, mClock)
	waitFor(t, func(s game.Snapshot) bool { return s.Phase == game.Betting && s.Round == 2 }, eng)

	advanceNext(t, mClock)
	waitForPhase(t, eng, game.Resolving)
	snap = eng.Snapshot()
	require.InDelta(t, snap.Ledger.Pot*0.6+rollover, snap.Ledger.Pool, 1e-9)
}

func TestPlaceBetValidation(t *testing.T) {
	eng, _ := startEngine(t)
	waitForPhase(t, eng, game.Betting)

	require.ErrorIs(t, eng.PlaceBet(0), game.ErrInvalidAmount)
	require.ErrorIs(t, eng.PlaceBet(-5), game.ErrInvalidAmount)
	require.ErrorIs(t, eng.PlaceBet(9.99), game.ErrInvalidAmount)
	require.ErrorIs(t, eng.PlaceBet(math.NaN()), game.ErrInvalidAmount)
	require.ErrorIs(t, eng.PlaceBet(1000.01), game.ErrInsufficientBalance)
	require.Equal(t, 1000.0, eng.Snapshot().Balance)
	require.Zero(t, eng.Snapshot().TotalBet)

	require.ErrorIs(t, eng.CashOut(), game.ErrWrongPhase)
}

func TestCashOutLocksCurrentLaneMultiplier(t *testing.T) {
	eng, mClock := startEngine(t)
	waitForPhase(t, eng, game.Betting)
	require.NoError(t, eng.PlaceBet(100))

	advanceNext(t, mClock)
	waitForPhase(t, eng, game.Resolving)
	require.ErrorIs(t, eng.CashOut(), game.ErrWrongPhase)

	advanceNext(t, mClock)
	waitFor(t, func(s game.Snapshot) bool {
		return s.Phase == game.Running && s.CurrentLane == 1 && s.Crossing
	}, eng)

	// Betting is closed once the run starts.
	require.ErrorIs(t, eng.PlaceBet(10), game.ErrWrongPhase)

	// Halfway across lane 1 the progress reflects elapsed clock time and
	// a cash-out locks lane 1's multiplier.
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	mClock.Advance(time.Second).MustWait(ctx)
	require.InDelta(t, 0.5, eng.Snapshot().CrossProgress, 1e-9)

	require.NoError(t, eng.CashOut())
	snap := eng.Snapshot()
	require.True(t, snap.CashedOut)
	require.Equal(t, 1.0, snap.CashoutMult)
	require.Equal(t, 200.0, snap.CashoutAmount)
	require.Equal(t, 1100.0, snap.Balance)
	require.Equal(t, 200.0, snap.TotalWin)

	require.ErrorIs(t, eng.CashOut(), game.ErrAlreadyCashedOut)
	require.Equal(t, 1100.0, eng.Snapshot().Balance)
}

func TestCashOutWithoutBet(t *testing.T) {
	eng, mClock := startEngine(t)
	waitForPhase(t, eng, game.Betting)

	advanceNext(t, mClock)
	waitForPhase(t, eng, game.Resolving)
	advanceNext(t, mClock)
	waitFor(t, func(s game.Snapshot) bool { return s.Phase == game.Running && s.CurrentLane == 1 }, eng)

	require.ErrorIs(t, eng.CashOut(), game.ErrNoActiveBet)
}

func TestResetProgressAndTestCredit(t *testing.T) {
	st := store.NewMemoryStore()
	eng, _ := startEngine(t, game.WithStore(st))
	waitForPhase(t, eng, game.Betting)

	eng.AddTestBalance()
	require.Equal(t, 2000.0, eng.Snapshot().Balance)

	require.NoError(t, eng.PlaceBet(500))
	eng.ResetProgress()

	snap := eng.Snapshot()
	require.Equal(t, 1000.0, snap.Balance)
	require.Zero(t, snap.TotalBet)
	require.Zero(t, snap.Rollover)
	require.Empty(t, snap.History)

	_, ok, err := st.Load()
	require.NoError(t, err)
	require.False(t, ok, "reset must clear the persisted snapshot")
}

func TestEngineRestoresPersistedSession(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Save(game.SessionState{
		Balance:  750,
		TotalBet: 300,
		Rollover: 42,
		History:  []float64{1.2, 4.0},
		Round:    9,
	}))

	eng := game.NewEngine(game.DefaultConfig(), game.WithStore(st))
	snap := eng.Snapshot()
	require.Equal(t, 750.0, snap.Balance)
	require.Equal(t, 300.0, snap.TotalBet)
	require.Equal(t, 42.0, snap.Rollover)
	require.Equal(t, []float64{1.2, 4.0}, snap.History)
}

type corruptStore struct{}

func (corruptStore) Save(game.SessionState) error { return nil }
func (corruptStore) Load() (game.SessionState, bool, error) {
	return game.SessionState{}, false, errors.New("corrupt snapshot")
}
func (corruptStore) Clear() error { return nil }

func TestEngineDefaultsOnCorruptSnapshot(t *testing.T) {
	eng := game.NewEngine(game.DefaultConfig(), game.WithStore(corruptStore{}))
	snap := eng.Snapshot()
	require.Equal(t, 1000.0, snap.Balance)
	require.Zero(t, snap.Rollover)
	require.Empty(t, snap.History)
}

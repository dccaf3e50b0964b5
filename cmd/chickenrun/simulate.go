package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/chickenrun/internal/game"
	"github.com/lox/chickenrun/internal/randutil"
)

// SimulateCmd runs rounds without timers: generate bettors, decide the
// outcome, settle the bots, repeat. Useful for checking the crash-lane
// distribution and the house margin after tuning.
type SimulateCmd struct {
	Rounds int    `kong:"default='10000',help='Number of rounds to simulate'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := log.New(os.Stderr)
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(seed)
	logger.Info("simulating", "rounds", c.Rounds, "seed", seed)

	var (
		crashCounts [game.LaneCount + 1]int
		totalStaked float64
		totalPaid   float64
		rollover    float64
		totalPot    float64
		peakPot     float64
	)

	start := time.Now()
	for i := 0; i < c.Rounds; i++ {
		bettors := game.GenerateBettors(rng)
		outcome := game.Decide(rng, bettors, 0, rollover)
		rollover = outcome.Ledger.NextRollover

		crashCounts[outcome.CrashLane]++
		totalPot += outcome.Ledger.Pot
		if outcome.Ledger.Pot > peakPot {
			peakPot = outcome.Ledger.Pot
		}

		// Settle the bots against the decided lane: a bettor is paid when
		// their target lane is reached before the crash.
		for _, b := range bettors {
			totalStaked += b.Stake
			if outcome.CrashLane == 0 || b.TargetLane < outcome.CrashLane {
				totalPaid += b.Stake * (1 + game.Multiplier(b.TargetLane))
			}
		}

		logger.Debug("round",
			"n", i+1,
			"crash_lane", outcome.CrashLane,
			"pot", outcome.Ledger.Pot,
		)
	}
	elapsed := time.Since(start)

	logger.Info("done",
		"rounds", c.Rounds,
		"elapsed", elapsed,
		"rtp", fmt.Sprintf("%.4f", totalPaid/totalStaked),
		"avg_pot", totalPot/float64(c.Rounds),
		"peak_pot", peakPot,
		"final_rollover", rollover,
	)

	fmt.Println("crash lane distribution:")
	for lane := 0; lane <= game.LaneCount; lane++ {
		label := fmt.Sprintf("lane %d", lane)
		if lane == 0 {
			label = "safe  "
		}
		pct := 100 * float64(crashCounts[lane]) / float64(c.Rounds)
		fmt.Printf("  %s  %6d  %5.2f%%\n", label, crashCounts[lane], pct)
	}
	return nil
}

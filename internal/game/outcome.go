package game

import rand "math/rand/v2"

// Pot economics: 60% of the pot (plus carried rollover) funds payouts, the
// remaining 40% is profit split across platform, provider and the rollover
// carried into the next round's pool.
const (
	basePayoutPct  = 0.6
	profitPlatform = 0.4
	profitProvider = 0.3
	profitRollover = 0.3
)

// Drama layer tuning. These adjustments only ever move the crash earlier
// (or force one on a safe round at lanes 6-8), never later, so they cannot
// create a payout the pool walk did not fund.
const (
	lateCrashChance    = 0.12
	earlyShiftChance   = 0.10
	instantCrashChance = 0.04
)

// Outcome is the authoritative decision for a round: the lane at which the
// run ends (0 = safe, finish reached) and the financial ledger behind it.
type Outcome struct {
	CrashLane int
	Ledger    Ledger
}

// Decide computes the crash lane for a round before any lane is crossed.
//
// The pool walk asks, lane by lane, whether the house can still afford to
// pay everyone who might cash out there. Bettors committed to the lane are
// paid out of the pool; the real player is assumed to cash out at every
// lane (worst case for the pool), since their actual lane is a live
// decision unknown at resolution time. The first lane the pool cannot
// cover is the crash lane.
//
// rollover is the profit share carried from the previous round; the caller
// commits Ledger.NextRollover for the round that follows.
func Decide(rng *rand.Rand, bettors []*Bettor, realStake, rollover float64) Outcome {
	pot := realStake
	for _, b := range bettors {
		pot += b.Stake
	}
	pool := pot*basePayoutPct + rollover
	profit := pot * (1 - basePayoutPct)

	ledger := Ledger{
		Pot:            pot,
		Pool:           pool,
		PlatformProfit: profit * profitPlatform,
		ProviderFee:    profit * profitProvider,
		NextRollover:   profit * profitRollover,
	}

	crashLane := walkCrashLane(bettors, realStake, pool)

	// Drama adjustments, each on a fresh draw: a safe round has a 12%
	// chance of a late crash at lanes 6-8; otherwise a crash past lane 2
	// has a 10% chance of landing one lane earlier; and 4% of rounds
	// crash at lane 1 regardless.
	if crashLane == 0 && rng.Float64() < lateCrashChance {
		crashLane = 6 + rng.IntN(3)
	} else if crashLane > 2 && rng.Float64() < earlyShiftChance {
		crashLane = max(1, crashLane-1)
	}
	if rng.Float64() < instantCrashChance {
		crashLane = 1
	}

	if crashLane < 0 {
		crashLane = 0
	}
	if crashLane > LaneCount {
		crashLane = LaneCount
	}

	return Outcome{CrashLane: crashLane, Ledger: ledger}
}

// walkCrashLane runs the pool walk: deduct each lane's committed payouts
// in order and crash at the first lane the pool cannot cover, worst-case
// real-player payout included. Returns 0 when the pool survives all
// eight lanes.
func walkCrashLane(bettors []*Bettor, realStake, pool float64) int {
	poolLeft := pool
	for lane := 1; lane <= LaneCount; lane++ {
		mult := Multiplier(lane)
		lanePayout := 0.0
		for _, b := range bettors {
			if b.TargetLane == lane {
				lanePayout += b.Stake * (1 + mult)
			}
		}
		realWorst := 0.0
		if realStake > 0 {
			realWorst = realStake * (1 + mult)
		}
		if poolLeft-lanePayout-realWorst < 0 {
			return lane
		}
		poolLeft -= lanePayout
		if poolLeft < 0 {
			return lane
		}
	}
	return 0
}

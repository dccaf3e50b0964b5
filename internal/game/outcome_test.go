package game

import (
	"testing"

	"github.com/lox/chickenrun/internal/randutil"
)

func makeBettor(stake float64, targetLane int) *Bettor {
	return &Bettor{ID: "1", Name: "bot", Stake: stake, TargetLane: targetLane}
}

func TestMultiplierBounds(t *testing.T) {
	if got := Multiplier(0); got != 0 {
		t.Errorf("Multiplier(0) = %v, want 0", got)
	}
	if got := Multiplier(9); got != 0 {
		t.Errorf("Multiplier(9) = %v, want 0", got)
	}
	if got := Multiplier(1); got != 1.0 {
		t.Errorf("Multiplier(1) = %v, want 1.0", got)
	}
	if got := Multiplier(LaneCount); got != 4.0 {
		t.Errorf("Multiplier(%d) = %v, want 4.0", LaneCount, got)
	}
}

func TestWalkSafeWhenPoolCoversEveryLane(t *testing.T) {
	// Pot $10,000, pool $6,000; cumulative lane payouts 2000+1500+2500
	// never exceed what remains, so the walk survives all eight lanes.
	bettors := []*Bettor{
		makeBettor(1000, 1), // payout 2000
		makeBettor(500, 4),  // payout 1500
		makeBettor(500, 8),  // payout 2500
		makeBettor(8000, 0), // never cashes, fills the pot
	}
	if got := walkCrashLane(bettors, 0, 10000*0.6); got != 0 {
		t.Errorf("walkCrashLane = %d, want 0 (safe)", got)
	}
}

func TestWalkCrashesAtFirstUnfundedLane(t *testing.T) {
	// Single bettor staking $5000 on lane 1; pool 0.6*5100 = 3060 cannot
	// cover the $10,000 lane 1 payout.
	bettors := []*Bettor{makeBettor(5000, 1)}
	pot := 5000.0 + 100.0
	if got := walkCrashLane(bettors, 100, pot*0.6); got != 1 {
		t.Errorf("walkCrashLane = %d, want 1", got)
	}
}

func TestWalkWorstCaseRealPayoutEveryLane(t *testing.T) {
	// No bot payouts at all: the walk still has to fund the real player
	// cashing out at any lane. Pool 100*0.6=60 < 100*(1+1.0)=200 at lane 1.
	if got := walkCrashLane(nil, 100, 60); got != 1 {
		t.Errorf("walkCrashLane = %d, want 1", got)
	}
	// A large pool survives the worst case at all lanes.
	if got := walkCrashLane(nil, 100, 1000); got != 0 {
		t.Errorf("walkCrashLane = %d, want 0", got)
	}
}

// The walk never declares a crash where funding was sufficient, and never
// passes a lane it could not fund.
func TestWalkFundingProperty(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := randutil.New(seed)
		bettors := GenerateBettors(rng)
		realStake := float64(rng.IntN(500))
		pot := realStake
		for _, b := range bettors {
			pot += b.Stake
		}
		pool := pot * 0.6

		crash := walkCrashLane(bettors, realStake, pool)

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
			funded := poolLeft-lanePayout-realWorst >= 0 && poolLeft-lanePayout >= 0
			if funded && crash == lane {
				t.Fatalf("seed %d: crash declared at funded lane %d", seed, lane)
			}
			if !funded {
				if crash != lane {
					t.Fatalf("seed %d: lane %d unfunded but crash = %d", seed, lane, crash)
				}
				break
			}
			poolLeft -= lanePayout
		}
	}
}

func TestDecideCrashLaneInRange(t *testing.T) {
	for seed := int64(0); seed < 500; seed++ {
		rng := randutil.New(seed)
		bettors := GenerateBettors(rng)
		o := Decide(rng, bettors, float64(rng.IntN(1000)), 0)
		if o.CrashLane < 0 || o.CrashLane > LaneCount {
			t.Fatalf("seed %d: crash lane %d out of range", seed, o.CrashLane)
		}
	}
}

// Drama adjustments only move the crash earlier, force lanes 6-8 on a
// safe walk, or override to lane 1. They never move a crash later.
func TestDecideDramaNeverMovesCrashLater(t *testing.T) {
	for seed := int64(0); seed < 500; seed++ {
		rng := randutil.New(seed)
		bettors := GenerateBettors(rng)
		realStake := float64(rng.IntN(1000))

		pot := realStake
		for _, b := range bettors {
			pot += b.Stake
		}
		walk := walkCrashLane(bettors, realStake, pot*basePayoutPct)

		o := Decide(rng, bettors, realStake, 0)
		switch {
		case walk == 0:
			if o.CrashLane != 0 && o.CrashLane != 1 && (o.CrashLane < 6 || o.CrashLane > 8) {
				t.Fatalf("seed %d: safe walk adjusted to lane %d", seed, o.CrashLane)
			}
		default:
			ok := o.CrashLane == walk || o.CrashLane == max(1, walk-1) || o.CrashLane == 1
			if !ok {
				t.Fatalf("seed %d: walk %d adjusted to %d", seed, walk, o.CrashLane)
			}
		}
	}
}

func TestDecideDeterministicCrashOverridesDrama(t *testing.T) {
	// Walk crashes at lane 1; every drama path leaves lane 1 in place.
	bettors := []*Bettor{makeBettor(5000, 1)}
	for seed := int64(0); seed < 100; seed++ {
		rng := randutil.New(seed)
		o := Decide(rng, bettors, 100, 0)
		if o.CrashLane != 1 {
			t.Fatalf("seed %d: crash lane %d, want 1", seed, o.CrashLane)
		}
	}
}

func TestDecideLedger(t *testing.T) {
	bettors := []*Bettor{
		makeBettor(600, 2),
		makeBettor(400, 5),
	}
	rng := randutil.New(42)
	rollover := 120.0
	o := Decide(rng, bettors, 1000, rollover)

	const pot = 2000.0
	if o.Ledger.Pot != pot {
		t.Errorf("Pot = %v, want %v", o.Ledger.Pot, pot)
	}
	if want := pot*0.6 + rollover; o.Ledger.Pool != want {
		t.Errorf("Pool = %v, want %v", o.Ledger.Pool, want)
	}
	profit := pot * 0.4
	if want := profit * 0.4; o.Ledger.PlatformProfit != want {
		t.Errorf("PlatformProfit = %v, want %v", o.Ledger.PlatformProfit, want)
	}
	if want := profit * 0.3; o.Ledger.ProviderFee != want {
		t.Errorf("ProviderFee = %v, want %v", o.Ledger.ProviderFee, want)
	}
	if want := profit * 0.3; o.Ledger.NextRollover != want {
		t.Errorf("NextRollover = %v, want %v", o.Ledger.NextRollover, want)
	}
	if o.Ledger.Bonus != 0 {
		t.Errorf("Bonus = %v, want 0 before settlement", o.Ledger.Bonus)
	}
}

// The rollover committed after round N is exactly the pool addition for
// round N+1.
func TestRolloverFeedsNextPool(t *testing.T) {
	rng := randutil.New(7)
	first := Decide(rng, GenerateBettors(rng), 0, 0)

	next := GenerateBettors(rng)
	pot := 0.0
	for _, b := range next {
		pot += b.Stake
	}
	second := Decide(rng, next, 0, first.Ledger.NextRollover)
	if want := pot*0.6 + first.Ledger.NextRollover; second.Ledger.Pool != want {
		t.Errorf("Pool = %v, want %v", second.Ledger.Pool, want)
	}
}

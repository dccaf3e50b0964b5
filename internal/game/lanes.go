package game

// LaneCount is the number of lanes between the start zone and the finish.
const LaneCount = 8

// laneMults holds the fixed payout multiplier for each lane, in crossing order.
var laneMults = [LaneCount]float64{1.0, 1.2, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0}

// Multiplier returns the payout multiplier bound to a lane (1-based).
// Lane 0 is the start zone and carries no multiplier.
func Multiplier(lane int) float64 {
	if lane < 1 || lane > LaneCount {
		return 0
	}
	return laneMults[lane-1]
}

// Multipliers returns a copy of the full multiplier table.
func Multipliers() []float64 {
	mults := make([]float64, LaneCount)
	copy(mults, laneMults[:])
	return mults
}

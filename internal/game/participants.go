package game

import (
	"fmt"
	rand "math/rand/v2"
	"strings"
)

// Simulated bettor population bounds per round.
const (
	MinBots = 8
	MaxBots = 18
)

// botStakes is the discrete stake set simulated bettors draw from, with
// replacement. Duplicates weight the common stakes.
var botStakes = []float64{50, 50, 100, 100, 100, 200, 200, 300, 500, 500, 1000, 2000, 5000}

// GenerateBettors produces a fresh population of simulated bettors for one
// round. Count is uniform in [MinBots, MaxBots]; each bettor gets a stake
// from botStakes and a target lane from the weighted cash-out distribution.
func GenerateBettors(rng *rand.Rand) []*Bettor {
	n := MinBots + rng.IntN(MaxBots-MinBots+1)
	bettors := make([]*Bettor, 0, n)
	for i := 0; i < n; i++ {
		bettors = append(bettors, &Bettor{
			ID:         fmt.Sprintf("%d", 100000+rng.IntN(900000)),
			Name:       randomName(rng),
			Stake:      botStakes[rng.IntN(len(botStakes))],
			TargetLane: randomTargetLane(rng),
			Status:     Waiting,
		})
	}
	return bettors
}

// randomTargetLane draws a cash-out lane: 30% lanes 1-2, 25% lanes 3-4,
// 20% lanes 5-6, 15% lane 7, 10% ride to the finish.
func randomTargetLane(rng *rand.Rand) int {
	r := rng.Float64()
	switch {
	case r < 0.30:
		return 1 + rng.IntN(2)
	case r < 0.55:
		return 3 + rng.IntN(2)
	case r < 0.75:
		return 5 + rng.IntN(2)
	case r < 0.90:
		return 7
	default:
		return LaneCount
	}
}

const (
	nameConsonants = "bcdfghjklmnpqrstvwxyz"
	nameVowels     = "aeiou"
)

// randomName builds a pronounceable username by alternating consonants and
// vowels, with an optional numeric suffix.
func randomName(rng *rand.Rand) string {
	var sb strings.Builder
	n := 5 + rng.IntN(5)
	for i := 0; i < n; i++ {
		set := nameConsonants
		if i%2 == 1 {
			set = nameVowels
		}
		sb.WriteByte(set[rng.IntN(len(set))])
	}
	name := sb.String()
	name = strings.ToUpper(name[:1]) + name[1:]
	if rng.Float64() > 0.5 {
		name = fmt.Sprintf("%s%d", name, 1+rng.IntN(99))
	}
	return name
}

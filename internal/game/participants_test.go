package game

import (
	"strings"
	"testing"

	"github.com/lox/chickenrun/internal/randutil"
)

func TestGenerateBettorsPopulation(t *testing.T) {
	validStakes := map[float64]bool{
		50: true, 100: true, 200: true, 300: true,
		500: true, 1000: true, 2000: true, 5000: true,
	}

	for seed := int64(0); seed < 100; seed++ {
		rng := randutil.New(seed)
		bettors := GenerateBettors(rng)

		if len(bettors) < MinBots || len(bettors) > MaxBots {
			t.Fatalf("seed %d: %d bettors, want %d-%d", seed, len(bettors), MinBots, MaxBots)
		}
		for _, b := range bettors {
			if !validStakes[b.Stake] {
				t.Errorf("seed %d: invalid stake %v", seed, b.Stake)
			}
			if b.TargetLane < 1 || b.TargetLane > LaneCount {
				t.Errorf("seed %d: target lane %d out of range", seed, b.TargetLane)
			}
			if b.Status != Waiting {
				t.Errorf("seed %d: new bettor status %v, want Waiting", seed, b.Status)
			}
			if len(b.ID) != 6 {
				t.Errorf("seed %d: bettor id %q, want 6 digits", seed, b.ID)
			}
		}
	}
}

func TestGenerateBettorsLaneDistribution(t *testing.T) {
	rng := randutil.New(99)
	counts := make(map[int]int)
	total := 0
	for i := 0; i < 2000; i++ {
		for _, b := range GenerateBettors(rng) {
			counts[b.TargetLane]++
			total++
		}
	}

	share := func(lanes ...int) float64 {
		n := 0
		for _, l := range lanes {
			n += counts[l]
		}
		return float64(n) / float64(total)
	}

	checks := []struct {
		name  string
		got   float64
		want  float64
		slack float64
	}{
		{"lanes 1-2", share(1, 2), 0.30, 0.03},
		{"lanes 3-4", share(3, 4), 0.25, 0.03},
		{"lanes 5-6", share(5, 6), 0.20, 0.03},
		{"lane 7", share(7), 0.15, 0.03},
		{"lane 8", share(8), 0.10, 0.03},
	}
	for _, c := range checks {
		if c.got < c.want-c.slack || c.got > c.want+c.slack {
			t.Errorf("%s share = %.3f, want %.2f±%.2f", c.name, c.got, c.want, c.slack)
		}
	}
}

func TestRandomName(t *testing.T) {
	rng := randutil.New(3)
	for i := 0; i < 100; i++ {
		name := randomName(rng)
		if len(name) < 5 {
			t.Fatalf("name %q too short", name)
		}
		first := name[0]
		if first < 'A' || first > 'Z' {
			t.Errorf("name %q not capitalized", name)
		}
		if !strings.ContainsRune(nameConsonants, rune(first-'A'+'a')) {
			t.Errorf("name %q does not start with a consonant", name)
		}
	}
}

package game

// Ledger is the per-round financial breakdown. All fields except Bonus are
// derived once at resolution and read-only afterwards; Bonus is the sum of
// forfeited stakes, realized only once the crash point is reached.
type Ledger struct {
	Pot            float64
	Pool           float64
	PlatformProfit float64
	ProviderFee    float64
	NextRollover   float64
	Bonus          float64
}

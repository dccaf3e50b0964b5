package game

// BettorStatus tracks where a participant's stake stands within a round.
type BettorStatus int

const (
	// Waiting means the stake is still riding.
	Waiting BettorStatus = iota
	// CashedOut means the stake was converted to a payout at some lane.
	CashedOut
	// Crashed means the stake was forfeited at the crash lane.
	Crashed
)

// String returns the status name used in logs and wire messages.
func (s BettorStatus) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case CashedOut:
		return "cashed_out"
	case Crashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Bettor is a participant in a round. Simulated bettors commit to a target
// lane up front; the real player is represented separately on the round
// because their cash-out lane is a live decision.
type Bettor struct {
	ID            string
	Name          string
	Stake         float64
	TargetLane    int
	Status        BettorStatus
	CashoutMult   float64
	CashoutAmount float64
}

// cashOut settles the bettor at the given multiplier.
func (b *Bettor) cashOut(mult float64) {
	b.Status = CashedOut
	b.CashoutMult = mult
	b.CashoutAmount = b.Stake * (1 + mult)
}

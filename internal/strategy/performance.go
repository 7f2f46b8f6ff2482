package strategy

// ewmaAlpha weights the most recent outcome in the rolling average.
const ewmaAlpha = 0.3

// Outcome is the rolling performance state of one strategy. The streak is
// positive while winning and negative while losing.
type Outcome struct {
	Streak  int
	AvgPnL  float64 // exponentially weighted average P&L percent
	Wins    int
	Losses  int
	Samples int
}

// Performance tracks per-strategy outcomes across trade closes. It feeds
// cooldown and confidence-boost decisions; it is session state, not a
// persisted model.
type Performance struct {
	outcomes map[string]Outcome
}

// NewPerformance creates an empty tracker.
func NewPerformance() *Performance {
	return &Performance{outcomes: make(map[string]Outcome)}
}

// Record folds one closed trade into the strategy's rolling state.
func (p *Performance) Record(strategy string, pnlPct float64, isWin bool) {
	o := p.outcomes[strategy]
	if isWin {
		o.Wins++
		if o.Streak < 0 {
			o.Streak = 0
		}
		o.Streak++
	} else {
		o.Losses++
		if o.Streak > 0 {
			o.Streak = 0
		}
		o.Streak--
	}
	if o.Samples == 0 {
		o.AvgPnL = pnlPct
	} else {
		o.AvgPnL = ewmaAlpha*pnlPct + (1-ewmaAlpha)*o.AvgPnL
	}
	o.Samples++
	p.outcomes[strategy] = o
}

// Outcome returns the rolling state for a strategy.
func (p *Performance) Outcome(strategy string) Outcome {
	return p.outcomes[strategy]
}

// Reset drops all rolling state.
func (p *Performance) Reset() {
	p.outcomes = make(map[string]Outcome)
}

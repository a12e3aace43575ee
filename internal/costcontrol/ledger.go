// Package costcontrol tracks token usage and API spend across model rounds.
package costcontrol

import (
	"log"
	"strings"
	"sync"

	"github.com/stellarlink/repochat/internal/provider"
)

// Pricing holds per-million-token rates in USD for one model.
type Pricing struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// defaultPricing maps model identifiers to their rates. Lookup falls back to
// prefix matching so dated model ids resolve to their family.
var defaultPricing = map[string]Pricing{
	"claude-3-5-sonnet": {Input: 3.0, Output: 15.0, CacheWrite: 3.75, CacheRead: 0.30},
	"claude-3-5-haiku":  {Input: 0.80, Output: 4.0, CacheWrite: 1.0, CacheRead: 0.08},
	"claude-3-opus":     {Input: 15.0, Output: 75.0, CacheWrite: 18.75, CacheRead: 1.50},
	"gpt-4o":            {Input: 2.50, Output: 10.0, CacheWrite: 0, CacheRead: 1.25},
	"gpt-4o-mini":       {Input: 0.15, Output: 0.60, CacheWrite: 0, CacheRead: 0.075},
}

// fallbackPricing is used for models missing from the table.
var fallbackPricing = Pricing{Input: 3.0, Output: 15.0, CacheWrite: 3.75, CacheRead: 0.30}

// Snapshot is a copy of the ledger state.
type Snapshot struct {
	SessionCost float64        `json:"session_cost"`
	DailyCost   float64        `json:"daily_cost"`
	MonthlyCost float64        `json:"monthly_cost"`
	Tokens      provider.Usage `json:"tokens"`
}

// Ledger is a process-lifetime cost ledger, monotonically incremented by
// every completed model round. Session-scoped fields can be reset without
// touching daily/monthly totals; rolling those over is the caller's schedule.
type Ledger struct {
	mu      sync.RWMutex
	pricing map[string]Pricing

	sessionCost float64
	dailyCost   float64
	monthlyCost float64
	tokens      provider.Usage
}

// NewLedger creates a ledger with the default pricing table.
func NewLedger() *Ledger {
	return &Ledger{pricing: defaultPricing}
}

// Record folds one round's usage into the ledger and returns the cost of
// that round. The four counters are added verbatim; the cost is each counter
// times its per-million rate.
func (l *Ledger) Record(model string, u provider.Usage) float64 {
	p := l.lookupPricing(model)

	cost := float64(u.InputTokens)*p.Input/1e6 +
		float64(u.OutputTokens)*p.Output/1e6 +
		float64(u.CacheWriteTokens)*p.CacheWrite/1e6 +
		float64(u.CacheReadTokens)*p.CacheRead/1e6

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessionCost += cost
	l.dailyCost += cost
	l.monthlyCost += cost
	l.tokens = l.tokens.Add(u)

	log.Printf("[CostControl] Recorded %s round: $%.6f (session total $%.4f)", model, cost, l.sessionCost)
	return cost
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Snapshot{
		SessionCost: l.sessionCost,
		DailyCost:   l.dailyCost,
		MonthlyCost: l.monthlyCost,
		Tokens:      l.tokens,
	}
}

// ResetSession zeroes the session cost and the token counters only.
// Daily and monthly totals are untouched.
func (l *Ledger) ResetSession() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessionCost = 0
	l.tokens = provider.Usage{}
}

// ResetDaily zeroes the daily total. Callers schedule this at midnight.
func (l *Ledger) ResetDaily() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dailyCost = 0
}

// ResetMonthly zeroes the monthly total.
func (l *Ledger) ResetMonthly() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.monthlyCost = 0
}

func (l *Ledger) lookupPricing(model string) Pricing {
	if p, ok := l.pricing[model]; ok {
		return p
	}

	// Longest-prefix match so e.g. gpt-4o-mini-* never resolves to gpt-4o.
	var best string
	for prefix := range l.pricing {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return l.pricing[best]
	}
	return fallbackPricing
}

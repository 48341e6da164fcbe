// Package results keeps the per-job result maps and renders the ranked views.
package results

import (
	"sort"
	"strings"

	"domainwizard/internal/domain"
)

type category int

const (
	catWithin category = iota
	catOver
	catUnavailable
)

// Aggregator owns three maps keyed by lowercase domain. A domain lives in
// exactly one of them, chosen by its latest availability. Not safe for
// concurrent use.
type Aggregator struct {
	budget   float64
	maxNames int
	maps     [3]map[string]domain.ScoredDomain

	summaries []domain.LoopSummary
	history   []domain.LoopPlan
}

func New(budget float64, maxNames int) *Aggregator {
	a := &Aggregator{budget: budget, maxNames: maxNames}
	for i := range a.maps {
		a.maps[i] = make(map[string]domain.ScoredDomain)
	}
	return a
}

func (a *Aggregator) categorize(d domain.ScoredDomain) category {
	switch {
	case !d.Available:
		return catUnavailable
	case d.WithinBudget(a.budget):
		return catWithin
	default:
		return catOver
	}
}

// take removes and returns the current record of key from whichever map
// holds it.
func (a *Aggregator) take(key string) (domain.ScoredDomain, bool) {
	for _, m := range a.maps {
		if d, ok := m[key]; ok {
			delete(m, key)
			return d, true
		}
	}
	return domain.ScoredDomain{}, false
}

// Add records a domain scored in loop. The kept version is chosen by
// MergeBest; availability and price dependent fields always come from next.
func (a *Aggregator) Add(next domain.ScoredDomain, loop int) domain.ScoredDomain {
	key := strings.ToLower(next.Domain)
	next.Domain = key
	next.FirstSeenLoop, next.LastSeenLoop, next.TimesDiscovered = loop, loop, 1

	merged := next
	if prev, ok := a.take(key); ok {
		merged = MergeBest(prev, next)
		merged.AvailabilityResult = next.AvailabilityResult
		merged.Valuation = next.Valuation
		merged.Financial = next.Financial
		merged.FinancialValueScore = next.FinancialValueScore
		merged.Underpriced = next.Underpriced
	}
	a.maps[a.categorize(merged)][key] = merged
	return merged
}

// Replace overwrites a domain's record in place, e.g. after an enrichment
// rescore. Discovery counters are taken from d.
func (a *Aggregator) Replace(d domain.ScoredDomain) {
	key := strings.ToLower(d.Domain)
	d.Domain = key
	a.take(key)
	a.maps[a.categorize(d)][key] = d
}

// Available returns every available domain, in no particular order.
func (a *Aggregator) Available() []domain.ScoredDomain {
	out := make([]domain.ScoredDomain, 0, len(a.maps[catWithin])+len(a.maps[catOver]))
	for _, m := range a.maps[:catUnavailable] {
		for _, d := range m {
			out = append(out, d)
		}
	}
	return out
}

func (a *Aggregator) Len() int {
	return len(a.maps[catWithin]) + len(a.maps[catOver]) + len(a.maps[catUnavailable])
}

// WithinBudgetCount is the number of available domains under budget.
func (a *Aggregator) WithinBudgetCount() int { return len(a.maps[catWithin]) }

func (a *Aggregator) RecordLoop(plan domain.LoopPlan, s domain.LoopSummary) {
	a.history = append(a.history, plan)
	a.summaries = append(a.summaries, s)
}

// MergeBest returns the better of two versions of one domain: higher
// OverallScore, then lower price, then the later sighting. Discovery
// counters are combined.
func MergeBest(a, b domain.ScoredDomain) domain.ScoredDomain {
	win := a
	if better(b, a) {
		win = b
	}
	win.FirstSeenLoop = minSeen(a.FirstSeenLoop, b.FirstSeenLoop)
	win.LastSeenLoop = max(a.LastSeenLoop, b.LastSeenLoop)
	win.TimesDiscovered = a.TimesDiscovered + b.TimesDiscovered
	return win
}

func better(x, y domain.ScoredDomain) bool {
	if x.OverallScore != y.OverallScore {
		return x.OverallScore > y.OverallScore
	}
	xp, xok := x.PriceOrInf()
	yp, yok := y.PriceOrInf()
	switch {
	case xok && !yok:
		return true
	case !xok && yok:
		return false
	case xok && yok && xp != yp:
		return xp < yp
	}
	return x.LastSeenLoop > y.LastSeenLoop
}

func minSeen(a, b int) int {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return min(a, b)
	}
}

// Snapshot renders the ranked views, each capped to maxNames.
func (a *Aggregator) Snapshot() *domain.Results {
	within := values(a.maps[catWithin])
	over := values(a.maps[catOver])
	unavailable := values(a.maps[catUnavailable])
	all := append(append([]domain.ScoredDomain(nil), within...), over...)

	sortBy(all, byMarketability)
	sortBy(within, byPrice)
	sortBy(over, byFinancialValue)
	sortBy(unavailable, byMarketability)

	return &domain.Results{
		AllRanked:     a.cap(all),
		WithinBudget:  a.cap(within),
		OverBudget:    a.cap(over),
		Unavailable:   a.cap(unavailable),
		LoopSummaries: append([]domain.LoopSummary(nil), a.summaries...),
		TuningHistory: append([]domain.LoopPlan(nil), a.history...),
	}
}

func (a *Aggregator) cap(s []domain.ScoredDomain) []domain.ScoredDomain {
	if a.maxNames > 0 && len(s) > a.maxNames {
		s = s[:a.maxNames]
	}
	if s == nil {
		s = []domain.ScoredDomain{}
	}
	return s
}

func values(m map[string]domain.ScoredDomain) []domain.ScoredDomain {
	out := make([]domain.ScoredDomain, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	return out
}

type less func(x, y domain.ScoredDomain) (bool, bool)

// sortBy orders by key, falling back to domain name for a total order.
func sortBy(s []domain.ScoredDomain, key less) {
	sort.SliceStable(s, func(i, j int) bool {
		if lt, decided := key(s[i], s[j]); decided {
			return lt
		}
		return s[i].Domain < s[j].Domain
	})
}

func byMarketability(x, y domain.ScoredDomain) (bool, bool) {
	if x.MarketabilityScore != y.MarketabilityScore {
		return x.MarketabilityScore > y.MarketabilityScore, true
	}
	if x.OverallScore != y.OverallScore {
		return x.OverallScore > y.OverallScore, true
	}
	return false, false
}

func byFinancialValue(x, y domain.ScoredDomain) (bool, bool) {
	if x.FinancialValueScore != y.FinancialValueScore {
		return x.FinancialValueScore > y.FinancialValueScore, true
	}
	return byMarketability(x, y)
}

// byPrice puts cheapest first and unpriced last.
func byPrice(x, y domain.ScoredDomain) (bool, bool) {
	xp, xok := x.PriceOrInf()
	yp, yok := y.PriceOrInf()
	switch {
	case xok && !yok:
		return true, true
	case !xok && yok:
		return false, true
	case xok && yok && xp != yp:
		return xp < yp, true
	}
	return byMarketability(x, y)
}

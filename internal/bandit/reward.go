package bandit

import (
	"math"
	"sort"

	"domainwizard/internal/domain"
)

// Outcome is what one loop produced.
type Outcome struct {
	Domains []domain.ScoredDomain
}

// Breakdown itemises a loop reward.
type Breakdown struct {
	Quota        float64 `json:"quota"`
	Undervalue   float64 `json:"undervalue"`
	Quality      float64 `json:"quality"`
	Availability float64 `json:"availability"`
	InBudget     float64 `json:"inBudget"`
	Performance  float64 `json:"performance"`

	UnderTested float64 `json:"underTested"`
	Diversity   float64 `json:"diversity"`
	Novelty     float64 `json:"novelty"`
	Exploration float64 `json:"exploration"`

	Reuse  float64 `json:"reuse"`
	Reward float64 `json:"reward"`
}

// Reward scores plan's outcome in [0,1] against the state before the loop.
func Reward(s Session, plan domain.LoopPlan, out Outcome, p Policy) Breakdown {
	var b Breakdown
	var avail, within []domain.ScoredDomain
	for _, d := range out.Domains {
		if d.Available {
			avail = append(avail, d)
		}
		if d.WithinBudget(s.Budget) {
			within = append(within, d)
		}
	}

	if s.Quota > 0 {
		b.Quota = math.Min(1, float64(len(within))/float64(s.Quota))
	}
	var ratios []float64
	for _, d := range avail {
		if d.Valuation.ValueRatio != nil {
			ratios = append(ratios, math.Max(1, math.Min(10, *d.Valuation.ValueRatio)))
		}
	}
	if len(ratios) > 0 {
		b.Undervalue = (meanTop(ratios, p.TopK) - 1) / 9
	}
	if len(avail) > 0 {
		scores := make([]float64, len(avail))
		for i, d := range avail {
			scores[i] = d.OverallScore
		}
		b.Quality = meanTop(scores, p.TopK) / 100
	}
	if n := len(out.Domains); n > 0 {
		b.Availability = float64(len(avail)) / float64(n)
		b.InBudget = float64(len(within)) / float64(n)
	}
	b.Performance = 0.35*b.Quota + 0.2*b.Undervalue + 0.25*b.Quality + 0.1*b.Availability + 0.1*b.InBudget

	reused := 0
	for _, tok := range plan.Keywords {
		if s.Model.Tokens[tok].Plays < float64(p.CoverageTarget) {
			b.UnderTested++
		}
		if s.RunPlays[tok] > 0 {
			reused++
		}
	}
	if n := len(plan.Keywords); n > 0 {
		b.UnderTested /= float64(n)
		b.Reuse = float64(reused) / float64(n)
	}
	b.Diversity = syllableDiversity(out.Domains)
	b.Novelty = eliteNovelty(s.Model.Elite, out.Domains, p.TopK)
	b.Exploration = 0.4*b.UnderTested + 0.3*b.Diversity + 0.3*b.Novelty

	blend := s.Reward.PerformanceWeight*b.Performance + s.Reward.ExplorationWeight*b.Exploration
	blend *= 1 - s.Repetition*p.ReuseDiscount*b.Reuse
	b.Reward = math.Max(0, math.Min(1, blend))
	return b
}

func meanTop(v []float64, k int) float64 {
	s := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(s)))
	if len(s) > k {
		s = s[:k]
	}
	sum := 0.0
	for _, x := range s {
		sum += x
	}
	return sum / float64(len(s))
}

func syllableBucket(n int) int {
	return min(max(n, 1), 4)
}

// syllableDiversity is the share of syllable buckets (1, 2, 3, 4+) covered
// by the loop's available domains.
func syllableDiversity(ds []domain.ScoredDomain) float64 {
	seen := make(map[int]struct{})
	for _, d := range ds {
		if d.Available {
			seen[syllableBucket(d.Syllables)] = struct{}{}
		}
	}
	return float64(len(seen)) / 4
}

// eliteNovelty is the share of the loop's top available domains that are
// not already in the elite pool.
func eliteNovelty(elite []domain.EliteDomain, ds []domain.ScoredDomain, k int) float64 {
	var top []domain.ScoredDomain
	for _, d := range ds {
		if d.Available {
			top = append(top, d)
		}
	}
	if len(top) == 0 {
		return 0
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].OverallScore > top[j].OverallScore })
	if len(top) > k {
		top = top[:k]
	}
	known := make(map[string]struct{}, len(elite))
	for _, e := range elite {
		known[e.Domain] = struct{}{}
	}
	fresh := 0
	for _, d := range top {
		if _, ok := known[d.Domain]; !ok {
			fresh++
		}
	}
	return float64(fresh) / float64(len(top))
}

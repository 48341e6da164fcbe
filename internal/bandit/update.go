package bandit

import (
	"sort"
	"strings"

	"domainwizard/internal/domain"
)

// Update folds one loop's outcome into a copy of s. Loop N's update must be
// applied before loop N+1 is selected.
func Update(s Session, plan domain.LoopPlan, out Outcome, p Policy) (Session, Breakdown) {
	b := Reward(s, plan, out, p)
	n := s.clone()
	r := b.Reward

	st := n.Model.Styles[plan.Style]
	st.Plays++
	st.Reward += r
	n.Model.Styles[plan.Style] = st
	rs := n.Model.Randomness[plan.Randomness]
	rs.Plays++
	rs.Reward += r
	n.Model.Randomness[plan.Randomness] = rs

	for tok, ts := range n.Model.Tokens {
		if !contains(plan.Keywords, tok) && ts.ConsecutiveLoops > 0 {
			ts.ConsecutiveLoops = 0
			n.Model.Tokens[tok] = ts
		}
	}
	for _, tok := range plan.Keywords {
		ts := n.Model.Tokens[tok]
		ts.Plays++
		ts.Reward += r
		if r >= p.WinThreshold {
			ts.Wins++
		} else {
			ts.Losses++
		}
		if ts.LastLoop > 0 && ts.LastLoop == plan.Loop-1 {
			ts.ConsecutiveLoops++
		} else {
			ts.ConsecutiveLoops = 1
		}
		ts.LastLoop = plan.Loop

		stem := Stem(tok)
		for _, d := range out.Domains {
			if strings.Contains(d.Label, stem) {
				ts.DomainMatches++
				ts.DomainScoreSum += d.OverallScore
			}
		}
		n.Model.Tokens[tok] = ts
		n.RunPlays[tok]++
	}

	for _, d := range out.Domains {
		for _, key := range featureKeys(d) {
			f := n.Model.Features[key]
			f.Plays++
			f.Reward += d.OverallScore / 100
			n.Model.Features[key] = f
		}
	}
	n.Model.Elite = mergeElite(n.Model.Elite, out.Domains, plan.Loop, p.EliteCap)

	n.Loop = plan.Loop
	n.Plans = append(n.Plans, plan)
	n.Rewards = append(n.Rewards, r)
	return n, b
}

func featureKeys(d domain.ScoredDomain) []string {
	length := "len:long"
	switch {
	case len(d.Label) <= 6:
		length = "len:short"
	case len(d.Label) <= 10:
		length = "len:mid"
	}
	syl := [...]string{"syl:1", "syl:1", "syl:2", "syl:3", "syl:4+"}[syllableBucket(d.Syllables)]
	word := "word:no"
	if len(d.Words) > 0 {
		word = "word:yes"
	}
	return []string{length, syl, word}
}

// mergeElite adds the loop's available domains, keeps the best score per
// domain and caps the pool.
func mergeElite(elite []domain.EliteDomain, ds []domain.ScoredDomain, loop, limit int) []domain.EliteDomain {
	best := make(map[string]domain.EliteDomain, len(elite)+len(ds))
	for _, e := range elite {
		best[e.Domain] = e
	}
	for _, d := range ds {
		if !d.Available {
			continue
		}
		if e, ok := best[d.Domain]; !ok || d.OverallScore > e.Score {
			best[d.Domain] = domain.EliteDomain{Domain: d.Domain, Score: d.OverallScore, Loop: loop}
		}
	}
	out := make([]domain.EliteDomain, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

package bandit

import (
	"math"
	"sort"

	"domainwizard/internal/domain"
)

// Snapshot returns the model to persist: tokens outside the theme pruned,
// the token table capped to the TokenCap highest-UCB entries, and the run
// counter advanced.
func Snapshot(s Session, p Policy) domain.OptimizerModel {
	m := s.Model.Clone()
	for tok := range m.Tokens {
		if !s.Theme.Contains(tok) {
			delete(m.Tokens, tok)
		}
	}
	if len(m.Tokens) > p.TokenCap {
		total := 0.0
		for _, st := range m.Tokens {
			total += st.Plays
		}
		type scored struct {
			tok string
			ucb float64
		}
		all := make([]scored, 0, len(m.Tokens))
		for tok, st := range m.Tokens {
			all = append(all, scored{tok, ucb(st, total)})
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].ucb != all[j].ucb {
				return all[i].ucb > all[j].ucb
			}
			return all[i].tok < all[j].tok
		})
		for _, sc := range all[p.TokenCap:] {
			delete(m.Tokens, sc.tok)
		}
	}
	m.Runs++
	return m
}

func ucb(st domain.TokenStat, total float64) float64 {
	if st.Plays == 0 {
		return math.Inf(1)
	}
	return st.Reward/st.Plays + math.Sqrt(2*math.Log(total+1)/st.Plays)
}

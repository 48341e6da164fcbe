package bandit

import (
	"sort"

	"domainwizard/internal/domain"
	"domainwizard/internal/randx"
)

// keywordSet is the working set during selection. The first locked entries
// and any pinned token survive the corrective passes.
type keywordSet struct {
	tokens []string
	locked int
	pinned map[string]bool
}

func (k *keywordSet) pin(tok string) {
	if k.pinned == nil {
		k.pinned = make(map[string]bool)
	}
	k.pinned[tok] = true
}

func (k *keywordSet) has(tok string) bool {
	for _, t := range k.tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// candidates returns ranked tokens that are neither in the set nor variants
// of a member.
func (k *keywordSet) candidates(ranked []string, exclude func(string) bool) []string {
	var out []string
	for _, tok := range ranked {
		if k.has(tok) || variantOfAny(tok, k.tokens) || (exclude != nil && exclude(tok)) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// replaceWorst swaps the lowest ranked unlocked member for tok and pins it.
// It appends instead when there is room.
func (k *keywordSet) replaceWorst(tok string, rk ranker, maxK int) bool {
	defer k.pin(tok)
	if len(k.tokens) < maxK {
		k.tokens = append(k.tokens, tok)
		return true
	}
	worst := -1
	for i := k.locked; i < len(k.tokens); i++ {
		if k.pinned[k.tokens[i]] {
			continue
		}
		if worst < 0 || rk.score[k.tokens[i]] < rk.score[k.tokens[worst]] {
			worst = i
		}
	}
	if worst < 0 {
		return false
	}
	k.tokens[worst] = tok
	return true
}

func buildKeywords(s Session, plan domain.LoopPlan, explore bool, r randx.Rand, p Policy) ([]string, randx.Rand) {
	rk := newRanker(s, p)
	ranked := rk.ranked(s.Theme.Tokens)
	maxK := p.MaxKeywords
	minK := min(p.MinKeywords, s.Theme.independent())

	base := s.Seeds
	for _, pl := range s.Plans {
		if pl.Loop == plan.SourceLoop {
			base = pl.Keywords
		}
	}
	base = rk.ranked(dedupe(base))

	set := &keywordSet{}
	if plan.Loop == 1 || plan.SourceLoop == 0 {
		set.tokens = append(set.tokens, base...)
		set.locked = min(p.LockedBudget, len(set.tokens))
	} else {
		keep := max(p.LockedBudget, len(base)-mutationSlots(plan.MutationIntensity))
		keep = min(keep, len(base))
		set.tokens = append(set.tokens, base[:keep]...)
		set.locked = min(p.LockedBudget, len(set.tokens))

		target := max(minK, min(len(base), maxK))
		for len(set.tokens) < target {
			cands := set.candidates(ranked, nil)
			if len(cands) == 0 {
				break
			}
			pick := cands[0]
			if explore {
				pick, r, _ = randx.Pick(r, cands)
			}
			set.tokens = append(set.tokens, pick)
		}
	}

	coverage(s, set, rk, ranked, plan.Burst, p)
	collapseVariants(set, rk)
	capSeeds(s, set, rk, p)
	enforceBounds(s, set, rk, ranked, minK, maxK)
	novelty(s, set, rk, ranked, minK, p)

	return rk.ranked(set.tokens), r
}

// coverage injects the least exposed theme tokens until each has been played
// CoverageTarget times in this run.
func coverage(s Session, set *keywordSet, rk ranker, ranked []string, burst bool, p Policy) {
	under := set.candidates(ranked, func(tok string) bool { return s.RunPlays[tok] >= p.CoverageTarget })
	sort.SliceStable(under, func(i, j int) bool { return s.RunPlays[under[i]] < s.RunPlays[under[j]] })
	n := 1
	if burst {
		n = 2
	}
	for _, tok := range under {
		if n == 0 {
			break
		}
		if variantOfAny(tok, set.tokens) {
			continue
		}
		if !set.replaceWorst(tok, rk, p.MaxKeywords) {
			break
		}
		n--
	}
}

// novelty keeps the set at least NoveltyMin Jaccard distance away from every
// recent loop's set. It swaps shared members for outside tokens, least played
// in this run first. A small theme may run out of outside tokens; the set
// then sheds shared members down to minK.
func novelty(s Session, set *keywordSet, rk ranker, ranked []string, minK int, p Policy) {
	recent := s.recentSets(p.RecentSets)
	for range len(ranked) + len(set.tokens) {
		var clash []string
		for _, prev := range recent {
			if jaccardDistance(set.tokens, prev) < p.NoveltyMin {
				clash = prev
				break
			}
		}
		if clash == nil {
			return
		}
		victim := noveltyVictim(s, set, clash, rk)
		if victim < 0 {
			return
		}
		rest := make([]string, 0, len(set.tokens)-1)
		rest = append(rest, set.tokens[:victim]...)
		rest = append(rest, set.tokens[victim+1:]...)
		locked := set.tokens[:set.locked]
		if victim < set.locked {
			locked = rest[:set.locked-1]
		}
		locked = append([]string(nil), locked...)
		pick, fresh := noveltyPick(s, rest, ranked, recent, clash, p)
		switch {
		case fresh:
			set.tokens, set.locked = reorderLocked(append(rest, pick), locked)
			set.pin(pick)
		case len(rest) >= minK:
			set.tokens, set.locked = reorderLocked(rest, locked)
		case pick != "":
			set.tokens, set.locked = reorderLocked(append(rest, pick), locked)
			set.pin(pick)
		default:
			return
		}
	}
}

// noveltyVictim picks the shared member to give up: unlocked and unpinned
// first, then the most played in this run, then the lowest ranked.
func noveltyVictim(s Session, set *keywordSet, clash []string, rk ranker) int {
	best := -1
	better := func(i, j int) bool {
		pi := i < set.locked || set.pinned[set.tokens[i]]
		pj := j < set.locked || set.pinned[set.tokens[j]]
		if pi != pj {
			return !pi
		}
		a, b := s.RunPlays[set.tokens[i]], s.RunPlays[set.tokens[j]]
		if a != b {
			return a > b
		}
		return rk.score[set.tokens[i]] < rk.score[set.tokens[j]]
	}
	for i, tok := range set.tokens {
		if !contains(clash, tok) {
			continue
		}
		if best < 0 || better(i, best) {
			best = i
		}
	}
	return best
}

// noveltyPick returns the replacement for a shared member and whether it is
// absent from every recent set. Such tokens win over tokens only absent from
// the clashing set.
func noveltyPick(s Session, rest, ranked []string, recent [][]string, clash []string, p Policy) (string, bool) {
	seeds := 0
	for _, tok := range rest {
		if s.Theme.IsSeed(tok) {
			seeds++
		}
	}
	inRecent := func(tok string) bool {
		for _, prev := range recent {
			if contains(prev, tok) {
				return true
			}
		}
		return false
	}
	pick, pickFresh := "", false
	for _, tok := range ranked {
		if contains(rest, tok) || contains(clash, tok) || variantOfAny(tok, rest) {
			continue
		}
		if s.Theme.IsSeed(tok) && seeds >= p.SeedVerbatimCap {
			continue
		}
		fresh := !inRecent(tok)
		switch {
		case pick == "":
		case fresh != pickFresh:
			if !fresh {
				continue
			}
		case s.RunPlays[tok] >= s.RunPlays[pick]:
			continue
		}
		pick, pickFresh = tok, fresh
	}
	return pick, pickFresh
}

// collapseVariants keeps the best ranked member of each variant family.
func collapseVariants(set *keywordSet, rk ranker) {
	lockedTokens := set.tokens[:set.locked]
	var kept []string
	for _, tok := range rk.ranked(set.tokens) {
		if !variantOfAny(tok, kept) {
			kept = append(kept, tok)
		}
	}
	set.tokens, set.locked = reorderLocked(kept, lockedTokens)
}

// capSeeds limits how many raw seed tokens appear verbatim.
func capSeeds(s Session, set *keywordSet, rk ranker, p Policy) {
	seeds := 0
	var kept []string
	for _, tok := range rk.ranked(set.tokens) {
		if s.Theme.IsSeed(tok) {
			if seeds >= p.SeedVerbatimCap {
				continue
			}
			seeds++
		}
		kept = append(kept, tok)
	}
	set.tokens, set.locked = reorderLocked(kept, set.tokens[:set.locked])
}

func enforceBounds(s Session, set *keywordSet, rk ranker, ranked []string, minK, maxK int) {
	if len(set.tokens) > maxK {
		set.tokens = rk.ranked(set.tokens)[:maxK]
		set.locked = 0
	}
	if len(set.tokens) >= minK {
		return
	}
	for _, tok := range set.candidates(ranked, s.Theme.IsSeed) {
		if len(set.tokens) >= minK {
			return
		}
		if !variantOfAny(tok, set.tokens) {
			set.tokens = append(set.tokens, tok)
		}
	}
	for _, tok := range set.candidates(ranked, nil) {
		if len(set.tokens) >= minK {
			return
		}
		if !variantOfAny(tok, set.tokens) {
			set.tokens = append(set.tokens, tok)
		}
	}
}

// reorderLocked moves the surviving locked tokens to the front.
func reorderLocked(tokens, locked []string) ([]string, int) {
	var head, tail []string
	for _, t := range tokens {
		if contains(locked, t) {
			head = append(head, t)
		} else {
			tail = append(tail, t)
		}
	}
	return append(head, tail...), len(head)
}

func jaccardDistance(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for _, t := range a {
		if contains(b, t) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return 1 - float64(inter)/float64(union)
}

func contains(s []string, tok string) bool {
	for _, t := range s {
		if t == tok {
			return true
		}
	}
	return false
}

func dedupe(s []string) []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		if !contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

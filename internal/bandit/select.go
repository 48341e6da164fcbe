package bandit

import (
	"math"
	"sort"

	"domainwizard/internal/domain"
	"domainwizard/internal/randx"
)

// ExplorationRate decays geometrically with the loop index down to a floor.
func ExplorationRate(loop int, p Policy) float64 {
	if loop < 1 {
		loop = 1
	}
	return math.Max(p.ExplorationFloor, p.ExplorationCeil*math.Pow(p.ExplorationDecay, float64(loop-1)))
}

func isBurst(loop int, p Policy) bool {
	return p.BurstInterval > 0 && loop > 1 && loop%p.BurstInterval == 0
}

// SelectNext chooses the plan for the loop after s.Loop.
func SelectNext(s Session, r randx.Rand, p Policy) (domain.LoopPlan, randx.Rand) {
	loop := s.Loop + 1
	plan := domain.LoopPlan{
		Loop:            loop,
		ExplorationRate: ExplorationRate(loop, p),
		Burst:           isBurst(loop, p),
	}

	explore := plan.Burst
	if loop == 1 {
		plan.Style, plan.Randomness = s.Style, s.Randomness
	} else {
		var u float64
		u, r = r.Float64()
		explore = explore || u < plan.ExplorationRate
		if explore {
			plan.Style, r, _ = randx.Pick(r, domain.Styles)
			plan.Randomness, r, _ = randx.Pick(r, domain.RandomnessLevels)
		} else {
			plan.Style, r = thompson(r, domain.Styles, s.Model.Styles)
			plan.Randomness, r = thompson(r, domain.RandomnessLevels, s.Model.Randomness)
		}
	}

	plan.MutationIntensity = intensity(plan.Randomness, plan.Burst)
	plan.SourceLoop = sourceLoop(s, explore)
	plan.Keywords, r = buildKeywords(s, plan, explore, r, p)
	return plan, r
}

// thompson draws one Beta(1+reward, 1+plays-reward) sample per arm and
// returns the argmax. Ties keep the earlier arm.
func thompson[K comparable](r randx.Rand, arms []K, stats map[K]domain.ArmStat) (K, randx.Rand) {
	best := arms[0]
	bestV := -1.0
	for _, a := range arms {
		st := stats[a]
		var v float64
		v, r = r.Beta(1+st.Reward, 1+math.Max(0, st.Plays-st.Reward))
		if v > bestV {
			best, bestV = a, v
		}
	}
	return best, r
}

func intensity(rnd domain.Randomness, burst bool) string {
	if burst {
		return "high"
	}
	switch rnd {
	case domain.RandomnessLow:
		return "low"
	case domain.RandomnessHigh:
		return "high"
	default:
		return "medium"
	}
}

func mutationSlots(intensity string) int {
	switch intensity {
	case "low":
		return 1
	case "high":
		return 3
	default:
		return 2
	}
}

// sourceLoop picks the loop whose keyword set seeds this one: the best
// rewarded loop so far (elite replay) or, when exploring, the previous one.
func sourceLoop(s Session, explore bool) int {
	if len(s.Plans) == 0 {
		return 0
	}
	if explore {
		return s.Plans[len(s.Plans)-1].Loop
	}
	best := 0
	for i := range s.Rewards {
		if s.Rewards[i] >= s.Rewards[best] {
			best = i
		}
	}
	return s.Plans[best].Loop
}

// tokenScore blends average reward, a Wilson lower bound on matched domain
// scores, an exploration bonus, and the repetition penalty.
func tokenScore(s Session, tok string, total float64, p Policy) float64 {
	st := s.Model.Tokens[tok]
	avg := 0.5
	if st.Plays > 0 {
		avg = st.Reward / st.Plays
	}
	wilson := 0.0
	if st.DomainMatches > 0 {
		wilson = wilsonLower(st.DomainScoreSum/float64(st.DomainMatches)/100, float64(st.DomainMatches), p.WilsonZ)
	}
	conf := math.Sqrt(math.Log(total+1) / (st.Plays + 1))
	penalty := 0.0
	if st.ConsecutiveLoops > 0 && st.LastLoop == s.Loop {
		penalty = s.Repetition * p.RepetitionBase * math.Pow(float64(st.ConsecutiveLoops), p.RepetitionExponent)
	}
	return p.WeightAverage*avg + p.WeightWilson*wilson + p.WeightConfidence*conf - penalty
}

func wilsonLower(phat, n, z float64) float64 {
	if n <= 0 {
		return 0
	}
	phat = math.Max(0, math.Min(1, phat))
	z2 := z * z
	centre := phat + z2/(2*n)
	margin := z * math.Sqrt(phat*(1-phat)/n+z2/(4*n*n))
	return math.Max(0, (centre-margin)/(1+z2/n))
}

type ranker struct {
	score map[string]float64
}

func newRanker(s Session, p Policy) ranker {
	total := s.totalTokenPlays()
	r := ranker{score: make(map[string]float64, len(s.Theme.Tokens))}
	for _, tok := range s.Theme.Tokens {
		r.score[tok] = tokenScore(s, tok, total, p)
	}
	return r
}

// ranked returns the theme tokens best first; ties break alphabetically.
func (rk ranker) ranked(tokens []string) []string {
	out := append([]string(nil), tokens...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := rk.score[out[i]], rk.score[out[j]]
		if a != b {
			return a > b
		}
		return out[i] < out[j]
	})
	return out
}

// Package bandit implements the loop optimizer: Thompson sampling over style
// and randomness arms plus a scored, self-correcting keyword selection.
//
// SelectNext and Update are pure. They take a Session and return a new one,
// threading the random state explicitly so that runs replay exactly.
package bandit

import (
	"domainwizard/internal/domain"
)

// Session is the optimizer state of one job.
type Session struct {
	Model domain.OptimizerModel
	Theme Theme

	Seeds      []string
	Style      domain.Style
	Randomness domain.Randomness
	Quota      int
	Budget     float64
	Reward     domain.RewardPolicy
	Repetition float64

	// Loop is the last completed loop; 0 before the first.
	Loop    int
	Plans   []domain.LoopPlan
	Rewards []float64
	// RunPlays counts token selections within this job only.
	RunPlays map[string]int
}

// NewSession seeds a session from the persisted model. Tokens outside the
// theme are dropped and per-run streak fields reset.
func NewSession(model domain.OptimizerModel, theme Theme, in domain.SearchInput) Session {
	m := model.Clone()
	if m.Version != domain.ModelVersion {
		m = domain.NewOptimizerModel()
	}
	for tok, st := range m.Tokens {
		if !theme.Contains(tok) {
			delete(m.Tokens, tok)
			continue
		}
		st.LastLoop, st.ConsecutiveLoops = 0, 0
		m.Tokens[tok] = st
	}
	pol := in.RewardPolicy
	if pol.PerformanceWeight+pol.ExplorationWeight <= 0 {
		pol = domain.RewardPolicy{PerformanceWeight: 0.75, ExplorationWeight: 0.25}
	}
	return Session{
		Model:      m,
		Theme:      theme,
		Seeds:      append([]string(nil), theme.Seeds...),
		Style:      in.Style,
		Randomness: in.Randomness,
		Quota:      in.MaxNames,
		Budget:     in.YearlyBudget,
		Reward:     pol,
		Repetition: in.RepetitionPenalty.Scale(),
		RunPlays:   make(map[string]int),
	}
}

func (s Session) clone() Session {
	out := s
	out.Model = s.Model.Clone()
	out.Plans = append([]domain.LoopPlan(nil), s.Plans...)
	out.Rewards = append([]float64(nil), s.Rewards...)
	out.RunPlays = make(map[string]int, len(s.RunPlays))
	for k, v := range s.RunPlays {
		out.RunPlays[k] = v
	}
	return out
}

// recentSets returns the keyword sets of the last n loops, newest first.
func (s Session) recentSets(n int) [][]string {
	var out [][]string
	for i := len(s.Plans) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.Plans[i].Keywords)
	}
	return out
}

func (s Session) totalTokenPlays() float64 {
	n := 0.0
	for _, st := range s.Model.Tokens {
		n += st.Plays
	}
	return n
}

package bandit

// Policy holds the tunable constants of the optimizer. Every field can be
// overridden from the YAML policy file; zero values fall back to defaults.
type Policy struct {
	ExplorationFloor float64 `yaml:"exploration_floor"`
	ExplorationCeil  float64 `yaml:"exploration_ceil"`
	ExplorationDecay float64 `yaml:"exploration_decay"`
	// BurstInterval forces a random arm draw every N loops; 0 disables bursts.
	BurstInterval int `yaml:"burst_interval"`

	MinKeywords     int     `yaml:"min_keywords"`
	MaxKeywords     int     `yaml:"max_keywords"`
	LockedBudget    int     `yaml:"locked_budget"`
	SeedVerbatimCap int     `yaml:"seed_verbatim_cap"`
	CoverageTarget  int     `yaml:"coverage_target"`
	NoveltyMin      float64 `yaml:"novelty_min"`
	RecentSets      int     `yaml:"recent_sets"`

	WeightAverage    float64 `yaml:"weight_average"`
	WeightWilson     float64 `yaml:"weight_wilson"`
	WeightConfidence float64 `yaml:"weight_confidence"`
	WilsonZ          float64 `yaml:"wilson_z"`

	RepetitionBase     float64 `yaml:"repetition_base"`
	RepetitionExponent float64 `yaml:"repetition_exponent"`
	ReuseDiscount      float64 `yaml:"reuse_discount"`

	WinThreshold float64 `yaml:"win_threshold"`
	TopK         int     `yaml:"top_k"`
	EliteCap     int     `yaml:"elite_cap"`
	TokenCap     int     `yaml:"token_cap"`
}

func DefaultPolicy() Policy {
	return Policy{
		ExplorationFloor: 0.08,
		ExplorationCeil:  0.45,
		ExplorationDecay: 0.85,
		BurstInterval:    4,

		MinKeywords:     2,
		MaxKeywords:     5,
		LockedBudget:    2,
		SeedVerbatimCap: 2,
		CoverageTarget:  2,
		NoveltyMin:      0.34,
		RecentSets:      3,

		WeightAverage:    0.45,
		WeightWilson:     0.25,
		WeightConfidence: 0.35,
		WilsonZ:          1.28,

		RepetitionBase:     0.08,
		RepetitionExponent: 1.3,
		ReuseDiscount:      0.3,

		WinThreshold: 0.55,
		TopK:         5,
		EliteCap:     50,
		TokenCap:     300,
	}
}

// WithDefaults fills zero fields from DefaultPolicy. Exploration and burst
// fields are taken as given when any of them is set, so a policy can turn
// exploration off entirely.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.ExplorationFloor == 0 && p.ExplorationCeil == 0 && p.ExplorationDecay == 0 && p.BurstInterval == 0 {
		p.ExplorationFloor, p.ExplorationCeil, p.ExplorationDecay, p.BurstInterval =
			d.ExplorationFloor, d.ExplorationCeil, d.ExplorationDecay, d.BurstInterval
	}
	if p.ExplorationDecay == 0 {
		p.ExplorationDecay = d.ExplorationDecay
	}
	setInt(&p.MinKeywords, d.MinKeywords)
	setInt(&p.MaxKeywords, d.MaxKeywords)
	if p.MaxKeywords < p.MinKeywords {
		p.MaxKeywords = p.MinKeywords
	}
	setInt(&p.LockedBudget, d.LockedBudget)
	setInt(&p.SeedVerbatimCap, d.SeedVerbatimCap)
	setInt(&p.CoverageTarget, d.CoverageTarget)
	setFloat(&p.NoveltyMin, d.NoveltyMin)
	setInt(&p.RecentSets, d.RecentSets)
	setFloat(&p.WeightAverage, d.WeightAverage)
	setFloat(&p.WeightWilson, d.WeightWilson)
	setFloat(&p.WeightConfidence, d.WeightConfidence)
	setFloat(&p.WilsonZ, d.WilsonZ)
	setFloat(&p.RepetitionBase, d.RepetitionBase)
	setFloat(&p.RepetitionExponent, d.RepetitionExponent)
	setFloat(&p.ReuseDiscount, d.ReuseDiscount)
	setFloat(&p.WinThreshold, d.WinThreshold)
	setInt(&p.TopK, d.TopK)
	setInt(&p.EliteCap, d.EliteCap)
	setInt(&p.TokenCap, d.TokenCap)
	return p
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setFloat(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

package bandit

import (
	"sync"
	"time"

	"domainwizard/internal/domain"
	"domainwizard/internal/logger"
	"domainwizard/internal/randx"
)

// Optimizer wraps a Session and its random state for the job runner.
type Optimizer struct {
	mu     sync.Mutex
	policy Policy
	sess   Session
	rnd    randx.Rand
	log    logger.Logger
}

func NewOptimizer(model domain.OptimizerModel, theme Theme, in domain.SearchInput, policy Policy, seed uint64, log logger.Logger) *Optimizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Optimizer{
		policy: policy.WithDefaults(),
		sess:   NewSession(model, theme, in),
		rnd:    randx.New(seed),
		log:    log,
	}
}

// Next returns the plan for the next loop.
func (o *Optimizer) Next() domain.LoopPlan {
	o.mu.Lock()
	defer o.mu.Unlock()
	plan, r := SelectNext(o.sess, o.rnd, o.policy)
	o.rnd = r
	o.log.Debug("loop planned",
		logger.Int("loop", plan.Loop),
		logger.String("style", string(plan.Style)),
		logger.String("randomness", string(plan.Randomness)),
		logger.Strings("keywords", plan.Keywords),
		logger.Float64("exploration_rate", plan.ExplorationRate),
	)
	return plan
}

// Record applies the loop outcome and returns the reward breakdown.
func (o *Optimizer) Record(plan domain.LoopPlan, out Outcome) Breakdown {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, b := Update(o.sess, plan, out, o.policy)
	o.sess = next
	o.log.Debug("loop recorded",
		logger.Int("loop", plan.Loop),
		logger.Float64("reward", b.Reward),
		logger.Float64("performance", b.Performance),
		logger.Float64("exploration", b.Exploration),
	)
	return b
}

// Snapshot returns the pruned model ready to persist.
func (o *Optimizer) Snapshot(now time.Time) domain.OptimizerModel {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := Snapshot(o.sess, o.policy)
	m.UpdatedAt = now
	return m
}

func (o *Optimizer) Theme() Theme {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.Theme
}

// Session returns a copy of the current state.
func (o *Optimizer) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.clone()
}

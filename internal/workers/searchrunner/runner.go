// Package searchrunner executes the loops of one search job: plan, generate,
// resolve, score, record, snapshot. It reports every state change as a
// domain.Transition and leaves the terminal transition to the caller.
package searchrunner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"domainwizard/internal/availability"
	"domainwizard/internal/bandit"
	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
	"domainwizard/internal/generator"
	"domainwizard/internal/logger"
	"domainwizard/internal/metrics"
	"domainwizard/internal/ports"
	"domainwizard/internal/randx"
	"domainwizard/internal/results"
	"domainwizard/internal/scoring"
)

const (
	// DefaultEnrichLimit bounds how many available domains are enriched.
	DefaultEnrichLimit = 50
	relatedSeeds       = 3
	relatedPerSeed     = 8
)

// Deps are the collaborators of a Runner. Only Engine is required; nil
// collaborators are skipped.
type Deps struct {
	Engine   *engine.Context
	NameGen  ports.NameGenerator
	Backend  ports.AvailabilityBackend
	RDAP     ports.RDAP
	Dev      ports.DevEcosystem
	Archive  ports.Archive
	Words    ports.WordAssociation
	Models   ports.ModelStore
	ModelKey string
	Policy   bandit.Policy

	// Availability carries pacing and the default backend base URL, used
	// when the input names none.
	Availability   availability.Options
	InterLoopDelay time.Duration
	EnrichLimit    int

	Now  func() time.Time
	Seed func() uint64
}

type Runner struct {
	d      Deps
	scorer *scoring.Scorer
}

func New(d Deps) *Runner {
	if d.ModelKey == "" {
		d.ModelKey = ports.DefaultModelKey
	}
	if d.EnrichLimit <= 0 {
		d.EnrichLimit = DefaultEnrichLimit
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Seed == nil {
		d.Seed = func() uint64 { return uint64(time.Now().UnixNano()) }
	}
	d.Policy = d.Policy.WithDefaults()
	return &Runner{d: d, scorer: scoring.NewScorer(d.Engine)}
}

// Emit receives every non-terminal transition of the job.
type Emit func(domain.Transition)

// Progress maps completed loops plus the fraction of the current loop onto
// 5..95, leaving the ends for startup and finalisation.
func Progress(loopsDone int, frac float64, total int) int {
	if total <= 0 {
		return 5
	}
	frac = math.Max(0, math.Min(1, frac))
	return int(math.Round(5 + 90*(float64(loopsDone)+frac)/float64(total)))
}

// job is the state of one Run.
type job struct {
	in      domain.SearchInput
	cancel  *domain.CancelToken
	emit    Emit
	log     logger.Logger
	opt     *bandit.Optimizer
	gen     *generator.Generator
	res     *availability.Resolver
	agg     *results.Aggregator
	rnd     randx.Rand
	loop    int
	lastPct int
}

// Run executes every loop of in. It returns the final results, or an error
// carrying a domain code; a panic in the loop body becomes INTERNAL_ERROR.
func (r *Runner) Run(ctx context.Context, jobID string, in domain.SearchInput, cancel *domain.CancelToken, emit Emit) (res *domain.Results, err error) {
	log := r.d.Engine.Logger.With(logger.String("job_id", jobID))
	defer func() {
		if p := recover(); p != nil {
			log.Error("search loop panicked", logger.String("panic", fmt.Sprint(p)))
			err = domain.NewError(domain.CodeInternal, fmt.Sprintf("internal error: %v", p))
		}
	}()
	if emit == nil {
		emit = func(domain.Transition) {}
	}

	j := &job{in: in, cancel: cancel, emit: emit, log: log}
	if err := r.setup(ctx, j); err != nil {
		return nil, err
	}
	j.advance(domain.PhaseGeneration, 5, r.d.Now())

	for loop := 1; loop <= in.LoopCount; loop++ {
		if err := cancel.Check(); err != nil {
			return nil, err
		}
		if err := r.runLoop(ctx, j, loop); err != nil {
			return nil, err
		}
		if loop < in.LoopCount && r.d.InterLoopDelay > 0 {
			if err := pause(ctx, cancel, r.d.InterLoopDelay); err != nil {
				return nil, err
			}
		}
	}

	if err := r.enrich(ctx, j); err != nil {
		return nil, err
	}
	r.persist(ctx, j)
	return j.agg.Snapshot(), nil
}

func (r *Runner) setup(ctx context.Context, j *job) error {
	model := domain.NewOptimizerModel()
	if r.d.Models != nil {
		m, found, err := r.d.Models.Load(ctx, r.d.ModelKey)
		switch {
		case err != nil:
			metrics.CollaboratorErrors.WithLabelValues("model_store").Inc()
			j.log.Warn("optimizer model unavailable, starting fresh", logger.Error(err))
		case found:
			model = m
		}
	}

	theme := bandit.BuildTheme(r.d.Engine.Lexicon, j.in, r.related(ctx, j))
	seed := r.d.Seed()
	j.opt = bandit.NewOptimizer(model, theme, j.in, r.d.Policy, seed, j.log)
	j.rnd = randx.New(seed ^ 0x9e3779b97f4a7c15)
	j.gen = generator.New(r.d.Engine, r.d.NameGen, j.in)
	j.agg = results.New(j.in.YearlyBudget, j.in.MaxNames)

	opts := r.d.Availability
	if j.in.BackendURL != "" {
		opts.BaseURL = j.in.BackendURL
	}
	j.res = availability.NewResolver(r.d.Backend, r.d.RDAP, j.log, opts)

	j.log.Info("search started",
		logger.Strings("seeds", theme.Seeds),
		logger.Int("theme_tokens", len(theme.Tokens)),
		logger.Int("loops", j.in.LoopCount),
		logger.Int("model_runs", model.Runs),
	)
	return j.cancel.Check()
}

// related asks the word-association service for theme expansions.
func (r *Runner) related(ctx context.Context, j *job) []string {
	if r.d.Words == nil {
		return nil
	}
	var out []string
	for i, seed := range j.in.KeywordTokens {
		if i == relatedSeeds {
			break
		}
		words, err := r.d.Words.Related(ctx, seed, relatedPerSeed)
		if err != nil {
			metrics.CollaboratorErrors.WithLabelValues("word_association").Inc()
			j.log.Warn("word association failed", logger.String("seed", seed), logger.Error(err))
			continue
		}
		out = append(out, words...)
	}
	return out
}

func (r *Runner) runLoop(ctx context.Context, j *job, loop int) error {
	started := time.Now()
	total := j.in.LoopCount
	done := loop - 1
	j.loop = loop

	plan := j.opt.Next()
	j.advance(domain.PhaseGeneration, Progress(done, 0, total), r.d.Now())

	var cands []domain.Candidate
	cands, j.rnd = j.gen.Generate(ctx, plan, j.rnd)
	j.advance(domain.PhaseAvailability, Progress(done, 0.2, total), r.d.Now())

	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Domain
	}
	avail, err := j.res.Resolve(ctx, names, j.cancel, func(n, of int) {
		if of > 0 {
			j.advance(domain.PhaseAvailability, Progress(done, 0.2+0.7*float64(n)/float64(of), total), r.d.Now())
		}
	})
	if err != nil {
		return err
	}

	loopDomains := make([]domain.ScoredDomain, 0, len(cands))
	for _, c := range cands {
		a, ok := avail[strings.ToLower(c.Domain)]
		if !ok {
			a = domain.AvailabilityResult{Reason: availability.ReasonNoData}
		}
		sd := r.scorer.Score(scoring.Input{
			Domain:       c.Domain,
			SourceName:   c.SourceName,
			Availability: a,
			Keywords:     j.in.KeywordTokens,
		})
		loopDomains = append(loopDomains, j.agg.Add(sd, loop))
	}

	b := j.opt.Record(plan, bandit.Outcome{Domains: loopDomains})
	summary := summarize(plan, b.Reward, loopDomains, j.in.YearlyBudget)
	j.agg.RecordLoop(plan, summary)

	now := r.d.Now()
	j.advance(domain.PhaseLooping, Progress(loop, 0, total), now)
	j.emit(domain.Published(j.agg.Snapshot(), now))

	metrics.RecordLoop(b.Reward, time.Since(started).Seconds())
	j.log.Info("loop complete",
		logger.Int("loop", loop),
		logger.String("style", string(plan.Style)),
		logger.Strings("keywords", plan.Keywords),
		logger.Int("generated", summary.Generated),
		logger.Int("available", summary.Available),
		logger.Int("within_budget", summary.WithinBudget),
		logger.Float64("reward", b.Reward),
	)
	return nil
}

func summarize(plan domain.LoopPlan, reward float64, ds []domain.ScoredDomain, budget float64) domain.LoopSummary {
	s := domain.LoopSummary{
		Loop:       plan.Loop,
		Keywords:   append([]string(nil), plan.Keywords...),
		Style:      plan.Style,
		Randomness: plan.Randomness,
		Reward:     reward,
		Generated:  len(ds),
	}
	for _, d := range ds {
		if !d.Available {
			continue
		}
		s.Available++
		if d.WithinBudget(budget) {
			s.WithinBudget++
		}
		if d.OverallScore > s.TopScore {
			s.TopScore = d.OverallScore
			s.TopDomain = d.Domain
		}
	}
	return s
}

// enrich folds external signals into the best available domains and
// rescores them. Lookup failures only skip the signal.
func (r *Runner) enrich(ctx context.Context, j *job) error {
	if r.d.Dev == nil && r.d.Archive == nil {
		return nil
	}
	now := r.d.Now()
	j.advance(domain.PhaseEnrichment, 96, now)

	avail := j.agg.Available()
	sort.Slice(avail, func(a, b int) bool {
		if avail[a].OverallScore != avail[b].OverallScore {
			return avail[a].OverallScore > avail[b].OverallScore
		}
		return avail[a].Domain < avail[b].Domain
	})
	if len(avail) > r.d.EnrichLimit {
		avail = avail[:r.d.EnrichLimit]
	}

	for _, d := range avail {
		if err := j.cancel.Check(); err != nil {
			return err
		}
		var e scoring.Enrichment
		if r.d.Dev != nil {
			word := scoring.PrimaryWord(d)
			n, err := r.d.Dev.Popularity(ctx, word)
			if err != nil {
				metrics.CollaboratorErrors.WithLabelValues("dev_ecosystem").Inc()
				j.log.Debug("dev popularity lookup failed", logger.String("word", word), logger.Error(err))
			} else {
				e.DevPopularity = &n
			}
		}
		if r.d.Archive != nil {
			ok, err := r.d.Archive.HasSnapshot(ctx, d.Domain)
			if err != nil {
				metrics.CollaboratorErrors.WithLabelValues("archive").Inc()
				j.log.Debug("archive lookup failed", logger.String("domain", d.Domain), logger.Error(err))
			} else {
				e.Archived = &ok
			}
		}
		if e.DevPopularity == nil && e.Archived == nil {
			continue
		}
		j.agg.Replace(r.scorer.Rescore(d, j.in.KeywordTokens, e))
	}
	j.emit(domain.Published(j.agg.Snapshot(), r.d.Now()))
	return nil
}

// persist writes the optimizer model once, after the last loop. A failed
// write is logged and does not fail the job.
func (r *Runner) persist(ctx context.Context, j *job) {
	j.advance(domain.PhaseFinalize, 98, r.d.Now())
	if r.d.Models == nil {
		return
	}
	m := j.opt.Snapshot(r.d.Now())
	if err := r.d.Models.Save(ctx, r.d.ModelKey, m); err != nil {
		metrics.CollaboratorErrors.WithLabelValues("model_store").Inc()
		j.log.Error("save optimizer model", logger.Error(err))
		return
	}
	j.log.Info("optimizer model saved",
		logger.Int("runs", m.Runs), logger.Int("tokens", len(m.Tokens)), logger.Int("elite", len(m.Elite)))
}

func (j *job) advance(phase domain.Phase, pct int, at time.Time) {
	if pct < j.lastPct {
		pct = j.lastPct
	}
	j.lastPct = pct
	j.emit(domain.Advanced(phase, j.loop, pct, at))
}

func pause(ctx context.Context, cancel *domain.CancelToken, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cancel.Done():
		return domain.ErrCanceled
	case <-t.C:
		return nil
	}
}

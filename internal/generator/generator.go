// Package generator produces candidate domains for a loop plan, from the
// remote name-generation service when it answers and from local templates
// otherwise.
package generator

import (
	"context"
	"regexp"
	"strings"

	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
	"domainwizard/internal/logger"
	"domainwizard/internal/metrics"
	"domainwizard/internal/ports"
	"domainwizard/internal/randx"
	"domainwizard/internal/scoring"
)

const (
	// CandidateFactor is the multiple of MaxNames generated per loop.
	CandidateFactor   = 3
	minNaturalness    = 0.35
	maxPrevNames      = 300
	attemptsPerTarget = 12
)

var validLabel = regexp.MustCompile(`^[a-z0-9]+$`)

// Generator holds the per-run seen set. Use one per job.
type Generator struct {
	ctx    *engine.Context
	remote ports.NameGenerator
	in     domain.SearchInput
	seen   map[string]struct{}
	order  []string
}

// New returns a generator for one job. remote may be nil.
func New(ctx *engine.Context, remote ports.NameGenerator, in domain.SearchInput) *Generator {
	return &Generator{ctx: ctx, remote: remote, in: in, seen: make(map[string]struct{})}
}

func (g *Generator) Target() int { return g.in.MaxNames * CandidateFactor }

// Generate returns up to Target unique candidates never returned before in
// this run.
func (g *Generator) Generate(ctx context.Context, plan domain.LoopPlan, r randx.Rand) ([]domain.Candidate, randx.Rand) {
	if g.remote != nil {
		out, err := g.generateRemote(ctx, plan)
		if err != nil {
			metrics.CollaboratorErrors.WithLabelValues("namegen").Inc()
			g.ctx.Logger.Warn("name generation unavailable, using local synthesis",
				logger.Int("loop", plan.Loop), logger.Error(err))
		}
		if len(out) > 0 {
			metrics.CandidatesGenerated.WithLabelValues("remote").Add(float64(len(out)))
			return out, r
		}
	}
	out, r := g.synthesize(plan, r)
	metrics.CandidatesGenerated.WithLabelValues("local").Add(float64(len(out)))
	return out, r
}

func (g *Generator) generateRemote(ctx context.Context, plan domain.LoopPlan) ([]domain.Candidate, error) {
	prev := g.order
	if len(prev) > maxPrevNames {
		prev = prev[len(prev)-maxPrevNames:]
	}
	names, err := g.remote.Generate(ctx, ports.NameRequest{
		Keywords:    strings.Join(plan.Keywords, " "),
		Description: g.in.Description,
		Blacklist:   g.in.Blacklist,
		MaxLength:   g.in.MaxLength,
		TLD:         g.in.TLD,
		Style:       plan.Style,
		Randomness:  plan.Randomness,
		MaxNames:    g.Target(),
		PrevNames:   append([]string(nil), prev...),
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Candidate
	for _, n := range names {
		label, _ := domain.SplitDomain(strings.ToLower(strings.TrimSpace(n.Domain)))
		if !g.accept(label, false) {
			continue
		}
		c := domain.Candidate{Domain: label + "." + g.in.TLD, SourceName: n.SourceName, Source: n.Source}
		if c.Source == "" {
			c.Source = "remote"
		}
		if g.remember(c.Domain) {
			out = append(out, c)
		}
		if len(out) >= g.Target() {
			break
		}
	}
	return out, nil
}

func (g *Generator) synthesize(plan domain.LoopPlan, r randx.Rand) ([]domain.Candidate, randx.Rand) {
	pool := plan.Keywords
	if len(pool) == 0 {
		pool = g.in.KeywordTokens
	}
	target := g.Target()
	var out []domain.Candidate
	for attempt := 0; attempt < target*attemptsPerTarget && len(out) < target; attempt++ {
		var label, source string
		label, source, r = compose(pool, plan.Style, plan.Randomness, r)
		if !g.accept(label, g.in.PreferEnglish) {
			continue
		}
		c := domain.Candidate{Domain: label + "." + g.in.TLD, SourceName: label, Source: source}
		if g.remember(c.Domain) {
			out = append(out, c)
		}
	}
	return out, r
}

// accept applies the length, charset, blacklist, repetition and optional
// naturalness filters.
func (g *Generator) accept(label string, naturalOnly bool) bool {
	if len(label) < 3 || len(label) > g.in.MaxLength || !validLabel.MatchString(label) {
		return false
	}
	for _, b := range g.in.Blacklist {
		if b != "" && strings.Contains(label, b) {
			return false
		}
	}
	if doubledMorpheme(label) {
		return false
	}
	if naturalOnly && scoring.Naturalness(g.ctx.Lexicon, label) < minNaturalness {
		return false
	}
	return true
}

func (g *Generator) remember(name string) bool {
	key := strings.ToLower(name)
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	g.order = append(g.order, key)
	return true
}

// Seen reports how many distinct domains this run has produced.
func (g *Generator) Seen() int { return len(g.seen) }

// doubledMorpheme reports an immediately repeated chunk of 3+ letters, as in
// "brewbrew" or "roastroastery".
func doubledMorpheme(s string) bool {
	for n := 3; n*2 <= len(s); n++ {
		for i := 0; i+2*n <= len(s); i++ {
			if s[i:i+n] == s[i+n:i+2*n] {
				return true
			}
		}
	}
	return false
}

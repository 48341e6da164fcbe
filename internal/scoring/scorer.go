// Package scoring turns a domain label into explainable sub-scores, composite
// scores and a fair-value estimate. Everything here is pure given the lexicon.
package scoring

import (
	"math"
	"strings"
	"sync"

	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
)

// UnderpricedRatio is the fair-value to price ratio that flags a bargain.
const UnderpricedRatio = 3.0

// Enrichment carries the optional external signals folded into a rescore.
type Enrichment struct {
	DevPopularity *int
	Archived      *bool
}

type Input struct {
	Domain       string
	SourceName   string
	Availability domain.AvailabilityResult
	// Keywords are the seed tokens; a label containing one earns an SEO driver.
	Keywords   []string
	Enrichment Enrichment
}

type Scorer struct {
	ctx *engine.Context

	compsOnce sync.Once
	comps     []compFeatures
}

func NewScorer(ctx *engine.Context) *Scorer {
	return &Scorer{ctx: ctx}
}

func (s *Scorer) comparables() []compFeatures {
	s.compsOnce.Do(func() { s.comps = buildComps(s.ctx.Lexicon) })
	return s.comps
}

// Score evaluates one domain. Discovery counters are left zero for the
// caller to fill.
func (s *Scorer) Score(in Input) domain.ScoredDomain {
	name := strings.ToLower(strings.TrimSpace(in.Domain))
	label, tld := domain.SplitDomain(name)
	a := analyze(s.ctx.Lexicon, label, tld, in.Keywords)
	val := value(a, s.comparables(), in.Availability.Price)

	d := domain.ScoredDomain{
		Domain:              name,
		SourceName:          in.SourceName,
		Label:               label,
		TLD:                 tld,
		AvailabilityResult:  in.Availability,
		Words:               a.seg.Words,
		SegmentationQuality: round3(a.seg.Quality),
		Syllables:           a.syllables,
		Phonetic:            phonetic(a),
		Brandability:        brandability(a),
		SEO:                 seo(a),
		Commercial:          commercial(a),
		Memorability:        memorability(a),
		Financial:           financial(a, val.EstimatedValue, in.Availability.Price),
		Valuation:           val,
	}
	if val.ValueRatio != nil && *val.ValueRatio >= UnderpricedRatio {
		d.Underpriced = true
	}
	foldEnrichment(&d, in.Enrichment)
	composite(&d)
	return d
}

// Rescore recomputes d with enrichment folded in, keeping discovery counters.
func (s *Scorer) Rescore(d domain.ScoredDomain, keywords []string, e Enrichment) domain.ScoredDomain {
	out := s.Score(Input{
		Domain:       d.Domain,
		SourceName:   d.SourceName,
		Availability: d.AvailabilityResult,
		Keywords:     keywords,
		Enrichment:   e,
	})
	out.FirstSeenLoop = d.FirstSeenLoop
	out.LastSeenLoop = d.LastSeenLoop
	out.TimesDiscovered = d.TimesDiscovered
	return out
}

func foldEnrichment(d *domain.ScoredDomain, e Enrichment) {
	if e.DevPopularity != nil {
		n := *e.DevPopularity
		d.DevPopularity = &n
		if n > 0 {
			d.SEO = bump(d.SEO, "developer ecosystem interest", math.Min(10, math.Log10(float64(n)+1)*2.5))
		}
	}
	if e.Archived != nil {
		v := *e.Archived
		d.Archived = &v
		if v {
			d.Financial = bump(d.Financial, "archive history", 5)
		}
	}
}

func bump(s domain.SubScore, name string, impact float64) domain.SubScore {
	t := &tally{score: s.Score}
	t.drivers = append(t.drivers, s.Drivers...)
	t.detractors = append(t.detractors, s.Detractors...)
	t.add(name, impact)
	return t.result()
}

// composite fills the blended scores. OverallScore never reads the asking
// price so ranking is price independent.
func composite(d *domain.ScoredDomain) {
	vs := valuationScore(d.Valuation.EstimatedValue)
	d.MarketabilityScore = round1(0.2*d.Phonetic.Score + 0.25*d.Brandability.Score +
		0.15*d.SEO.Score + 0.15*d.Commercial.Score + 0.25*d.Memorability.Score)
	d.FinancialValueScore = round1(0.35*d.Financial.Score + 0.25*d.Commercial.Score +
		0.2*d.SEO.Score + 0.2*vs)
	d.OverallScore = round1(clamp(0.18*d.Phonetic.Score+0.2*d.Brandability.Score+
		0.14*d.SEO.Score+0.16*d.Commercial.Score+0.17*d.Memorability.Score+0.15*vs, 0, 100))
}

// PrimaryWord is the longest segmented word of d, or its label when the
// label did not segment.
func PrimaryWord(d domain.ScoredDomain) string {
	best := ""
	for _, w := range d.Words {
		if len(w) > len(best) {
			best = w
		}
	}
	if best == "" {
		return d.Label
	}
	return best
}

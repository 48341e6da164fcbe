package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
	"domainwizard/internal/lexicon"
)

func price(v float64) *float64 { return &v }

func TestSegment_DictionaryCompound(t *testing.T) {
	lx := lexicon.MustShared()
	s := Segment(lx, "coffeeroast")
	assert.Equal(t, []string{"coffee", "roast"}, s.Words)
	assert.InDelta(t, 1.0, s.Coverage, 1e-9)
	assert.InDelta(t, 1.0, s.Quality, 1e-9)
	assert.InDelta(t, 4.8, s.MaxFrequency, 1e-9)
}

func TestSegment_IsTotalAndBounded(t *testing.T) {
	lx := lexicon.MustShared()
	for _, label := range []string{"xqzv", "brewhubzz", "cloud-jet9", "a", "streamcoffeebrewhub", "zzzzzzzzzzzz"} {
		s := Segment(lx, label)
		assert.Equal(t, letters(label), strings.Join(s.Parts, ""), label)
		assert.GreaterOrEqual(t, s.Quality, 0.0, label)
		assert.LessOrEqual(t, s.Quality, 1.0, label)
	}
	assert.Empty(t, Segment(lx, "123").Parts)
	assert.Empty(t, Segment(lx, "xqzv").Words)
}

func TestSegment_Deterministic(t *testing.T) {
	lx := lexicon.MustShared()
	assert.Equal(t, Segment(lx, "jetstreamhub"), Segment(lx, "jetstreamhub"))
}

func TestSegment_LongWordsPenalisedByCount(t *testing.T) {
	lx := lexicon.MustShared()
	two := Segment(lx, "cloudjet")
	four := Segment(lx, "cloudjetbrewhub")
	require.Len(t, four.Words, 4)
	assert.Greater(t, two.Quality, four.Quality)
}

func TestSyllables(t *testing.T) {
	cases := map[string]int{"coffee": 2, "roast": 1, "banana": 3, "make": 1, "table": 2, "": 0, "xyz": 1, "brwn": 1}
	for in, want := range cases {
		assert.Equal(t, want, Syllables(in), in)
	}
}

func TestNaturalness(t *testing.T) {
	lx := lexicon.MustShared()
	nat := Naturalness(lx, "coffee")
	odd := Naturalness(lx, "xqzvkj")
	assert.Greater(t, nat, odd)
	assert.GreaterOrEqual(t, odd, 0.0)
	assert.LessOrEqual(t, nat, 1.0)
}

func TestScore_RangesAndExplanations(t *testing.T) {
	s := NewScorer(engine.MustNew())
	for _, name := range []string{"coffeeroast.com", "xq-9zv.biz", "brew.io", "streamcoffeebrewhubcloud.xyz"} {
		d := s.Score(Input{Domain: name, Availability: domain.AvailabilityResult{Available: true, Definitive: true}})
		for _, sub := range []domain.SubScore{d.Phonetic, d.Brandability, d.SEO, d.Commercial, d.Memorability, d.Financial} {
			assert.GreaterOrEqual(t, sub.Score, 0.0, name)
			assert.LessOrEqual(t, sub.Score, 100.0, name)
			for _, f := range sub.Drivers {
				assert.Positive(t, f.Impact)
			}
			for _, f := range sub.Detractors {
				assert.Negative(t, f.Impact)
			}
		}
		assert.GreaterOrEqual(t, d.OverallScore, 0.0)
		assert.LessOrEqual(t, d.OverallScore, 100.0)
		assert.Len(t, d.Valuation.Comparables, nearestComps)
		assert.LessOrEqual(t, d.Valuation.ValueLow, d.Valuation.EstimatedValue)
		assert.GreaterOrEqual(t, d.Valuation.ValueHigh, d.Valuation.EstimatedValue)
		assert.LessOrEqual(t, d.Valuation.SaleProb12, d.Valuation.SaleProb24)
		assert.LessOrEqual(t, d.Valuation.SaleProb24, d.Valuation.SaleProb36)
	}
}

func TestScore_OverallIgnoresPrice(t *testing.T) {
	s := NewScorer(engine.MustNew())
	cheap := s.Score(Input{Domain: "brewhub.com", Availability: domain.AvailabilityResult{Available: true, Price: price(5)}})
	dear := s.Score(Input{Domain: "brewhub.com", Availability: domain.AvailabilityResult{Available: true, Price: price(50000)}})

	assert.Equal(t, cheap.OverallScore, dear.OverallScore)
	assert.Equal(t, cheap.MarketabilityScore, dear.MarketabilityScore)
	assert.Greater(t, cheap.FinancialValueScore, dear.FinancialValueScore)
	require.NotNil(t, cheap.Valuation.ValueRatio)
	assert.True(t, cheap.Underpriced)
	assert.False(t, dear.Underpriced)
	require.NotNil(t, dear.Valuation.ROI)
	assert.Negative(t, *dear.Valuation.ROI)
}

func TestScore_RealWordsBeatNoise(t *testing.T) {
	s := NewScorer(engine.MustNew())
	good := s.Score(Input{Domain: "coffeeroast.com"})
	bad := s.Score(Input{Domain: "xqzvkjw.com"})
	assert.Greater(t, good.OverallScore, bad.OverallScore)
	assert.Greater(t, good.Valuation.EstimatedValue, bad.Valuation.EstimatedValue)
}

func TestScore_KeywordDriver(t *testing.T) {
	s := NewScorer(engine.MustNew())
	with := s.Score(Input{Domain: "coffeeroast.com", Keywords: []string{"coffee"}})
	without := s.Score(Input{Domain: "coffeeroast.com"})
	assert.Contains(t, factorNames(with.SEO.Drivers), "contains seed keyword")
	assert.NotContains(t, factorNames(without.SEO.Drivers), "contains seed keyword")
}

func factorNames(fs []domain.Factor) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func TestRescore_FoldsEnrichmentAndKeepsCounters(t *testing.T) {
	s := NewScorer(engine.MustNew())
	d := s.Score(Input{Domain: "cloudjet.io", Availability: domain.AvailabilityResult{Available: true}})
	d.FirstSeenLoop, d.LastSeenLoop, d.TimesDiscovered = 1, 3, 2

	repos, archived := 5000, true
	r := s.Rescore(d, nil, Enrichment{DevPopularity: &repos, Archived: &archived})
	assert.Equal(t, 1, r.FirstSeenLoop)
	assert.Equal(t, 3, r.LastSeenLoop)
	assert.Equal(t, 2, r.TimesDiscovered)
	require.NotNil(t, r.DevPopularity)
	assert.Equal(t, 5000, *r.DevPopularity)
	assert.GreaterOrEqual(t, r.SEO.Score, d.SEO.Score)
	assert.GreaterOrEqual(t, r.Financial.Score, d.Financial.Score)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, "high", confidence(effectiveRMSE(1, 1)))
	assert.Equal(t, "low", confidence(effectiveRMSE(0, 4)))
}

func TestPrimaryWord(t *testing.T) {
	assert.Equal(t, "coffee", PrimaryWord(domain.ScoredDomain{Label: "getcoffee", Words: []string{"get", "coffee"}}))
	assert.Equal(t, "xqzv", PrimaryWord(domain.ScoredDomain{Label: "xqzv"}))
}

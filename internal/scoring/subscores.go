package scoring

import (
	"math"
	"sort"

	"domainwizard/internal/domain"
	"domainwizard/internal/lexicon"
)

// tally accumulates named contributions on top of a base score.
type tally struct {
	score      float64
	drivers    []domain.Factor
	detractors []domain.Factor
}

func newTally(base float64) *tally { return &tally{score: base} }

func (t *tally) add(name string, impact float64) {
	impact = round1(impact)
	if impact == 0 {
		return
	}
	t.score += impact
	if impact > 0 {
		t.drivers = append(t.drivers, domain.Factor{Name: name, Impact: impact})
	} else {
		t.detractors = append(t.detractors, domain.Factor{Name: name, Impact: impact})
	}
}

func (t *tally) result() domain.SubScore {
	sort.SliceStable(t.drivers, func(i, j int) bool { return t.drivers[i].Impact > t.drivers[j].Impact })
	sort.SliceStable(t.detractors, func(i, j int) bool { return t.detractors[i].Impact < t.detractors[j].Impact })
	return domain.SubScore{
		Score:      round1(clamp(t.score, 0, 100)),
		Drivers:    t.drivers,
		Detractors: t.detractors,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func phonetic(a analysis) domain.SubScore {
	t := newTally(45)
	t.add("natural letter patterns", 35*a.naturalness-10)

	vr := vowelRatio(a.letters)
	switch {
	case vr >= 0.3 && vr <= 0.6:
		t.add("balanced vowels", 10)
	case vr < 0.3:
		t.add("too few vowels", -(0.3-vr)*60)
	default:
		t.add("too many vowels", -(vr-0.6)*40)
	}
	if run := maxConsonantRun(a.letters); run > 3 {
		t.add("consonant cluster", -float64(run-3)*8)
	}
	switch {
	case a.syllables >= 2 && a.syllables <= 3:
		t.add("easy rhythm", 10)
	case a.syllables > 4:
		t.add("many syllables", -float64(a.syllables-4)*6)
	}
	if a.hasDigit {
		t.add("contains digits", -10)
	}
	if a.hasHyphen {
		t.add("contains hyphen", -8)
	}
	return t.result()
}

func brandability(a analysis) domain.SubScore {
	t := newTally(35)
	switch {
	case a.length < 4:
		t.add("very short", -10)
	case a.length <= 8:
		t.add("ideal brand length", 20)
	case a.length <= 12:
		t.add("workable length", 5)
	default:
		t.add("long name", -float64(a.length-12)*4)
	}
	if a.syllables >= 2 && a.syllables <= 3 {
		t.add("two or three syllables", 15)
	}
	t.add("pronounceable", 20*a.naturalness)
	switch {
	case len(a.seg.Words) == 1 && a.seg.Coverage == 1:
		t.add("single real word", 12)
	case a.seg.Coverage < 0.5 && a.naturalness > 0.5:
		t.add("invented but pronounceable", 10)
	}
	if a.hasDigit || a.hasHyphen {
		t.add("digits or hyphens", -15)
	}
	if a.tldTier == 1 {
		t.add("premium extension", 8)
	}
	return t.result()
}

func seo(a analysis) domain.SubScore {
	t := newTally(20)
	t.add("keyword segmentation", 40*a.seg.Coverage)
	if n := len(a.seg.Words); n >= 1 && n <= 2 {
		t.add("few search terms", 10)
	} else if n > 3 {
		t.add("fragmented terms", -float64(n-3)*5)
	}
	if a.seg.MaxFrequency > 0 {
		t.add("search volume proxy", math.Min(20, (a.seg.MaxFrequency-2)*6))
	}
	if a.cpcTier > 0 {
		t.add("commercial search intent", 10)
	}
	if a.keywordHit {
		t.add("contains seed keyword", 15)
	}
	if a.hasHyphen {
		t.add("contains hyphen", -5)
	}
	if a.tldTier == 1 {
		t.add("trusted extension", 10)
	} else if a.tldTier >= 4 {
		t.add("uncommon extension", -8)
	}
	return t.result()
}

func commercial(a analysis) domain.SubScore {
	t := newTally(20)
	if a.cpcTier > 0 {
		t.add("high value keyword", float64(5-a.cpcTier)*10)
	}
	if a.concreteOK && a.concrete >= 4 {
		t.add("concrete product term", 10)
	}
	switch a.tldTier {
	case 1:
		t.add("premium extension", 15)
	case 2:
		t.add("established extension", 8)
	}
	if a.length <= 10 {
		t.add("compact", 10)
	} else if a.length > 14 {
		t.add("hard to type", -float64(a.length-14)*3)
	}
	if a.hasDigit {
		t.add("contains digits", -10)
	}
	return t.result()
}

func memorability(a analysis) domain.SubScore {
	t := newTally(25)
	t.add("short", math.Min(30, float64(15-a.length)*3))
	if a.syllables > 0 && a.syllables <= 3 {
		t.add("few syllables", 15)
	}
	if a.concreteOK {
		t.add("vivid imagery", (a.concrete-2.5)*8)
	}
	if alliterative(a.seg.Words) {
		t.add("alliteration", 8)
	}
	t.add("recognisable words", 15*a.seg.Quality)
	if a.hasDigit || a.hasHyphen {
		t.add("digits or hyphens", -12)
	}
	return t.result()
}

// financial rates resale structure; it is the only sub-score that reads the
// asking price.
func financial(a analysis, value float64, price *float64) domain.SubScore {
	t := newTally(15)
	switch a.tldTier {
	case 1:
		t.add("liquid extension", 30)
	case 2:
		t.add("tradable extension", 18)
	case 3:
		t.add("new generic extension", 8)
	}
	t.add("aftermarket liquidity", 20*lexicon.TLDLiquidity(a.tld))
	switch {
	case a.length <= 6:
		t.add("short inventory", 20)
	case a.length <= 10:
		t.add("mid-length inventory", 10)
	case a.length > 14:
		t.add("long inventory", -10)
	}
	t.add("clean decomposition", 15*a.seg.Coverage)
	if a.hasHyphen {
		t.add("contains hyphen", -15)
	}
	if a.hasDigit {
		t.add("contains digits", -10)
	}
	if price != nil && *price > 0 && value > 0 {
		ratio := value / *price
		if ratio >= 1 {
			t.add("priced below fair value", math.Min(15, 5*math.Log2(ratio)))
		} else {
			t.add("priced above fair value", math.Max(-20, 8*math.Log2(ratio)))
		}
	}
	return t.result()
}

func alliterative(words []string) bool {
	if len(words) < 2 {
		return false
	}
	for _, w := range words[1:] {
		if w[0] != words[0][0] {
			return false
		}
	}
	return true
}

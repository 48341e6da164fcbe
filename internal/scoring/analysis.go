package scoring

import (
	"strings"

	"domainwizard/internal/lexicon"
)

// analysis is everything the sub-scorers read about one label.
type analysis struct {
	label       string
	tld         string
	letters     string
	seg         Segmentation
	syllables   int
	naturalness float64
	length      int
	hasDigit    bool
	hasHyphen   bool
	tldTier     int
	cpcTier     int
	concrete    float64
	concreteOK  bool
	keywordHit  bool
}

func analyze(lx *lexicon.Lexicon, label, tld string, keywords []string) analysis {
	a := analysis{
		label:     label,
		tld:       tld,
		letters:   letters(label),
		length:    len(label),
		hasDigit:  strings.ContainsAny(label, "0123456789"),
		hasHyphen: strings.Contains(label, "-"),
		tldTier:   lexicon.TLDTier(tld),
	}
	a.seg = Segment(lx, label)
	a.syllables = Syllables(label)
	a.naturalness = Naturalness(lx, label)

	sum, n := 0.0, 0
	for _, w := range a.seg.Words {
		if t := lx.CPCTier(w); t > 0 && (a.cpcTier == 0 || t < a.cpcTier) {
			a.cpcTier = t
		}
		if c, ok := lx.Concreteness(w); ok {
			sum += c
			n++
		}
	}
	if n > 0 {
		a.concrete, a.concreteOK = sum/float64(n), true
	}
	for _, k := range keywords {
		if len(k) >= 3 && strings.Contains(a.letters, k) {
			a.keywordHit = true
			break
		}
	}
	return a
}

// cpcScore maps the best CPC tier onto [0,1]; untiered labels score 0.
func (a analysis) cpcScore() float64 {
	if a.cpcTier == 0 {
		return 0
	}
	return float64(5-a.cpcTier) / 4
}

func (a analysis) features() [lexicon.NumFeatures]float64 {
	var f [lexicon.NumFeatures]float64
	f[lexicon.FeatLength] = float64(a.length)
	f[lexicon.FeatTLDTier] = float64(a.tldTier)
	f[lexicon.FeatMaxFrequency] = a.seg.MaxFrequency
	f[lexicon.FeatSegmentation] = a.seg.Quality
	f[lexicon.FeatWordCount] = float64(len(a.seg.Words))
	f[lexicon.FeatCPC] = a.cpcScore()
	return f
}

package generator

import (
	"strings"

	"domainwizard/internal/domain"
	"domainwizard/internal/randx"
)

var (
	brandSuffixes = []string{"ly", "io", "ify", "ora", "eo", "able", "ster", "iva"}
	dictPrefixes  = []string{"get", "try", "go", "my", "hey", "join", "use", "the"}
	dictSuffixes  = []string{"hq", "lab", "hub", "works", "co", "now", "base", "spot"}
	vowelEndings  = []string{"a", "o", "ia", "ito", "ara", "eno", "ella"}
	respellings   = []struct{ from, to string }{
		{"ph", "f"}, {"ck", "k"}, {"qu", "kw"}, {"ee", "ea"}, {"er", "r"},
		{"ou", "u"}, {"oo", "u"}, {"c", "k"}, {"x", "ks"}, {"s", "z"},
	}
)

// offStyleChance is how often a template outside the plan's style is used.
func offStyleChance(r domain.Randomness) float64 {
	switch r {
	case domain.RandomnessLow:
		return 0.1
	case domain.RandomnessHigh:
		return 0.45
	default:
		return 0.25
	}
}

// compose builds one label from the keyword pool.
func compose(pool []string, style domain.Style, rnd domain.Randomness, r randx.Rand) (string, string, randx.Rand) {
	var u float64
	u, r = r.Float64()
	if u < offStyleChance(rnd) {
		style, r, _ = randx.Pick(r, domain.Styles)
	}
	a, r, _ := randx.Pick(r, pool)
	b, r, _ := randx.Pick(r, pool)

	switch style {
	case domain.StyleThreeWords:
		c, r2, _ := randx.Pick(r, pool)
		return a + b + c, "local:threewords", r2
	case domain.StyleBrandable:
		if u, r = r.Float64(); u < 0.5 || a == b {
			s, r2, _ := randx.Pick(r, brandSuffixes)
			return trimVowelJoin(a, s), "local:brandable", r2
		}
		return blend(a, b), "local:blend", r
	case domain.StyleSpelling:
		return respell(a) + b, "local:spelling", r
	case domain.StyleDictionary:
		if u, r = r.Float64(); u < 0.5 {
			p, r2, _ := randx.Pick(r, dictPrefixes)
			return p + a, "local:dictionary", r2
		}
		s, r2, _ := randx.Pick(r, dictSuffixes)
		return a + s, "local:dictionary", r2
	case domain.StyleNonEnglish:
		e, r2, _ := randx.Pick(r, vowelEndings)
		return trimVowelJoin(a, e), "local:nonenglish", r2
	default:
		return a + b, "local:concat", r
	}
}

// blend splices the front of a onto the back of b at a shared letter when
// there is one, otherwise at the halves.
func blend(a, b string) string {
	for i := len(a) - 1; i >= 2; i-- {
		if j := strings.IndexByte(b, a[i]); j >= 1 && j < len(b)-1 {
			return a[:i] + b[j:]
		}
	}
	return a[:(len(a)+1)/2] + b[len(b)/2:]
}

// respell applies the first matching phonetic substitution.
func respell(s string) string {
	for _, rs := range respellings {
		if strings.Contains(s, rs.from) {
			return strings.Replace(s, rs.from, rs.to, 1)
		}
	}
	return s
}

// trimVowelJoin drops a trailing vowel of s before a suffix that starts with
// one ("mocha"+"ify" -> "mochify").
func trimVowelJoin(s, suffix string) string {
	if len(s) > 3 && isVowel(s[len(s)-1]) && isVowel(suffix[0]) {
		s = s[:len(s)-1]
	}
	return s + suffix
}

func isVowel(c byte) bool { return strings.IndexByte("aeiou", c) >= 0 }

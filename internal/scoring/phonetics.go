package scoring

import (
	"strings"

	"domainwizard/internal/lexicon"
)

// TrigramScore is the mean trigram log10 probability of the label's letters,
// boundary markers included.
func TrigramScore(lx *lexicon.Lexicon, label string) float64 {
	return lx.AverageTrigramLogProb(letters(label))
}

// Naturalness maps TrigramScore onto [0,1] where 0 is the unseen-trigram floor
// and 1 is the average dictionary word.
func Naturalness(lx *lexicon.Lexicon, label string) float64 {
	lo, hi := lx.UnseenTrigram(), lx.MeanWordTrigram()
	if hi <= lo {
		return 0
	}
	return clamp((TrigramScore(lx, label)-lo)/(hi-lo), 0, 1)
}

func isVowel(r byte) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// Syllables estimates the syllable count from vowel groups with a silent-e
// adjustment. Any label with letters has at least one.
func Syllables(label string) int {
	s := letters(label)
	if s == "" {
		return 0
	}
	n := 0
	prev := false
	for i := 0; i < len(s); i++ {
		v := isVowel(s[i])
		if v && !prev {
			n++
		}
		prev = v
	}
	if n > 1 && strings.HasSuffix(s, "e") && !strings.HasSuffix(s, "le") && !strings.HasSuffix(s, "ee") {
		n--
	}
	if n == 0 {
		n = 1
	}
	return n
}

func vowelRatio(s string) float64 {
	if s == "" {
		return 0
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if isVowel(s[i]) {
			v++
		}
	}
	return float64(v) / float64(len(s))
}

func maxConsonantRun(s string) int {
	best, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if isVowel(s[i]) {
			cur = 0
			continue
		}
		cur++
		if cur > best {
			best = cur
		}
	}
	return best
}

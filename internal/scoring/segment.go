package scoring

import (
	"strings"

	"domainwizard/internal/lexicon"
)

// Segmentation is the best dictionary parse of a label.
type Segmentation struct {
	Words []string
	// Parts is the full parse in order; unsegmented runs appear verbatim.
	Parts        []string
	Coverage     float64
	MaxFrequency float64
	Quality      float64
}

const (
	unsegmentedRunPenalty = 4.0
	unsegmentedCharCost   = 1.0
	perWordCost           = 2.0
	minShortWordZipf      = 5.0
)

// wordScore favours few long common words over many short ones.
func wordScore(z float64, n int) float64 {
	return 0.5*z + 0.5*float64(n*n) - perWordCost
}

func letters(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Segment runs a Viterbi parse over the alphabetic portion of label. It is
// total: every letter ends up in a word or in an unsegmented run.
func Segment(lx *lexicon.Lexicon, label string) Segmentation {
	s := letters(label)
	n := len(s)
	if n == 0 {
		return Segmentation{}
	}

	best := make([]float64, n+1)
	back := make([]int, n+1)
	isWord := make([]bool, n+1)
	for i := 1; i <= n; i++ {
		best[i] = best[0] - (unsegmentedRunPenalty + unsegmentedCharCost*float64(i))
		back[i] = 0
		for j := 0; j < i; j++ {
			w := s[j:i]
			if z, ok := dictWord(lx, w); ok {
				if v := best[j] + wordScore(z, len(w)); v > best[i] || (v == best[i] && !isWord[i]) {
					best[i], back[i], isWord[i] = v, j, true
				}
				continue
			}
			if v := best[j] - (unsegmentedRunPenalty + unsegmentedCharCost*float64(i-j)); v > best[i] {
				best[i], back[i], isWord[i] = v, j, false
			}
		}
	}

	var parts []string
	var words []string
	covered := 0
	maxZ := 0.0
	for i := n; i > 0; i = back[i] {
		p := s[back[i]:i]
		parts = append(parts, p)
		if isWord[i] {
			words = append(words, p)
			covered += len(p)
			if z, _ := lx.Frequency(p); z > maxZ {
				maxZ = z
			}
		}
	}
	reverse(parts)
	reverse(words)

	cov := float64(covered) / float64(n)
	return Segmentation{
		Words:        words,
		Parts:        parts,
		Coverage:     cov,
		MaxFrequency: maxZ,
		Quality:      clamp(cov*wordCountFactor(len(words)), 0, 1),
	}
}

func dictWord(lx *lexicon.Lexicon, w string) (float64, bool) {
	if len(w) < 2 || len(w) > lx.MaxWordLen() {
		return 0, false
	}
	z, ok := lx.Frequency(w)
	if !ok || (len(w) == 2 && z < minShortWordZipf) {
		return 0, false
	}
	return z, true
}

func wordCountFactor(n int) float64 {
	switch {
	case n <= 2:
		return 1
	case n == 3:
		return 0.85
	default:
		return 0.7
	}
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

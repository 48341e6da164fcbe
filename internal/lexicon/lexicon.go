// Package lexicon holds the static lexical and valuation tables. Tables are
// embedded, parsed once, and read-only afterwards; share one *Lexicon per
// process through the engine context.
package lexicon

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed data/*.tsv data/*.txt
var dataFS embed.FS

// Comp is one comparable sale.
type Comp struct {
	Domain string
	Label  string
	TLD    string
	Price  float64
}

type Lexicon struct {
	words        map[string]float64
	sortedWords  []string
	maxWordLen   int
	synonyms     map[string][]string
	cpc          map[string]int
	concreteness map[string]float64
	comps        []Comp
	stopwords    map[string]struct{}

	trigrams        map[string]float64
	unseenTrigram   float64
	meanWordTrigram float64
}

var (
	sharedOnce sync.Once
	shared     *Lexicon
	sharedErr  error
)

// Shared returns the process-wide lexicon, loading it on first use.
func Shared() (*Lexicon, error) {
	sharedOnce.Do(func() { shared, sharedErr = Load() })
	return shared, sharedErr
}

// MustShared is Shared for initialisation paths where failure is fatal.
func MustShared() *Lexicon {
	l, err := Shared()
	if err != nil {
		panic(fmt.Sprintf("load lexicon: %v", err))
	}
	return l
}

// Load parses the embedded tables into a fresh Lexicon.
func Load() (*Lexicon, error) {
	l := &Lexicon{
		words:        make(map[string]float64),
		synonyms:     make(map[string][]string),
		cpc:          make(map[string]int),
		concreteness: make(map[string]float64),
		stopwords:    make(map[string]struct{}),
	}

	err := readTSV("data/words.tsv", func(f []string) error {
		z, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return err
		}
		if prev, ok := l.words[f[0]]; !ok || z > prev {
			l.words[f[0]] = z
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for w := range l.words {
		l.sortedWords = append(l.sortedWords, w)
		if len(w) > l.maxWordLen {
			l.maxWordLen = len(w)
		}
	}
	sort.Strings(l.sortedWords)

	if err := readTSV("data/synonyms.tsv", func(f []string) error {
		for _, s := range strings.Split(f[1], ",") {
			if s = strings.TrimSpace(s); s != "" {
				l.synonyms[f[0]] = append(l.synonyms[f[0]], s)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readTSV("data/cpc.tsv", func(f []string) error {
		tier, err := strconv.Atoi(f[1])
		if err != nil {
			return err
		}
		l.cpc[f[0]] = tier
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readTSV("data/concreteness.tsv", func(f []string) error {
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return err
		}
		l.concreteness[f[0]] = v
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readTSV("data/comps.tsv", func(f []string) error {
		price, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return err
		}
		label, tld, _ := strings.Cut(f[0], ".")
		l.comps = append(l.comps, Comp{Domain: f[0], Label: label, TLD: tld, Price: price})
		return nil
	}); err != nil {
		return nil, err
	}

	raw, err := dataFS.ReadFile("data/stopwords.txt")
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	for _, w := range strings.Fields(string(raw)) {
		l.stopwords[w] = struct{}{}
	}

	l.buildTrigrams()
	return l, nil
}

func readTSV(name string, row func([]string) error) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 2 {
			return fmt.Errorf("%s:%d: expected 2 columns", name, n)
		}
		if err := row(f); err != nil {
			return fmt.Errorf("%s:%d: %w", name, n, err)
		}
	}
	return sc.Err()
}

// buildTrigrams derives character trigram log10 probabilities from the word
// list, each word weighted by its zipf frequency.
func (l *Lexicon) buildTrigrams() {
	counts := make(map[string]float64)
	total := 0.0
	for w, z := range l.words {
		weight := math.Max(0.5, z-1.5)
		for _, tri := range Trigrams(w) {
			counts[tri] += weight
			total += weight
		}
	}
	l.trigrams = make(map[string]float64, len(counts))
	minLP := 0.0
	for tri, c := range counts {
		lp := math.Log10(c / total)
		l.trigrams[tri] = lp
		if lp < minLP {
			minLP = lp
		}
	}
	l.unseenTrigram = minLP - 1

	sum := 0.0
	for _, w := range l.sortedWords {
		sum += l.AverageTrigramLogProb(w)
	}
	if len(l.sortedWords) > 0 {
		l.meanWordTrigram = sum / float64(len(l.sortedWords))
	}
}

// Trigrams returns the character trigrams of s padded with ^ and $ markers.
func Trigrams(s string) []string {
	p := "^" + s + "$"
	if len(p) < 3 {
		return nil
	}
	out := make([]string, 0, len(p)-2)
	for i := 0; i+3 <= len(p); i++ {
		out = append(out, p[i:i+3])
	}
	return out
}

// AverageTrigramLogProb is the mean log10 probability of s's trigrams, with
// unseen trigrams scored at UnseenTrigram.
func (l *Lexicon) AverageTrigramLogProb(s string) float64 {
	tris := Trigrams(s)
	if len(tris) == 0 {
		return l.unseenTrigram
	}
	sum := 0.0
	for _, t := range tris {
		sum += l.TrigramLogProb(t)
	}
	return sum / float64(len(tris))
}

func (l *Lexicon) TrigramLogProb(tri string) float64 {
	if lp, ok := l.trigrams[tri]; ok {
		return lp
	}
	return l.unseenTrigram
}

func (l *Lexicon) UnseenTrigram() float64   { return l.unseenTrigram }
func (l *Lexicon) MeanWordTrigram() float64 { return l.meanWordTrigram }

// Frequency returns the zipf frequency of a dictionary word.
func (l *Lexicon) Frequency(w string) (float64, bool) {
	z, ok := l.words[w]
	return z, ok
}

func (l *Lexicon) IsWord(w string) bool {
	_, ok := l.words[w]
	return ok
}

func (l *Lexicon) MaxWordLen() int { return l.maxWordLen }

// Words returns the dictionary in sorted order. Callers must not modify it.
func (l *Lexicon) Words() []string { return l.sortedWords }

func (l *Lexicon) Synonyms(w string) []string { return l.synonyms[w] }

// CPCTier returns 1 (highest) to 4, or 0 when the word is not tiered.
func (l *Lexicon) CPCTier(w string) int { return l.cpc[w] }

func (l *Lexicon) Concreteness(w string) (float64, bool) {
	v, ok := l.concreteness[w]
	return v, ok
}

func (l *Lexicon) Comps() []Comp { return l.comps }

func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[w]
	return ok
}

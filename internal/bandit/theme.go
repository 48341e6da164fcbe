package bandit

import (
	"strings"

	"domainwizard/internal/domain"
	"domainwizard/internal/lexicon"
)

const maxThemeTokens = 40

// Theme is the token universe of one job. Tokens outside it are never
// selected and are pruned from the persisted model.
type Theme struct {
	Seeds  []string `json:"seeds"`
	Tokens []string `json:"tokens"`
	set    map[string]struct{}
}

// BuildTheme derives the universe from the seed keywords, the description,
// the synonym table and any related words fetched from a word-association
// service.
func BuildTheme(lx *lexicon.Lexicon, in domain.SearchInput, related []string) Theme {
	t := Theme{set: make(map[string]struct{})}
	add := func(tok string) {
		if len(t.Tokens) >= maxThemeTokens || len(tok) < 2 || lx.IsStopword(tok) {
			return
		}
		if _, ok := t.set[tok]; ok {
			return
		}
		t.set[tok] = struct{}{}
		t.Tokens = append(t.Tokens, tok)
	}

	for _, tok := range in.KeywordTokens {
		if !lx.IsStopword(tok) {
			t.Seeds = append(t.Seeds, tok)
		}
	}
	if len(t.Seeds) == 0 {
		t.Seeds = append(t.Seeds, in.KeywordTokens...)
	}
	for _, tok := range t.Seeds {
		t.set[tok] = struct{}{}
		t.Tokens = append(t.Tokens, tok)
	}
	for _, tok := range domain.Tokenize(domain.FoldText(in.Description)) {
		if len(tok) >= 3 {
			add(tok)
		}
	}
	for _, seed := range t.Seeds {
		for _, syn := range lx.Synonyms(seed) {
			add(syn)
		}
	}
	for _, r := range related {
		for _, tok := range domain.Tokenize(domain.FoldText(r)) {
			add(tok)
		}
	}
	return t
}

func (t Theme) Contains(tok string) bool {
	_, ok := t.set[tok]
	return ok
}

func (t Theme) IsSeed(tok string) bool {
	for _, s := range t.Seeds {
		if s == tok {
			return true
		}
	}
	return false
}

// independent counts the tokens left after greedy variant collapse.
func (t Theme) independent() int {
	var kept []string
	for _, tok := range t.Tokens {
		if !variantOfAny(tok, kept) {
			kept = append(kept, tok)
		}
	}
	return len(kept)
}

// Stem strips common English inflections.
func Stem(tok string) string {
	tok = strings.ToLower(tok)
	for _, suf := range []string{"ings", "ing", "ers", "er", "ies", "es", "ed", "ly", "s"} {
		if strings.HasSuffix(tok, suf) && len(tok)-len(suf) >= 3 {
			base := strings.TrimSuffix(tok, suf)
			if suf == "ies" {
				base += "y"
			}
			return base
		}
	}
	return tok
}

// Variants reports whether a and b are morphological variants: equal stems
// or one containing the other.
func Variants(a, b string) bool {
	if a == b || Stem(a) == Stem(b) {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= 3 && strings.Contains(long, short)
}

func variantOfAny(tok string, set []string) bool {
	for _, s := range set {
		if Variants(tok, s) {
			return true
		}
	}
	return false
}

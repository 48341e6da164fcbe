package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RawInput is the unvalidated start request as received from a client.
type RawInput struct {
	Keywords               string        `json:"keywords"`
	Description            string        `json:"description"`
	Style                  string        `json:"style"`
	Randomness             string        `json:"randomness"`
	Blacklist              []string      `json:"blacklist"`
	MaxLength              int           `json:"maxLength"`
	MaxNames               int           `json:"maxNames"`
	YearlyBudget           *float64      `json:"yearlyBudget"`
	LoopCount              int           `json:"loopCount"`
	TLD                    string        `json:"tld"`
	BackendURL             string        `json:"backendUrl"`
	PreferEnglish          bool          `json:"preferEnglish"`
	RewardPolicy           *RewardPolicy `json:"rewardPolicy"`
	RepetitionPenaltyLevel string        `json:"repetitionPenaltyLevel"`
}

const (
	DefaultMaxLength    = 15
	DefaultMaxNames     = 20
	DefaultYearlyBudget = 50.0
	DefaultLoopCount    = 5
	MaxLoopCount        = 50
	MaxMaxNames         = 200
)

var tldLabel = regexp.MustCompile(`^(?:[a-z]{2,63}|xn--[a-z0-9-]{1,59})$`)

// ValidateInput turns a raw request into an immutable SearchInput or returns
// an INVALID_INPUT error.
func ValidateInput(raw RawInput) (SearchInput, error) {
	in := SearchInput{
		Description:   strings.TrimSpace(raw.Description),
		PreferEnglish: raw.PreferEnglish,
	}

	in.Keywords = FoldText(raw.Keywords)
	if len(in.Keywords) < 2 {
		return SearchInput{}, NewError(CodeInvalidInput, "keywords must contain at least 2 characters")
	}
	in.KeywordTokens = Tokenize(in.Keywords)
	if len(in.KeywordTokens) == 0 {
		return SearchInput{}, NewError(CodeInvalidInput, "keywords must contain at least one word of 2+ letters")
	}

	tld, err := NormalizeTLD(raw.TLD)
	if err != nil {
		return SearchInput{}, err
	}
	in.TLD = tld

	in.Style = StyleDefault
	if raw.Style != "" {
		s := Style(strings.ToLower(strings.TrimSpace(raw.Style)))
		if !validStyle(s) {
			return SearchInput{}, NewError(CodeInvalidInput, fmt.Sprintf("unknown style %q", raw.Style))
		}
		in.Style = s
	}

	in.Randomness = RandomnessMedium
	if raw.Randomness != "" {
		r := Randomness(strings.ToLower(strings.TrimSpace(raw.Randomness)))
		if r != RandomnessLow && r != RandomnessMedium && r != RandomnessHigh {
			return SearchInput{}, NewError(CodeInvalidInput, fmt.Sprintf("unknown randomness %q", raw.Randomness))
		}
		in.Randomness = r
	}

	in.RepetitionPenalty = RepetitionModerate
	if raw.RepetitionPenaltyLevel != "" {
		l := RepetitionLevel(strings.ToLower(strings.TrimSpace(raw.RepetitionPenaltyLevel)))
		switch l {
		case RepetitionOff, RepetitionGentle, RepetitionModerate, RepetitionStrong:
			in.RepetitionPenalty = l
		default:
			return SearchInput{}, NewError(CodeInvalidInput, fmt.Sprintf("unknown repetition penalty level %q", raw.RepetitionPenaltyLevel))
		}
	}

	in.MaxLength = clampInt(orDefault(raw.MaxLength, DefaultMaxLength), 3, 63)
	in.MaxNames = clampInt(orDefault(raw.MaxNames, DefaultMaxNames), 1, MaxMaxNames)
	in.LoopCount = clampInt(orDefault(raw.LoopCount, DefaultLoopCount), 1, MaxLoopCount)

	in.YearlyBudget = DefaultYearlyBudget
	if raw.YearlyBudget != nil {
		if *raw.YearlyBudget < 0 {
			return SearchInput{}, NewError(CodeInvalidInput, "yearly budget must not be negative")
		}
		in.YearlyBudget = *raw.YearlyBudget
	}

	seen := make(map[string]struct{})
	for _, b := range raw.Blacklist {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		in.Blacklist = append(in.Blacklist, b)
	}

	if raw.BackendURL != "" {
		u, err := url.Parse(strings.TrimSpace(raw.BackendURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return SearchInput{}, NewError(CodeInvalidInput, "backend URL must be an absolute http(s) URL")
		}
		in.BackendURL = strings.TrimRight(u.String(), "/")
	}

	policy := RewardPolicy{PerformanceWeight: 0.75, ExplorationWeight: 0.25}
	if raw.RewardPolicy != nil {
		p := *raw.RewardPolicy
		if p.PerformanceWeight < 0 || p.ExplorationWeight < 0 {
			return SearchInput{}, NewError(CodeInvalidInput, "reward policy weights must not be negative")
		}
		if sum := p.PerformanceWeight + p.ExplorationWeight; sum > 0 {
			policy = RewardPolicy{PerformanceWeight: p.PerformanceWeight / sum, ExplorationWeight: p.ExplorationWeight / sum}
		}
	}
	in.RewardPolicy = policy

	return in, nil
}

// NormalizeTLD lowercases, strips a leading dot, converts to ASCII and checks
// the result against the ICANN section of the public suffix list.
func NormalizeTLD(raw string) (string, error) {
	tld := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".")
	if tld == "" {
		return "", NewError(CodeInvalidInput, "tld is required")
	}
	ascii, err := idna.Lookup.ToASCII(tld)
	if err != nil {
		return "", WrapError(CodeInvalidInput, fmt.Sprintf("malformed tld %q", raw), err)
	}
	for _, label := range strings.Split(ascii, ".") {
		if !tldLabel.MatchString(label) {
			return "", NewError(CodeInvalidInput, fmt.Sprintf("malformed tld %q", raw))
		}
	}
	suffix, icann := publicsuffix.PublicSuffix("example." + ascii)
	if !icann || suffix != ascii {
		return "", NewError(CodeInvalidInput, fmt.Sprintf("unknown tld %q", raw))
	}
	return ascii, nil
}

// FoldText strips diacritics, lowercases and collapses whitespace.
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Tokenize splits folded text into unique [a-z0-9] tokens of length >= 2.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(FoldText(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

var domainLabel = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// ParseDomainName reduces a domain, host or URL to its registrable name,
// e.g. "https://shop.brewly.co.uk/x" becomes "brewly.co.uk".
func ParseDomainName(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", WrapError(CodeInvalidInput, fmt.Sprintf("malformed domain %q", raw), err)
		}
		host = u.Hostname()
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", NewError(CodeInvalidInput, "domain is required")
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", WrapError(CodeInvalidInput, fmt.Sprintf("malformed domain %q", raw), err)
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return "", WrapError(CodeInvalidInput, fmt.Sprintf("malformed domain %q", raw), err)
	}
	label, tld := SplitDomain(registrable)
	if !domainLabel.MatchString(label) {
		return "", NewError(CodeInvalidInput, fmt.Sprintf("malformed domain %q", raw))
	}
	if _, err := NormalizeTLD(tld); err != nil {
		return "", err
	}
	return registrable, nil
}

// SplitDomain returns the label and tld of a domain name.
func SplitDomain(domain string) (label, tld string) {
	d := strings.ToLower(strings.TrimSpace(domain))
	i := strings.Index(d, ".")
	if i < 0 {
		return d, ""
	}
	return d[:i], d[i+1:]
}

func validStyle(s Style) bool {
	for _, st := range Styles {
		if st == s {
			return true
		}
	}
	return false
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

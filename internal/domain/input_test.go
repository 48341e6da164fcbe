package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput_Defaults(t *testing.T) {
	in, err := ValidateInput(RawInput{Keywords: "  Coffee   Roast ", TLD: ".COM"})
	require.NoError(t, err)

	assert.Equal(t, "coffee roast", in.Keywords)
	assert.Equal(t, []string{"coffee", "roast"}, in.KeywordTokens)
	assert.Equal(t, "com", in.TLD)
	assert.Equal(t, StyleDefault, in.Style)
	assert.Equal(t, RandomnessMedium, in.Randomness)
	assert.Equal(t, DefaultMaxLength, in.MaxLength)
	assert.Equal(t, DefaultMaxNames, in.MaxNames)
	assert.Equal(t, DefaultLoopCount, in.LoopCount)
	assert.InDelta(t, DefaultYearlyBudget, in.YearlyBudget, 1e-9)
	assert.InDelta(t, 1.0, in.RewardPolicy.PerformanceWeight+in.RewardPolicy.ExplorationWeight, 1e-9)
	assert.Equal(t, RepetitionModerate, in.RepetitionPenalty)
}

func TestValidateInput_Rejects(t *testing.T) {
	neg := -1.0
	cases := map[string]RawInput{
		"missing keywords":   {TLD: "com"},
		"short keywords":     {Keywords: "a", TLD: "com"},
		"malformed tld":      {Keywords: "coffee", TLD: "c_m"},
		"unknown tld":        {Keywords: "coffee", TLD: "notarealtld"},
		"empty tld":          {Keywords: "coffee"},
		"bad style":          {Keywords: "coffee", TLD: "com", Style: "fancy"},
		"bad randomness":     {Keywords: "coffee", TLD: "com", Randomness: "chaotic"},
		"negative budget":    {Keywords: "coffee", TLD: "com", YearlyBudget: &neg},
		"relative backend":   {Keywords: "coffee", TLD: "com", BackendURL: "/api"},
		"negative weights":   {Keywords: "coffee", TLD: "com", RewardPolicy: &RewardPolicy{PerformanceWeight: -1}},
		"bad repetition lvl": {Keywords: "coffee", TLD: "com", RepetitionPenaltyLevel: "max"},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateInput(raw)
			require.Error(t, err)
			assert.Equal(t, CodeInvalidInput, CodeOf(err))
		})
	}
}

func TestValidateInput_NormalisesPolicyAndBlacklist(t *testing.T) {
	in, err := ValidateInput(RawInput{
		Keywords:     "café crème",
		TLD:          "io",
		Blacklist:    []string{" Bad ", "bad", ""},
		RewardPolicy: &RewardPolicy{PerformanceWeight: 3, ExplorationWeight: 1},
		MaxNames:     1000,
		LoopCount:    500,
		BackendURL:   "https://api.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe creme", in.Keywords)
	assert.Equal(t, []string{"bad"}, in.Blacklist)
	assert.InDelta(t, 0.75, in.RewardPolicy.PerformanceWeight, 1e-9)
	assert.Equal(t, MaxMaxNames, in.MaxNames)
	assert.Equal(t, MaxLoopCount, in.LoopCount)
	assert.Equal(t, "https://api.example.com", in.BackendURL)
}

func TestNormalizeTLD_MultiLabel(t *testing.T) {
	tld, err := NormalizeTLD("co.uk")
	require.NoError(t, err)
	assert.Equal(t, "co.uk", tld)
}

func TestSplitDomain(t *testing.T) {
	label, tld := SplitDomain("CoffeeRoast.co.uk")
	assert.Equal(t, "coffeeroast", label)
	assert.Equal(t, "co.uk", tld)
}

func TestParseDomainName(t *testing.T) {
	cases := map[string]string{
		"Brewly.com":                     "brewly.com",
		"https://shop.brewly.co.uk/menu": "brewly.co.uk",
		"www.roast-lab.io.":              "roast-lab.io",
	}
	for in, want := range cases {
		got, err := ParseDomainName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "com", "-brew.com", "brew_ly.com"} {
		_, err := ParseDomainName(bad)
		assert.Equal(t, CodeInvalidInput, CodeOf(err), bad)
	}
}

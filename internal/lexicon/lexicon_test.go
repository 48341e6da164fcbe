package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	l, err := Load()
	require.NoError(t, err)

	z, ok := l.Frequency("coffee")
	require.True(t, ok)
	assert.Greater(t, z, 4.0)
	assert.False(t, l.IsWord("qzxv"))
	assert.Contains(t, l.Synonyms("coffee"), "brew")
	assert.Equal(t, 1, l.CPCTier("insurance"))
	assert.Equal(t, 0, l.CPCTier("velomi"))
	assert.True(t, l.IsStopword("the"))
	assert.NotEmpty(t, l.Comps())
	assert.GreaterOrEqual(t, l.MaxWordLen(), 8)
}

func TestTrigrams(t *testing.T) {
	assert.Equal(t, []string{"^ab", "ab$"}, Trigrams("ab"))
	assert.Equal(t, []string{"^a$"}, Trigrams("a"))
	assert.Nil(t, Trigrams(""))
}

func TestTrigramModelPrefersEnglish(t *testing.T) {
	l := MustShared()
	assert.Greater(t, l.AverageTrigramLogProb("coffee"), l.AverageTrigramLogProb("xqzvk"))
	assert.Less(t, l.UnseenTrigram(), l.MeanWordTrigram())
}

func TestShared_LoadsOnce(t *testing.T) {
	a, err := Shared()
	require.NoError(t, err)
	b, err := Shared()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestTLDTables(t *testing.T) {
	assert.Equal(t, 1, TLDTier("com"))
	assert.Equal(t, 4, TLDTier("museum"))
	assert.InDelta(t, 1.0, TLDLiquidity("com"), 1e-9)
	assert.InDelta(t, 0.25, TLDLiquidity("museum"), 1e-9)
	assert.Greater(t, RenewalCost("ai"), RenewalCost("com"))
	assert.Greater(t, PriceVelocity(100), PriceVelocity(50000))
}

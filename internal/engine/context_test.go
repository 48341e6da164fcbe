package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.NotNil(t, c.Lexicon)
	require.NotNil(t, c.Logger)

	c.DevPopularity.Add("coffee", 1200)
	v, ok := c.DevPopularity.Get("coffee")
	assert.True(t, ok)
	assert.Equal(t, 1200, v)
}

func TestNew_CacheSizeBoundsEntries(t *testing.T) {
	c := MustNew(WithCacheSize(2))
	c.Archived.Add("a.com", true)
	c.Archived.Add("b.com", false)
	c.Archived.Add("c.com", true)
	assert.Equal(t, 2, c.Archived.Len())
	assert.False(t, c.Archived.Contains("a.com"))
}

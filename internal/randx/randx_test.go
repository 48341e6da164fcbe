package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicReplay(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		var x, y float64
		x, a = a.Float64()
		y, b = b.Float64()
		assert.Equal(t, x, y)
	}
}

func TestFloat64Range(t *testing.T) {
	r := New(7)
	for i := 0; i < 10000; i++ {
		var v float64
		v, r = r.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestBetaMeanConverges(t *testing.T) {
	cases := []struct{ a, b float64 }{
		{1, 1}, {2, 5}, {8, 2}, {0.5, 0.5}, {30, 10},
	}
	for _, tc := range cases {
		r := New(1234)
		const n = 20000
		sum := 0.0
		for i := 0; i < n; i++ {
			var v float64
			v, r = r.Beta(tc.a, tc.b)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			sum += v
		}
		want := tc.a / (tc.a + tc.b)
		assert.InDelta(t, want, sum/n, 0.02, "Beta(%v,%v)", tc.a, tc.b)
	}
}

func TestGammaMeanConverges(t *testing.T) {
	for _, shape := range []float64{0.7, 1, 3.5, 10} {
		r := New(99)
		const n = 20000
		sum := 0.0
		for i := 0; i < n; i++ {
			var v float64
			v, r = r.Gamma(shape)
			sum += v
		}
		assert.InDelta(t, shape, sum/n, 0.05*shape+0.05, "Gamma(%v)", shape)
	}
}

func TestIntnAndShuffle(t *testing.T) {
	r := New(5)
	for i := 0; i < 1000; i++ {
		var v int
		v, r = r.Intn(7)
		assert.True(t, v >= 0 && v < 7)
	}
	v, _ := r.Intn(0)
	assert.Equal(t, 0, v)

	in := []int{1, 2, 3, 4, 5}
	out, _ := Shuffle(New(3), in)
	assert.ElementsMatch(t, in, out)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, in, "input must not be modified")

	_, _, ok := Pick(New(1), []string{})
	assert.False(t, ok)
}

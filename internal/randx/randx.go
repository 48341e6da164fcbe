// Package randx is a small value-typed PRNG with the distributions the
// optimizer needs. A Rand is an immutable state: every draw returns the next
// state, so callers thread it explicitly and replays are deterministic.
package randx

import "math"

// Rand is a splitmix64 generator state.
type Rand struct {
	State uint64 `json:"state"`
}

func New(seed uint64) Rand { return Rand{State: seed} }

// Uint64 returns the next value and the advanced state.
func (r Rand) Uint64() (uint64, Rand) {
	r.State += 0x9e3779b97f4a7c15
	z := r.State
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31), r
}

// Float64 returns a value in [0, 1).
func (r Rand) Float64() (float64, Rand) {
	v, next := r.Uint64()
	return float64(v>>11) / (1 << 53), next
}

// Intn returns a value in [0, n). n <= 0 yields 0.
func (r Rand) Intn(n int) (int, Rand) {
	if n <= 0 {
		return 0, r
	}
	v, next := r.Uint64()
	return int(v % uint64(n)), next
}

// Normal draws a standard normal value (Box-Muller).
func (r Rand) Normal() (float64, Rand) {
	u1, r := r.Float64()
	u2, r := r.Float64()
	if u1 < 1e-300 {
		u1 = 1e-300
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2), r
}

// Gamma draws from Gamma(shape, 1) using Marsaglia-Tsang. Shapes below 1 use
// the boosting identity Gamma(a) = Gamma(a+1) * U^(1/a).
func (r Rand) Gamma(shape float64) (float64, Rand) {
	if shape <= 0 {
		return 0, r
	}
	if shape < 1 {
		g, r := r.Gamma(shape + 1)
		u, r := r.Float64()
		return g * math.Pow(u, 1/shape), r
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, u float64
		x, r = r.Normal()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u, r = r.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v, r
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v, r
		}
	}
}

// Beta draws from Beta(a, b).
func (r Rand) Beta(a, b float64) (float64, Rand) {
	x, r := r.Gamma(a)
	y, r := r.Gamma(b)
	if x+y == 0 {
		return 0.5, r
	}
	return x / (x + y), r
}

// Shuffle returns a shuffled copy of s.
func Shuffle[T any](r Rand, s []T) ([]T, Rand) {
	out := append([]T(nil), s...)
	for i := len(out) - 1; i > 0; i-- {
		var j int
		j, r = r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out, r
}

// Pick returns a random element of s and false when s is empty.
func Pick[T any](r Rand, s []T) (T, Rand, bool) {
	var zero T
	if len(s) == 0 {
		return zero, r, false
	}
	i, r := r.Intn(len(s))
	return s[i], r, true
}

package scoring

import (
	"math"
	"sort"

	"domainwizard/internal/domain"
	"domainwizard/internal/lexicon"
)

const nearestComps = 5

type compFeatures struct {
	comp lexicon.Comp
	f    [lexicon.NumFeatures]float64
}

func buildComps(lx *lexicon.Lexicon) []compFeatures {
	out := make([]compFeatures, 0, len(lx.Comps()))
	for _, c := range lx.Comps() {
		out = append(out, compFeatures{comp: c, f: analyze(lx, c.Label, c.TLD, nil).features()})
	}
	return out
}

func distance(a, b [lexicon.NumFeatures]float64) float64 {
	sum := 0.0
	for i := range a {
		d := (a[i] - b[i]) / lexicon.FeatureScale[i]
		sum += lexicon.FeatureWeights[i] * d * d
	}
	return math.Sqrt(sum)
}

// nearest returns the k closest comparable sales and their median price.
func nearest(comps []compFeatures, f [lexicon.NumFeatures]float64, k int) ([]domain.Comparable, float64) {
	all := make([]domain.Comparable, 0, len(comps))
	for _, c := range comps {
		all = append(all, domain.Comparable{Domain: c.comp.Domain, Price: c.comp.Price, Distance: distance(f, c.f)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if len(all) > k {
		all = all[:k]
	}
	for i := range all {
		all[i].Distance = math.Round(all[i].Distance*1000) / 1000
	}
	prices := make([]float64, len(all))
	for i, c := range all {
		prices[i] = c.Price
	}
	return all, median(prices)
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

func predictLog10(f [lexicon.NumFeatures]float64) float64 {
	m := lexicon.ValueModel
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * f[i]
	}
	return y
}

// effectiveRMSE widens the interval for poorly segmented labels and weak
// extensions, where the regression has seen little data.
func effectiveRMSE(quality float64, tldTier int) float64 {
	r := lexicon.ValueModel.RMSE * (1 + 0.5*(1-quality))
	if tldTier > 2 {
		r += 0.05 * float64(tldTier-2)
	}
	return r
}

func confidence(rmse float64) string {
	switch {
	case rmse < 0.45:
		return "high"
	case rmse < 0.6:
		return "medium"
	default:
		return "low"
	}
}

func saleProbability(p1 float64, months int) float64 {
	return 1 - math.Pow(1-p1, float64(months)/12)
}

func value(a analysis, comps []compFeatures, price *float64) domain.Valuation {
	f := a.features()
	nn, compsMedian := nearest(comps, f, nearestComps)

	y := predictLog10(f)
	if compsMedian > 0 {
		y = 0.75*y + 0.25*math.Log10(compsMedian)
	}
	est := math.Pow(10, y)
	rmse := effectiveRMSE(a.seg.Quality, a.tldTier)

	p1 := clamp(lexicon.BaseAnnualSaleRate*lexicon.TLDLiquidity(a.tld)*
		lexicon.PriceVelocity(est)*(0.5+a.seg.Quality), 0, lexicon.MaxAnnualSaleRate)

	v := domain.Valuation{
		EstimatedValue: roundMoney(est),
		ValueLow:       roundMoney(est / math.Pow(10, rmse)),
		ValueHigh:      roundMoney(est * math.Pow(10, rmse)),
		Confidence:     confidence(rmse),
		Comparables:    nn,
		CompsMedian:    compsMedian,
		SaleProb12:     round3(saleProbability(p1, 12)),
		SaleProb24:     round3(saleProbability(p1, 24)),
		SaleProb36:     round3(saleProbability(p1, 36)),
	}
	holding := 2 * lexicon.RenewalCost(a.tld)
	v.ExpectedValue = roundMoney(saleProbability(p1, 24)*est*(1-lexicon.SaleCommission) - holding)

	if price != nil && *price > 0 {
		roi := round3((v.ExpectedValue - *price) / *price)
		ratio := round3(est / *price)
		v.ROI, v.ValueRatio = &roi, &ratio
	}
	return v
}

// valuationScore maps the estimate onto 0..100 on a log scale ($10 -> 0, $100k -> 100).
func valuationScore(est float64) float64 {
	if est <= 0 {
		return 0
	}
	return clamp((math.Log10(est)-1)/4*100, 0, 100)
}

func roundMoney(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64     { return math.Round(v*1000) / 1000 }

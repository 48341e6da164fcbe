package lexicon

// TLD tiers: 1 premium, 2 established alternatives, 3 new generics, 4 other.
var tldTiers = map[string]int{
	"com": 1,
	"net": 2, "org": 2, "io": 2, "ai": 2, "co": 2,
	"app": 3, "dev": 3, "tech": 3, "shop": 3, "store": 3, "online": 3, "site": 3, "xyz": 3,
}

// Annual aftermarket liquidity relative to .com.
var tldLiquidity = map[string]float64{
	"com": 1.0, "ai": 0.85, "io": 0.75, "co": 0.55, "net": 0.5, "org": 0.5,
	"app": 0.45, "dev": 0.4, "shop": 0.3, "store": 0.3, "tech": 0.3,
}

// Typical yearly renewal cost in USD.
var tldRenewal = map[string]float64{
	"com": 12, "net": 14, "org": 12, "io": 45, "ai": 80, "co": 30,
	"app": 18, "dev": 15, "shop": 35, "store": 50, "tech": 45,
}

func TLDTier(tld string) int {
	if t, ok := tldTiers[tld]; ok {
		return t
	}
	return 4
}

func TLDLiquidity(tld string) float64 {
	if v, ok := tldLiquidity[tld]; ok {
		return v
	}
	return 0.25
}

func RenewalCost(tld string) float64 {
	if v, ok := tldRenewal[tld]; ok {
		return v
	}
	return 25
}

// Feature vector order used by the comps lookup and the value regression.
const (
	FeatLength = iota
	FeatTLDTier
	FeatMaxFrequency
	FeatSegmentation
	FeatWordCount
	FeatCPC
	NumFeatures
)

// FeatureWeights weight the normalised features in the comps distance.
var FeatureWeights = [NumFeatures]float64{1.0, 2.0, 0.8, 3.0, 1.0, 2.0}

// FeatureScale normalises raw features before the distance is taken.
var FeatureScale = [NumFeatures]float64{20, 4, 7, 1, 4, 1}

// Regression holds the pre-calibrated ridge coefficients predicting
// log10(USD value) from the raw feature vector.
type Regression struct {
	Intercept    float64
	Coefficients [NumFeatures]float64
	RMSE         float64
}

var ValueModel = Regression{
	Intercept:    2.05,
	Coefficients: [NumFeatures]float64{-0.055, -0.32, 0.11, 0.85, -0.12, 0.9},
	RMSE:         0.42,
}

// Liquidity model parameters.
const (
	BaseAnnualSaleRate = 0.04
	MaxAnnualSaleRate  = 0.6
	SaleCommission     = 0.15
)

// PriceVelocity returns the relative sell-through speed of a value bracket.
func PriceVelocity(value float64) float64 {
	switch {
	case value < 500:
		return 1.0
	case value < 2500:
		return 0.7
	case value < 10000:
		return 0.45
	default:
		return 0.25
	}
}

package domain

import "time"

// Core domain models for the search engine. HTTP payloads reuse these types
// directly; keep the json tags stable.

type JobStatus string

const (
	StatusQueued  JobStatus = "queued"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool { return s == StatusDone || s == StatusFailed }

type Phase string

const (
	PhaseGeneration   Phase = "generation"
	PhaseAvailability Phase = "availability"
	PhaseLooping      Phase = "looping"
	PhaseEnrichment   Phase = "enrichment"
	PhaseFinalize     Phase = "finalize"
)

type Job struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Phase       Phase      `json:"phase,omitempty"`
	Progress    int        `json:"progress"`
	CurrentLoop int        `json:"currentLoop"`
	TotalLoops  int        `json:"totalLoops"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Results     *Results   `json:"results,omitempty"`
	Error       *JobError  `json:"error,omitempty"`
}

// JobError is the serialisable error attached to a failed job.
type JobError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type Style string

const (
	StyleDefault    Style = "default"
	StyleBrandable  Style = "brandable"
	StyleTwoWords   Style = "twowords"
	StyleThreeWords Style = "threewords"
	StyleCompound   Style = "compound"
	StyleSpelling   Style = "spelling"
	StyleNonEnglish Style = "nonenglish"
	StyleDictionary Style = "dictionary"
)

// Styles lists every style arm in a stable order.
var Styles = []Style{
	StyleDefault, StyleBrandable, StyleTwoWords, StyleThreeWords,
	StyleCompound, StyleSpelling, StyleNonEnglish, StyleDictionary,
}

type Randomness string

const (
	RandomnessLow    Randomness = "low"
	RandomnessMedium Randomness = "medium"
	RandomnessHigh   Randomness = "high"
)

var RandomnessLevels = []Randomness{RandomnessLow, RandomnessMedium, RandomnessHigh}

type RepetitionLevel string

const (
	RepetitionOff      RepetitionLevel = "off"
	RepetitionGentle   RepetitionLevel = "gentle"
	RepetitionModerate RepetitionLevel = "moderate"
	RepetitionStrong   RepetitionLevel = "strong"
)

// Scale converts the level to a multiplier on the repetition penalty curve.
func (l RepetitionLevel) Scale() float64 {
	switch l {
	case RepetitionOff:
		return 0
	case RepetitionGentle:
		return 0.5
	case RepetitionStrong:
		return 1.6
	default:
		return 1.0
	}
}

// RewardPolicy weights the performance and exploration composites. Weights
// are normalised to sum to 1 during validation.
type RewardPolicy struct {
	PerformanceWeight float64 `json:"performanceWeight" yaml:"performance_weight"`
	ExplorationWeight float64 `json:"explorationWeight" yaml:"exploration_weight"`
}

// SearchInput is the validated, immutable configuration of one run.
type SearchInput struct {
	Keywords          string          `json:"keywords"`
	KeywordTokens     []string        `json:"keywordTokens"`
	Description       string          `json:"description,omitempty"`
	Style             Style           `json:"style"`
	Randomness        Randomness      `json:"randomness"`
	Blacklist         []string        `json:"blacklist,omitempty"`
	MaxLength         int             `json:"maxLength"`
	MaxNames          int             `json:"maxNames"`
	YearlyBudget      float64         `json:"yearlyBudget"`
	LoopCount         int             `json:"loopCount"`
	TLD               string          `json:"tld"`
	BackendURL        string          `json:"backendUrl,omitempty"`
	PreferEnglish     bool            `json:"preferEnglish"`
	RewardPolicy      RewardPolicy    `json:"rewardPolicy"`
	RepetitionPenalty RepetitionLevel `json:"repetitionPenaltyLevel"`
}

// LoopPlan is one optimizer decision.
type LoopPlan struct {
	Loop              int        `json:"loop"`
	SourceLoop        int        `json:"sourceLoop"`
	Style             Style      `json:"style"`
	Randomness        Randomness `json:"randomness"`
	MutationIntensity string     `json:"mutationIntensity"`
	ExplorationRate   float64    `json:"explorationRate"`
	Burst             bool       `json:"burst,omitempty"`
	Keywords          []string   `json:"keywords"`
}

type Candidate struct {
	Domain     string `json:"domain"`
	SourceName string `json:"sourceName"`
	Source     string `json:"source"`
}

type AvailabilityResult struct {
	Available  bool     `json:"available"`
	Definitive bool     `json:"definitive"`
	Price      *float64 `json:"price,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Period     int      `json:"period,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Factor is a named contribution to a score, positive for drivers and
// negative for detractors.
type Factor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"`
}

type SubScore struct {
	Score      float64  `json:"score"`
	Drivers    []Factor `json:"drivers,omitempty"`
	Detractors []Factor `json:"detractors,omitempty"`
}

type Comparable struct {
	Domain   string  `json:"domain"`
	Price    float64 `json:"price"`
	Distance float64 `json:"distance"`
}

type Valuation struct {
	EstimatedValue float64      `json:"estimatedValue"`
	ValueLow       float64      `json:"valueLow"`
	ValueHigh      float64      `json:"valueHigh"`
	Confidence     string       `json:"confidence"`
	Comparables    []Comparable `json:"comparables,omitempty"`
	CompsMedian    float64      `json:"compsMedian"`
	SaleProb12     float64      `json:"saleProbability12m"`
	SaleProb24     float64      `json:"saleProbability24m"`
	SaleProb36     float64      `json:"saleProbability36m"`
	ExpectedValue  float64      `json:"expectedValue"`
	ROI            *float64     `json:"roi,omitempty"`
	ValueRatio     *float64     `json:"valueRatio,omitempty"`
}

// ScoredDomain is a candidate with its availability and every score.
type ScoredDomain struct {
	Domain     string `json:"domain"`
	SourceName string `json:"sourceName,omitempty"`
	Label      string `json:"label"`
	TLD        string `json:"tld"`

	AvailabilityResult

	Words               []string `json:"words,omitempty"`
	SegmentationQuality float64  `json:"segmentationQuality"`
	Syllables           int      `json:"syllables"`

	Phonetic     SubScore `json:"phonetic"`
	Brandability SubScore `json:"brandability"`
	SEO          SubScore `json:"seo"`
	Commercial   SubScore `json:"commercial"`
	Memorability SubScore `json:"memorability"`
	Financial    SubScore `json:"financial"`

	MarketabilityScore  float64 `json:"marketabilityScore"`
	FinancialValueScore float64 `json:"financialValueScore"`
	OverallScore        float64 `json:"overallScore"`

	Valuation   Valuation `json:"valuation"`
	Underpriced bool      `json:"underpriced"`

	DevPopularity *int  `json:"devPopularity,omitempty"`
	Archived      *bool `json:"archived,omitempty"`

	FirstSeenLoop   int `json:"firstSeenLoop"`
	LastSeenLoop    int `json:"lastSeenLoop"`
	TimesDiscovered int `json:"timesDiscovered"`
}

// PriceOrInf returns the price, or +Inf semantics via ok=false when unknown.
func (d ScoredDomain) PriceOrInf() (float64, bool) {
	if d.Price == nil {
		return 0, false
	}
	return *d.Price, true
}

// WithinBudget reports whether d is available at or under budget. An
// available domain without a quoted price counts as within budget.
func (d ScoredDomain) WithinBudget(budget float64) bool {
	if !d.Available {
		return false
	}
	return d.Price == nil || *d.Price <= budget
}

type LoopSummary struct {
	Loop         int        `json:"loop"`
	Keywords     []string   `json:"keywords"`
	Style        Style      `json:"style"`
	Randomness   Randomness `json:"randomness"`
	Reward       float64    `json:"reward"`
	Generated    int        `json:"generated"`
	Available    int        `json:"available"`
	WithinBudget int        `json:"withinBudget"`
	TopDomain    string     `json:"topDomain,omitempty"`
	TopScore     float64    `json:"topScore"`
}

// Results is an immutable snapshot of the ranked views.
type Results struct {
	// AllRanked holds the available domains, within and over budget, ranked
	// by marketability. Unavailable domains are only listed in Unavailable.
	AllRanked     []ScoredDomain `json:"allRanked"`
	WithinBudget  []ScoredDomain `json:"withinBudget"`
	OverBudget    []ScoredDomain `json:"overBudget"`
	Unavailable   []ScoredDomain `json:"unavailable"`
	LoopSummaries []LoopSummary  `json:"loopSummaries"`
	TuningHistory []LoopPlan     `json:"tuningHistory"`
}

// ArmStat tracks plays and accumulated reward of one bandit arm.
type ArmStat struct {
	Plays  float64 `json:"plays"`
	Reward float64 `json:"reward"`
}

type TokenStat struct {
	Plays            float64 `json:"plays"`
	Reward           float64 `json:"reward"`
	Wins             int     `json:"winCount"`
	Losses           int     `json:"lossCount"`
	LastLoop         int     `json:"lastLoop"`
	ConsecutiveLoops int     `json:"consecutiveLoops"`
	DomainMatches    int     `json:"domainMatches"`
	DomainScoreSum   float64 `json:"domainScoreSum"`
}

type EliteDomain struct {
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
	Loop   int     `json:"loop"`
}

// OptimizerModel is the persisted cross-run optimizer state.
type OptimizerModel struct {
	Version    int                    `json:"version"`
	Runs       int                    `json:"runs"`
	Styles     map[Style]ArmStat      `json:"styles"`
	Randomness map[Randomness]ArmStat `json:"randomness"`
	Tokens     map[string]TokenStat   `json:"tokens"`
	Elite      []EliteDomain          `json:"elite"`
	Features   map[string]ArmStat     `json:"features"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

const ModelVersion = 2

// NewOptimizerModel returns an empty model with initialised maps.
func NewOptimizerModel() OptimizerModel {
	return OptimizerModel{
		Version:    ModelVersion,
		Styles:     make(map[Style]ArmStat),
		Randomness: make(map[Randomness]ArmStat),
		Tokens:     make(map[string]TokenStat),
		Features:   make(map[string]ArmStat),
	}
}

// Clone deep-copies the model so pure updates never alias the input.
func (m OptimizerModel) Clone() OptimizerModel {
	out := m
	out.Styles = make(map[Style]ArmStat, len(m.Styles))
	for k, v := range m.Styles {
		out.Styles[k] = v
	}
	out.Randomness = make(map[Randomness]ArmStat, len(m.Randomness))
	for k, v := range m.Randomness {
		out.Randomness[k] = v
	}
	out.Tokens = make(map[string]TokenStat, len(m.Tokens))
	for k, v := range m.Tokens {
		out.Tokens[k] = v
	}
	out.Features = make(map[string]ArmStat, len(m.Features))
	for k, v := range m.Features {
		out.Features[k] = v
	}
	out.Elite = append([]EliteDomain(nil), m.Elite...)
	return out
}

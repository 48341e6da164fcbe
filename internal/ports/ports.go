package ports

import (
	"context"

	"domainwizard/internal/domain"
)

// Searcher starts, tracks and cancels search jobs.
type Searcher interface {
	Start(ctx context.Context, raw domain.RawInput) (domain.Job, error)
	Cancel(ctx context.Context, jobID string) (domain.Job, error)
	Get(ctx context.Context, jobID string) (domain.Job, error)
	// Subscribe streams a copy of the job after every transition. The channel
	// is closed once the job is terminal or cancel is called.
	Subscribe(jobID string) (<-chan domain.Job, func(), error)
}

// Appraiser scores a single domain on demand.
type Appraiser interface {
	Appraise(ctx context.Context, name string, price *float64) (domain.ScoredDomain, error)
}

// NameRequest is the body sent to the name-generation service.
type NameRequest struct {
	Keywords    string            `json:"keywords"`
	Description string            `json:"description"`
	Blacklist   []string          `json:"blacklist"`
	MaxLength   int               `json:"maxLength"`
	TLD         string            `json:"tld"`
	Style       domain.Style      `json:"style"`
	Randomness  domain.Randomness `json:"randomness"`
	MaxNames    int               `json:"maxNames"`
	PrevNames   []string          `json:"prevNames"`
}

type NameGenerator interface {
	Generate(ctx context.Context, req NameRequest) ([]domain.Candidate, error)
}

// AvailabilityBackend checks up to 100 domains per call against baseURL.
type AvailabilityBackend interface {
	Check(ctx context.Context, baseURL string, domains []string) (map[string]domain.AvailabilityResult, error)
}

// RDAP looks up one domain and returns the HTTP status of the response.
type RDAP interface {
	Lookup(ctx context.Context, name string) (status int, err error)
}

// DevEcosystem reports how many public repositories mention a word.
type DevEcosystem interface {
	Popularity(ctx context.Context, word string) (int, error)
}

// Archive reports whether a web archive holds a snapshot of a domain.
type Archive interface {
	HasSnapshot(ctx context.Context, name string) (bool, error)
}

// WordAssociation returns words related to a seed, most related first.
type WordAssociation interface {
	Related(ctx context.Context, word string, limit int) ([]string, error)
}

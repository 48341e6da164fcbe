package ports

import (
	"context"
	"time"

	"domainwizard/internal/domain"
)

// DefaultModelKey identifies the optimizer record in a ModelStore.
const DefaultModelKey = "domain-wizard-bandit-v2"

// ModelStore persists the optimizer model as one whole record.
type ModelStore interface {
	Load(ctx context.Context, key string) (model domain.OptimizerModel, found bool, err error)
	Save(ctx context.Context, key string, model domain.OptimizerModel) error
}

// SharedCache is a string cache shared between processes.
type SharedCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

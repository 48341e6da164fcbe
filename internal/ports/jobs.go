package ports

import (
	"context"
	"time"

	"domainwizard/internal/domain"
)

// RunRecord is the stored history row of one search job.
type RunRecord struct {
	ID          string           `json:"id"`
	Status      domain.JobStatus `json:"status"`
	Keywords    string           `json:"keywords"`
	TLD         string           `json:"tld"`
	TotalLoops  int              `json:"totalLoops"`
	Progress    int              `json:"progress"`
	ErrorCode   string           `json:"errorCode,omitempty"`
	Error       string           `json:"error,omitempty"`
	TopDomain   string           `json:"topDomain,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// RunRepository records search runs for later inspection.
type RunRepository interface {
	Create(ctx context.Context, job domain.Job, in domain.SearchInput) error
	MarkRunning(ctx context.Context, jobID string) error
	UpdateProgress(ctx context.Context, jobID string, progress, loop int) error
	MarkCompleted(ctx context.Context, jobID string, results *domain.Results) error
	MarkFailed(ctx context.Context, jobID string, code domain.ErrorCode, reason string) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
}

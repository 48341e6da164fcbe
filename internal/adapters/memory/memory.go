// Package memory holds in-process implementations of the storage ports, used
// when no database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"domainwizard/internal/domain"
	"domainwizard/internal/ports"
)

type ModelStore struct {
	mu     sync.RWMutex
	models map[string]domain.OptimizerModel
}

func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[string]domain.OptimizerModel)}
}

func (s *ModelStore) Load(_ context.Context, key string) (domain.OptimizerModel, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[key]
	if !ok {
		return domain.OptimizerModel{}, false, nil
	}
	return m.Clone(), true, nil
}

func (s *ModelStore) Save(_ context.Context, key string, m domain.OptimizerModel) error {
	s.mu.Lock()
	s.models[key] = m.Clone()
	s.mu.Unlock()
	return nil
}

// RunRepository keeps the most recent runs in memory.
type RunRepository struct {
	mu    sync.Mutex
	runs  map[string]*ports.RunRecord
	limit int
	now   func() time.Time
}

func NewRunRepository(limit int) *RunRepository {
	if limit <= 0 {
		limit = 100
	}
	return &RunRepository{runs: make(map[string]*ports.RunRecord), limit: limit, now: time.Now}
}

func (r *RunRepository) Create(_ context.Context, job domain.Job, in domain.SearchInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[job.ID] = &ports.RunRecord{
		ID:         job.ID,
		Status:     job.Status,
		Keywords:   in.Keywords,
		TLD:        in.TLD,
		TotalLoops: job.TotalLoops,
		CreatedAt:  job.CreatedAt,
	}
	r.evict()
	return nil
}

// evict drops the oldest runs beyond the limit. Callers hold mu.
func (r *RunRepository) evict() {
	if len(r.runs) <= r.limit {
		return
	}
	all := r.sorted()
	for _, rec := range all[r.limit:] {
		delete(r.runs, rec.ID)
	}
}

func (r *RunRepository) update(id string, fn func(*ports.RunRecord) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	return fn(rec)
}

func (r *RunRepository) MarkRunning(_ context.Context, jobID string) error {
	return r.update(jobID, func(rec *ports.RunRecord) error {
		if !rec.Status.Terminal() {
			rec.Status = domain.StatusRunning
		}
		return nil
	})
}

func (r *RunRepository) UpdateProgress(_ context.Context, jobID string, progress, _ int) error {
	return r.update(jobID, func(rec *ports.RunRecord) error {
		if progress > rec.Progress {
			rec.Progress = min(progress, 100)
		}
		return nil
	})
}

func (r *RunRepository) MarkCompleted(_ context.Context, jobID string, res *domain.Results) error {
	return r.update(jobID, func(rec *ports.RunRecord) error {
		if rec.Status.Terminal() {
			return domain.ErrTerminalJob
		}
		rec.Status = domain.StatusDone
		rec.Progress = 100
		if res != nil && len(res.AllRanked) > 0 {
			rec.TopDomain = res.AllRanked[0].Domain
		}
		at := r.now()
		rec.CompletedAt = &at
		return nil
	})
}

func (r *RunRepository) MarkFailed(_ context.Context, jobID string, code domain.ErrorCode, reason string) error {
	return r.update(jobID, func(rec *ports.RunRecord) error {
		if rec.Status.Terminal() {
			return domain.ErrTerminalJob
		}
		rec.Status = domain.StatusFailed
		rec.ErrorCode = string(code)
		rec.Error = reason
		at := r.now()
		rec.CompletedAt = &at
		return nil
	})
}

func (r *RunRepository) List(_ context.Context, limit int) ([]ports.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]ports.RunRecord, len(all))
	for i, rec := range all {
		out[i] = *rec
	}
	return out, nil
}

// sorted returns the runs newest first. Callers hold mu.
func (r *RunRepository) sorted() []*ports.RunRecord {
	all := make([]*ports.RunRecord, 0, len(r.runs))
	for _, rec := range r.runs {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return all
}

// Cache is a process-local SharedCache with per-entry expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   string
	expires time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Package availability resolves candidate domains to availability results,
// through the batch backend when it works and per-domain RDAP otherwise.
package availability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"domainwizard/internal/domain"
	"domainwizard/internal/logger"
	"domainwizard/internal/metrics"
	"domainwizard/internal/ports"
)

const (
	ChunkSize               = 100
	DefaultRDAPDelay        = 250 * time.Millisecond
	DefaultRateLimitBackoff = 11 * time.Second
	// DefaultRateLimitRetries bounds how often one domain is retried after 429.
	DefaultRateLimitRetries = 6

	ReasonNoData = "no data"
)

type Options struct {
	// BaseURL of the batch backend; empty skips straight to RDAP.
	BaseURL          string
	RDAPDelay        time.Duration
	RateLimitBackoff time.Duration
	RateLimitRetries int
}

// Resolver is per job: once the backend fails it stays disabled for the
// rest of the job.
type Resolver struct {
	backend ports.AvailabilityBackend
	rdap    ports.RDAP
	log     logger.Logger
	opts    Options

	limiter  *rate.Limiter
	disabled bool
	sleep    func(ctx context.Context, cancel *domain.CancelToken, d time.Duration) error
}

func NewResolver(backend ports.AvailabilityBackend, rdap ports.RDAP, log logger.Logger, opts Options) *Resolver {
	if opts.RDAPDelay <= 0 {
		opts.RDAPDelay = DefaultRDAPDelay
	}
	if opts.RateLimitBackoff <= 0 {
		opts.RateLimitBackoff = DefaultRateLimitBackoff
	}
	if opts.RateLimitRetries <= 0 {
		opts.RateLimitRetries = DefaultRateLimitRetries
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{
		backend: backend,
		rdap:    rdap,
		log:     log,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.RDAPDelay), 1),
		sleep:   sleep,
	}
}

// BackendDisabled reports whether the batch backend has been switched off.
func (r *Resolver) BackendDisabled() bool { return r.disabled }

// Progress is called with the number of domains resolved so far.
type Progress func(done, total int)

// Resolve returns one result per distinct input domain, keyed lowercase.
// Cancellation is observed between fallback lookups; the results gathered
// so far are returned with domain.ErrCanceled.
func (r *Resolver) Resolve(ctx context.Context, names []string, cancel *domain.CancelToken, progress Progress) (map[string]domain.AvailabilityResult, error) {
	pending := normalize(names)
	total := len(pending)
	out := make(map[string]domain.AvailabilityResult, total)
	report := func() {
		if progress != nil {
			progress(len(out), total)
		}
	}

	if r.backend != nil && r.opts.BaseURL != "" && !r.disabled {
		for start := 0; start < len(pending); start += ChunkSize {
			chunk := pending[start:min(start+ChunkSize, len(pending))]
			res, err := r.backend.Check(ctx, r.opts.BaseURL, chunk)
			if err != nil {
				r.disable(err)
				break
			}
			for _, d := range chunk {
				v, ok := lookup(res, d)
				if !ok {
					v = domain.AvailabilityResult{Reason: ReasonNoData}
				}
				out[d] = v
				metrics.RecordAvailability("backend", v.Available, v.Definitive)
			}
			report()
		}
	}

	for _, d := range pending {
		if _, done := out[d]; done {
			continue
		}
		if err := cancel.Check(); err != nil {
			return out, err
		}
		v, err := r.fallback(ctx, cancel, d)
		if err != nil {
			return out, err
		}
		out[d] = v
		metrics.RecordAvailability("rdap", v.Available, v.Definitive)
		report()
	}
	return out, nil
}

func (r *Resolver) disable(err error) {
	r.disabled = true
	metrics.BackendDisabled.Inc()
	metrics.CollaboratorErrors.WithLabelValues("availability").Inc()
	r.log.Warn("availability backend disabled for this job, falling back to rdap",
		logger.String("base_url", r.opts.BaseURL),
		logger.String("code", string(domain.CodeOf(err))),
		logger.Error(err),
	)
}

// fallback resolves one domain over RDAP, retrying in place after 429.
func (r *Resolver) fallback(ctx context.Context, cancel *domain.CancelToken, name string) (domain.AvailabilityResult, error) {
	if r.rdap == nil {
		return domain.AvailabilityResult{Reason: ReasonNoData}, nil
	}
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return domain.AvailabilityResult{}, fmt.Errorf("rdap pacing: %w", err)
		}
		status, err := r.rdap.Lookup(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return domain.AvailabilityResult{}, ctx.Err()
			}
			metrics.CollaboratorErrors.WithLabelValues("rdap").Inc()
			r.log.Debug("rdap lookup failed", logger.String("domain", name), logger.Error(err))
			return domain.AvailabilityResult{Reason: ReasonNoData}, nil
		}
		if status == http.StatusTooManyRequests && attempt < r.opts.RateLimitRetries {
			r.log.Info("rdap rate limited, backing off",
				logger.String("domain", name), logger.Duration("backoff", r.opts.RateLimitBackoff))
			if err := r.sleep(ctx, cancel, r.opts.RateLimitBackoff); err != nil {
				return domain.AvailabilityResult{}, err
			}
			continue
		}
		return FromRDAPStatus(status), nil
	}
}

// FromRDAPStatus maps an RDAP response status: 200 means registered, 404
// means free, anything else is inconclusive.
func FromRDAPStatus(status int) domain.AvailabilityResult {
	switch status {
	case http.StatusOK:
		return domain.AvailabilityResult{Available: false, Definitive: true, Reason: "registered"}
	case http.StatusNotFound:
		return domain.AvailabilityResult{Available: true, Definitive: true, Reason: "not registered"}
	default:
		return domain.AvailabilityResult{Reason: fmt.Sprintf("rdap status %d", status)}
	}
}

func sleep(ctx context.Context, cancel *domain.CancelToken, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cancel.Done():
		return domain.ErrCanceled
	case <-t.C:
		return nil
	}
}

func lookup(res map[string]domain.AvailabilityResult, name string) (domain.AvailabilityResult, bool) {
	if v, ok := res[name]; ok {
		return v, true
	}
	for k, v := range res {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return domain.AvailabilityResult{}, false
}

func normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Package appraisal scores a single domain on demand.
package appraisal

import (
	"context"

	"domainwizard/internal/availability"
	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
	"domainwizard/internal/logger"
	"domainwizard/internal/ports"
	"domainwizard/internal/scoring"
)

// ReasonNotChecked marks an appraisal made without an availability lookup.
const ReasonNotChecked = "not checked"

type Service struct {
	ctx     *engine.Context
	scorer  *scoring.Scorer
	rdap    ports.RDAP
	dev     ports.DevEcosystem
	archive ports.Archive
}

// New returns an appraiser. rdap, dev and archive may be nil.
func New(ctx *engine.Context, rdap ports.RDAP, dev ports.DevEcosystem, archive ports.Archive) *Service {
	return &Service{ctx: ctx, scorer: scoring.NewScorer(ctx), rdap: rdap, dev: dev, archive: archive}
}

// Appraise scores name as if quoted at price (nil for unknown).
func (s *Service) Appraise(ctx context.Context, name string, price *float64) (domain.ScoredDomain, error) {
	registrable, err := domain.ParseDomainName(name)
	if err != nil {
		return domain.ScoredDomain{}, err
	}
	if price != nil && *price < 0 {
		return domain.ScoredDomain{}, domain.NewError(domain.CodeInvalidInput, "price must not be negative")
	}
	log := s.ctx.Logger.With(logger.String("domain", registrable))

	avail := domain.AvailabilityResult{Reason: ReasonNotChecked}
	if s.rdap != nil {
		status, err := s.rdap.Lookup(ctx, registrable)
		if err != nil {
			log.Warn("rdap lookup failed", logger.Error(err))
		} else {
			avail = availability.FromRDAPStatus(status)
		}
	}
	if price != nil {
		p := *price
		avail.Price = &p
		avail.Currency = "USD"
	}

	base := s.scorer.Score(scoring.Input{Domain: registrable, Availability: avail})

	var e scoring.Enrichment
	if s.dev != nil {
		if n, err := s.dev.Popularity(ctx, scoring.PrimaryWord(base)); err != nil {
			log.Debug("dev popularity lookup failed", logger.Error(err))
		} else {
			e.DevPopularity = &n
		}
	}
	if s.archive != nil {
		if ok, err := s.archive.HasSnapshot(ctx, registrable); err != nil {
			log.Debug("archive lookup failed", logger.Error(err))
		} else {
			e.Archived = &ok
		}
	}
	if e.DevPopularity == nil && e.Archived == nil {
		return base, nil
	}
	return s.scorer.Rescore(base, nil, e), nil
}

// Package app assembles the engine, collaborators and services shared by the
// server and the CLI.
package app

import (
	"fmt"
	"net/http"
	"time"

	"domainwizard/internal/adapters/enrichment"
	"domainwizard/internal/adapters/namegen"
	"domainwizard/internal/adapters/rdap"
	"domainwizard/internal/adapters/registrar"
	"domainwizard/internal/availability"
	"domainwizard/internal/config"
	"domainwizard/internal/engine"
	"domainwizard/internal/logger"
	"domainwizard/internal/ports"
	"domainwizard/internal/services/appraisal"
	"domainwizard/internal/services/search"
	"domainwizard/internal/workers/searchrunner"
)

// Stores are the persistence choices of the calling binary. Runs and Shared
// may be nil.
type Stores struct {
	Models ports.ModelStore
	Runs   ports.RunRepository
	Shared ports.SharedCache
}

type buildOptions struct {
	offline bool
}

type Option func(*buildOptions)

// Offline leaves out every network collaborator: names are synthesised
// locally and availability resolves to "no data".
func Offline() Option { return func(o *buildOptions) { o.offline = true } }

type Components struct {
	Engine    *engine.Context
	Runner    *searchrunner.Runner
	Search    *search.Service
	Appraiser *appraisal.Service
}

// Build wires every collaborator named in cfg. Collaborators without a URL
// are left out; the runner falls back to local generation and RDAP.
func Build(cfg config.Config, log logger.Logger, st Stores, opts ...Option) (*Components, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	ectx, err := engine.New(engine.WithLogger(log), engine.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if o.offline {
		runner := searchrunner.New(searchrunner.Deps{
			Engine:         ectx,
			Models:         st.Models,
			ModelKey:       cfg.ModelKey,
			Policy:         cfg.Policy,
			InterLoopDelay: cfg.InterLoopDelay,
			EnrichLimit:    cfg.EnrichLimit,
		})
		return &Components{
			Engine:    ectx,
			Runner:    runner,
			Search:    search.New(runner, st.Runs, log),
			Appraiser: appraisal.New(ectx, nil, nil, nil),
		}, nil
	}

	hc := &http.Client{Timeout: 30 * time.Second}
	var names ports.NameGenerator
	if cfg.NameGenURL != "" {
		names = namegen.New(cfg.NameGenURL, hc)
	} else {
		log.Info("NAMEGEN_URL not set, using local name synthesis only")
	}

	rdapClient := rdap.New(cfg.RDAPBaseURL, hc)

	gh, err := enrichment.NewGitHub(cfg.GitHubToken, "", nil)
	if err != nil {
		return nil, fmt.Errorf("github client: %w", err)
	}
	dev := enrichment.NewCachedDevEcosystem(gh, ectx, st.Shared)
	archive := enrichment.NewCachedArchive(enrichment.NewWayback(cfg.WaybackURL, nil), ectx, st.Shared)

	runner := searchrunner.New(searchrunner.Deps{
		Engine:   ectx,
		NameGen:  names,
		Backend:  registrar.New(hc, cfg.RegistrarAPIKey),
		RDAP:     rdapClient,
		Dev:      dev,
		Archive:  archive,
		Words:    enrichment.NewDatamuse(cfg.DatamuseURL, nil),
		Models:   st.Models,
		ModelKey: cfg.ModelKey,
		Policy:   cfg.Policy,
		Availability: availability.Options{
			BaseURL:          cfg.RegistrarURL,
			RDAPDelay:        cfg.RDAPDelay,
			RateLimitBackoff: cfg.RateLimitBackoff,
			RateLimitRetries: cfg.RateLimitRetries,
		},
		InterLoopDelay: cfg.InterLoopDelay,
		EnrichLimit:    cfg.EnrichLimit,
	})

	return &Components{
		Engine:    ectx,
		Runner:    runner,
		Search:    search.New(runner, st.Runs, log),
		Appraiser: appraisal.New(ectx, rdapClient, dev, archive),
	}, nil
}

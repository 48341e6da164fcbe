// Package engine holds the per-process context shared by every component of
// the search pipeline.
package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"domainwizard/internal/lexicon"
	"domainwizard/internal/logger"
)

const DefaultCacheSize = 4096

// Context carries the loaded lexicon, the logger and the enrichment caches.
// Build one per process and pass it by pointer into constructors.
type Context struct {
	Lexicon *lexicon.Lexicon
	Logger  logger.Logger

	// DevPopularity caches word -> repository count lookups.
	DevPopularity *lru.Cache[string, int]
	// Archived caches domain -> snapshot existence lookups.
	Archived *lru.Cache[string, bool]
}

type Option func(*options)

type options struct {
	cacheSize int
	logger    logger.Logger
	lexicon   *lexicon.Lexicon
}

func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

func WithLogger(l logger.Logger) Option { return func(o *options) { o.logger = l } }

func WithLexicon(l *lexicon.Lexicon) Option { return func(o *options) { o.lexicon = l } }

// New loads the shared lexicon (unless one is supplied) and allocates caches.
func New(opts ...Option) (*Context, error) {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.lexicon == nil {
		lx, err := lexicon.Shared()
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		o.lexicon = lx
	}

	dev, err := lru.New[string, int](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("dev popularity cache: %w", err)
	}
	arch, err := lru.New[string, bool](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("archive cache: %w", err)
	}
	return &Context{
		Lexicon:       o.lexicon,
		Logger:        o.logger,
		DevPopularity: dev,
		Archived:      arch,
	}, nil
}

// MustNew is New for tests and initialisation paths where failure is fatal.
func MustNew(opts ...Option) *Context {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

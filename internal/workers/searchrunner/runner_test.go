package searchrunner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwizard/internal/adapters/memory"
	"domainwizard/internal/availability"
	"domainwizard/internal/domain"
	"domainwizard/internal/engine"
	"domainwizard/internal/ports"
)

type freeRDAP struct {
	mu    sync.Mutex
	calls int
}

func (f *freeRDAP) Lookup(context.Context, string) (int, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return 404, nil
}

type failingBackend struct{ calls int }

func (f *failingBackend) Check(context.Context, string, []string) (map[string]domain.AvailabilityResult, error) {
	f.calls++
	return nil, domain.NewError(domain.CodeUpstreamAPI, "availability backend status 500")
}

type panicNameGen struct{}

func (panicNameGen) Generate(context.Context, ports.NameRequest) ([]domain.Candidate, error) {
	panic("boom")
}

type fixedDev struct{}

func (fixedDev) Popularity(context.Context, string) (int, error) { return 25000, nil }

type countingDev struct {
	mu    sync.Mutex
	calls int
}

func (c *countingDev) Popularity(context.Context, string) (int, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return 10, nil
}

type flakyArchive struct{}

func (flakyArchive) HasSnapshot(context.Context, string) (bool, error) {
	return false, errors.New("archive down")
}

func testInput(t *testing.T, loops int) domain.SearchInput {
	t.Helper()
	in, err := domain.ValidateInput(domain.RawInput{
		Keywords: "coffee roast", LoopCount: loops, MaxNames: 5, TLD: "com",
	})
	require.NoError(t, err)
	return in
}

func testDeps(rdap ports.RDAP, models ports.ModelStore) Deps {
	var seed uint64 = 7
	return Deps{
		Engine:       engine.MustNew(),
		RDAP:         rdap,
		Models:       models,
		Availability: availability.Options{RDAPDelay: time.Millisecond},
		Seed:         func() uint64 { seed++; return seed },
	}
}

type recorder struct {
	mu          sync.Mutex
	transitions []domain.Transition
}

func (r *recorder) emit(t domain.Transition) {
	r.mu.Lock()
	r.transitions = append(r.transitions, t)
	r.mu.Unlock()
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 5, Progress(0, 0, 4))
	assert.Equal(t, 28, Progress(1, 0, 4))
	assert.Equal(t, 95, Progress(4, 0, 4))
	assert.Equal(t, 50, Progress(0, 0.5, 1))
	assert.Equal(t, 95, Progress(0, 3, 1))
	assert.Equal(t, 5, Progress(0, 0, 0))
}

func TestRun_CompletesAllLoops(t *testing.T) {
	store := memory.NewModelStore()
	rdap := &freeRDAP{}
	rec := &recorder{}
	in := testInput(t, 2)

	res, err := New(testDeps(rdap, store)).Run(context.Background(), "j1", in, domain.NewCancelToken(), rec.emit)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, res.LoopSummaries, 2)
	require.Len(t, res.TuningHistory, 2)
	assert.NotEmpty(t, res.AllRanked)
	assert.LessOrEqual(t, len(res.AllRanked), 5)
	for _, d := range res.AllRanked {
		assert.True(t, strings.HasSuffix(d.Domain, ".com"), d.Domain)
		assert.GreaterOrEqual(t, d.OverallScore, 0.0)
		assert.LessOrEqual(t, d.OverallScore, 100.0)
		assert.True(t, d.Available)
	}
	assert.Positive(t, rdap.calls)

	last := 0
	loops := 0
	for _, tr := range rec.transitions {
		if tr.Kind != domain.TransitionAdvance {
			continue
		}
		assert.GreaterOrEqual(t, tr.Progress, last)
		assert.Less(t, tr.Progress, 100)
		last = tr.Progress
		if tr.Loop > loops {
			loops = tr.Loop
		}
	}
	assert.Equal(t, 2, loops)

	m, found, err := store.Load(context.Background(), ports.DefaultModelKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, m.Runs)
	assert.NotEmpty(t, m.Tokens)
}

func TestRun_SecondRunResumesModel(t *testing.T) {
	store := memory.NewModelStore()
	deps := testDeps(&freeRDAP{}, store)
	r := New(deps)
	for i := 0; i < 2; i++ {
		_, err := r.Run(context.Background(), "j", testInput(t, 1), domain.NewCancelToken(), nil)
		require.NoError(t, err)
	}
	m, _, err := store.Load(context.Background(), ports.DefaultModelKey)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Runs)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	tok := domain.NewCancelToken()
	tok.Cancel()
	store := memory.NewModelStore()

	_, err := New(testDeps(&freeRDAP{}, store)).Run(context.Background(), "j1", testInput(t, 3), tok, nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeCanceled, domain.CodeOf(err))

	_, found, _ := store.Load(context.Background(), ports.DefaultModelKey)
	assert.False(t, found, "a canceled run must not persist the model")
}

func TestRun_BackendFailureFallsBackToRDAP(t *testing.T) {
	backend := &failingBackend{}
	rdap := &freeRDAP{}
	deps := testDeps(rdap, nil)
	deps.Backend = backend
	deps.Availability.BaseURL = "http://registrar.invalid"

	res, err := New(deps).Run(context.Background(), "j1", testInput(t, 2), domain.NewCancelToken(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls, "the backend stays disabled for the rest of the job")
	assert.Positive(t, rdap.calls)
	for _, d := range res.AllRanked {
		assert.True(t, d.Definitive)
	}
}

func TestRun_EnrichmentFoldsSignals(t *testing.T) {
	deps := testDeps(&freeRDAP{}, nil)
	deps.Dev = fixedDev{}
	deps.Archive = flakyArchive{}
	rec := &recorder{}

	res, err := New(deps).Run(context.Background(), "j1", testInput(t, 1), domain.NewCancelToken(), rec.emit)
	require.NoError(t, err)
	require.NotEmpty(t, res.AllRanked)
	for _, d := range res.AllRanked {
		require.NotNil(t, d.DevPopularity, d.Domain)
		assert.Equal(t, 25000, *d.DevPopularity)
		assert.Nil(t, d.Archived)
	}

	phases := map[domain.Phase]bool{}
	for _, tr := range rec.transitions {
		phases[tr.Phase] = true
	}
	assert.True(t, phases[domain.PhaseEnrichment])
	assert.True(t, phases[domain.PhaseFinalize])
}

func TestRun_EnrichLimitBoundsLookups(t *testing.T) {
	dev := &countingDev{}
	deps := testDeps(&freeRDAP{}, nil)
	deps.Dev = dev
	deps.EnrichLimit = 2

	res, err := New(deps).Run(context.Background(), "j1", testInput(t, 1), domain.NewCancelToken(), nil)
	require.NoError(t, err)
	require.Greater(t, len(res.AllRanked), 2)
	assert.Equal(t, 2, dev.calls)
}

func TestRun_PanicBecomesInternalError(t *testing.T) {
	deps := testDeps(&freeRDAP{}, nil)
	deps.NameGen = panicNameGen{}

	_, err := New(deps).Run(context.Background(), "j1", testInput(t, 1), domain.NewCancelToken(), nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))
	assert.Contains(t, err.Error(), "boom")
}

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"domainwizard/internal/adapters/memory"
	"domainwizard/internal/domain"
	"domainwizard/internal/workers/searchrunner"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stepRunner emits one advance per loop and waits for release between loops.
type stepRunner struct {
	release chan struct{}
	err     error
}

func (r *stepRunner) Run(ctx context.Context, _ string, in domain.SearchInput, cancel *domain.CancelToken, emit searchrunner.Emit) (*domain.Results, error) {
	for loop := 1; loop <= in.LoopCount; loop++ {
		select {
		case <-r.release:
		case <-cancel.Done():
			return nil, domain.ErrCanceled
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		emit(domain.Advanced(domain.PhaseLooping, loop, searchrunner.Progress(loop, 0, in.LoopCount), time.Now()))
	}
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Results{AllRanked: []domain.ScoredDomain{{Domain: "brewly.com", OverallScore: 71}}}, nil
}

func newService(t *testing.T, r Runner) (*Service, *memory.RunRepository) {
	t.Helper()
	runs := memory.NewRunRepository(10)
	s := New(r, runs, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Close(ctx))
	})
	return s, runs
}

func raw(loops int) domain.RawInput {
	return domain.RawInput{Keywords: "coffee roast", LoopCount: loops, MaxNames: 5, TLD: "com"}
}

func waitDone(t *testing.T, s *Service, id string) domain.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	j, err := s.Wait(ctx, id)
	require.NoError(t, err)
	return j
}

func TestStart_InvalidInput(t *testing.T) {
	s, _ := newService(t, &stepRunner{})
	_, err := s.Start(context.Background(), domain.RawInput{Keywords: "x"})
	assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
}

func TestStart_RunsToDone(t *testing.T) {
	r := &stepRunner{release: make(chan struct{}, 3)}
	s, runs := newService(t, r)

	job, err := s.Start(context.Background(), raw(3))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, job.Status)
	assert.Equal(t, 3, job.TotalLoops)

	events, unsubscribe, err := s.Subscribe(job.ID)
	require.NoError(t, err)
	defer unsubscribe()

	for i := 0; i < 3; i++ {
		r.release <- struct{}{}
	}

	var seen []domain.Job
	for j := range events {
		seen = append(seen, j)
	}
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, domain.StatusDone, last.Status)
	assert.Equal(t, 100, last.Progress)
	require.NotNil(t, last.Results)
	assert.Equal(t, "brewly.com", last.Results.AllRanked[0].Domain)

	prev := 0
	for _, j := range seen {
		assert.GreaterOrEqual(t, j.Progress, prev)
		prev = j.Progress
	}

	waitDone(t, s, job.ID)
	history, err := runs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusDone, history[0].Status)
	assert.Equal(t, "brewly.com", history[0].TopDomain)
}

func TestStart_AlreadyRunning(t *testing.T) {
	r := &stepRunner{release: make(chan struct{})}
	s, _ := newService(t, r)

	job, err := s.Start(context.Background(), raw(1))
	require.NoError(t, err)
	_, err = s.Start(context.Background(), raw(1))
	assert.True(t, errors.Is(err, domain.ErrAlreadyRunning))

	r.release <- struct{}{}
	got := waitDone(t, s, job.ID)
	assert.Equal(t, domain.StatusDone, got.Status)

	next, err := s.Start(context.Background(), raw(1))
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, next.ID)
	_, err = s.Get(context.Background(), job.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "only the latest job is kept")
	r.release <- struct{}{}
	waitDone(t, s, next.ID)
}

func TestCancel_ImmediatelyAfterStart(t *testing.T) {
	s, runs := newService(t, &stepRunner{release: make(chan struct{})})

	job, err := s.Start(context.Background(), raw(3))
	require.NoError(t, err)
	canceled, err := s.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, canceled.Status)
	require.NotNil(t, canceled.Error)
	assert.Equal(t, domain.CodeCanceled, canceled.Error.Code)

	final := waitDone(t, s, job.ID)
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Equal(t, domain.CodeCanceled, final.Error.Code)
	assert.Equal(t, canceled.Progress, final.Progress)

	again, err := s.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, final, again)

	history, _ := runs.List(context.Background(), 1)
	assert.Equal(t, string(domain.CodeCanceled), history[0].ErrorCode)
}

func TestCancel_Unknown(t *testing.T) {
	s, _ := newService(t, &stepRunner{})
	_, err := s.Cancel(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, _, err = s.Subscribe("nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRunnerFailure_KeepsProgress(t *testing.T) {
	r := &stepRunner{release: make(chan struct{}, 2), err: errors.New("scoring exploded")}
	s, _ := newService(t, r)

	job, err := s.Start(context.Background(), raw(2))
	require.NoError(t, err)
	r.release <- struct{}{}
	r.release <- struct{}{}

	final := waitDone(t, s, job.ID)
	assert.Equal(t, domain.StatusFailed, final.Status)
	assert.Equal(t, domain.CodeInternal, final.Error.Code)
	assert.Equal(t, 95, final.Progress)
}

func TestSubscribe_TerminalJobClosesAfterSnapshot(t *testing.T) {
	r := &stepRunner{release: make(chan struct{}, 1)}
	s, _ := newService(t, r)
	job, err := s.Start(context.Background(), raw(1))
	require.NoError(t, err)
	r.release <- struct{}{}
	waitDone(t, s, job.ID)

	events, unsubscribe, err := s.Subscribe(job.ID)
	require.NoError(t, err)
	defer unsubscribe()
	j, ok := <-events
	require.True(t, ok)
	assert.Equal(t, domain.StatusDone, j.Status)
	_, ok = <-events
	assert.False(t, ok)
}

func TestClose_StopsRunningJob(t *testing.T) {
	s := New(&stepRunner{release: make(chan struct{})}, nil, nil)
	job, err := s.Start(context.Background(), raw(5))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	got, err := s.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	_, err = s.Start(context.Background(), raw(1))
	assert.Error(t, err)
}

func TestWait_ConcurrentWithTransitions(t *testing.T) {
	r := &stepRunner{release: make(chan struct{}, 4)}
	s, _ := newService(t, r)
	job, err := s.Start(context.Background(), raw(4))
	require.NoError(t, err)

	results := make(chan domain.Job, 3)
	for i := 0; i < 3; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			j, err := s.Wait(ctx, job.ID)
			if err != nil {
				j = domain.Job{}
			}
			results <- j
		}()
	}
	for i := 0; i < 4; i++ {
		r.release <- struct{}{}
		_, _ = s.Get(context.Background(), job.ID)
	}

	for i := 0; i < 3; i++ {
		j := <-results
		assert.Equal(t, job.ID, j.ID)
		assert.Equal(t, domain.StatusDone, j.Status)
	}
}

func TestWait_ReturnsFinalRecordAfterCancel(t *testing.T) {
	s, _ := newService(t, &stepRunner{release: make(chan struct{})})
	job, err := s.Start(context.Background(), raw(3))
	require.NoError(t, err)

	waited := make(chan domain.Job, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		j, _ := s.Wait(ctx, job.ID)
		waited <- j
	}()
	_, err = s.Cancel(context.Background(), job.ID)
	require.NoError(t, err)

	j := <-waited
	assert.Equal(t, job.ID, j.ID)
	assert.Equal(t, domain.StatusFailed, j.Status)
	assert.Equal(t, domain.CodeCanceled, j.Error.Code)
}

func TestWait_Unknown(t *testing.T) {
	s, _ := newService(t, &stepRunner{})
	_, err := s.Wait(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// Package search owns the lifecycle of search jobs: it validates start
// requests, runs at most one job at a time in the background, applies every
// transition to the job record and fans the records out to subscribers.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"domainwizard/internal/domain"
	"domainwizard/internal/logger"
	"domainwizard/internal/metrics"
	"domainwizard/internal/ports"
	"domainwizard/internal/workers/searchrunner"
)

// Runner executes the loops of one job. *searchrunner.Runner implements it.
type Runner interface {
	Run(ctx context.Context, jobID string, in domain.SearchInput, cancel *domain.CancelToken, emit searchrunner.Emit) (*domain.Results, error)
}

const subscriberBuffer = 64

type Service struct {
	runner Runner
	runs   ports.RunRepository
	log    logger.Logger
	now    func() time.Time
	newID  func() string

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	current *jobState
	// busy is true while a worker goroutine is alive, which can outlast a
	// canceled job's terminal record.
	busy bool
}

type jobState struct {
	// id is fixed at creation and safe to read without the lock.
	id      string
	job     domain.Job
	cancel  *domain.CancelToken
	subs    map[int]chan domain.Job
	nextSub int
	done    chan struct{}
}

// New returns a Service. runs may be nil.
func New(runner Runner, runs ports.RunRepository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Service{
		runner:  runner,
		runs:    runs,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
		baseCtx: ctx,
		stop:    stop,
	}
}

// Start validates raw and launches a job. It fails with INVALID_INPUT or
// ALREADY_RUNNING before any job is created.
func (s *Service) Start(ctx context.Context, raw domain.RawInput) (domain.Job, error) {
	in, err := domain.ValidateInput(raw)
	if err != nil {
		return domain.Job{}, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.Job{}, domain.ErrAlreadyRunning
	}
	if s.baseCtx.Err() != nil {
		s.mu.Unlock()
		return domain.Job{}, domain.NewError(domain.CodeInternal, "service is shutting down")
	}
	id := s.newID()
	st := &jobState{
		id:     id,
		job:    domain.NewJob(id, in.LoopCount, s.now()),
		cancel: domain.NewCancelToken(),
		subs:   make(map[int]chan domain.Job),
		done:   make(chan struct{}),
	}
	s.current = st
	s.busy = true
	s.wg.Add(1)
	job := st.job
	s.mu.Unlock()

	if s.runs != nil {
		if err := s.runs.Create(ctx, job, in); err != nil {
			s.log.Warn("record run", logger.String("job_id", job.ID), logger.Error(err))
		}
	}
	s.log.Info("search job queued",
		logger.String("job_id", job.ID),
		logger.String("keywords", in.Keywords),
		logger.String("tld", in.TLD),
		logger.Int("loops", in.LoopCount),
	)

	go s.work(st, in)
	return job, nil
}

func (s *Service) work(st *jobState, in domain.SearchInput) {
	defer s.wg.Done()
	defer close(st.done)
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
		metrics.ActiveJobs.Dec()
	}()
	metrics.ActiveJobs.Inc()

	ctx := s.baseCtx
	id := st.id
	if _, ok := s.apply(st, domain.Started(s.now())); ok && s.runs != nil {
		if err := s.runs.MarkRunning(ctx, id); err != nil {
			s.log.Warn("mark run running", logger.String("job_id", id), logger.Error(err))
		}
	}

	lastLoop := 0
	res, err := s.runner.Run(ctx, id, in, st.cancel, func(t domain.Transition) {
		j, ok := s.apply(st, t)
		if !ok || s.runs == nil || t.Kind != domain.TransitionAdvance || j.CurrentLoop == lastLoop {
			return
		}
		lastLoop = j.CurrentLoop
		if err := s.runs.UpdateProgress(ctx, id, j.Progress, j.CurrentLoop); err != nil {
			s.log.Debug("record run progress", logger.String("job_id", id), logger.Error(err))
		}
	})
	s.finish(ctx, st, res, err)
}

func (s *Service) finish(ctx context.Context, st *jobState, res *domain.Results, runErr error) {
	id := st.id
	if runErr == nil {
		j, ok := s.apply(st, domain.Completed(res, s.now()))
		if !ok {
			return
		}
		metrics.JobsTotal.WithLabelValues(string(domain.StatusDone), "").Inc()
		s.log.Info("search job done", logger.String("job_id", id), logger.Int("ranked", len(res.AllRanked)))
		if s.runs != nil {
			if err := s.runs.MarkCompleted(ctx, id, j.Results); err != nil {
				s.log.Warn("mark run completed", logger.String("job_id", id), logger.Error(err))
			}
		}
		return
	}

	code := domain.CodeOf(runErr)
	if errors.Is(runErr, context.Canceled) {
		code = domain.CodeCanceled
	}
	if _, ok := s.apply(st, domain.Failed(code, runErr.Error(), s.now())); !ok {
		// Already failed by Cancel.
		return
	}
	s.recordFailure(ctx, id, code, runErr.Error())
}

func (s *Service) recordFailure(ctx context.Context, id string, code domain.ErrorCode, msg string) {
	metrics.JobsTotal.WithLabelValues(string(domain.StatusFailed), string(code)).Inc()
	if code == domain.CodeCanceled {
		s.log.Info("search job canceled", logger.String("job_id", id))
	} else {
		s.log.Error("search job failed", logger.String("job_id", id), logger.String("code", string(code)), logger.String("reason", msg))
	}
	if s.runs != nil {
		if err := s.runs.MarkFailed(ctx, id, code, msg); err != nil {
			s.log.Warn("mark run failed", logger.String("job_id", id), logger.Error(err))
		}
	}
}

// apply transitions the job and notifies subscribers. It reports false when
// the job was already terminal.
func (s *Service) apply(st *jobState, t domain.Transition) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := domain.Apply(st.job, t)
	if err != nil {
		if !errors.Is(err, domain.ErrTerminalJob) {
			s.log.Warn("rejected transition", logger.String("job_id", st.job.ID), logger.Error(err))
		}
		return st.job, false
	}
	st.job = next
	st.broadcast()
	return next, true
}

// broadcast sends the job to every subscriber, dropping the oldest queued
// record of a slow one. Terminal records close the channels. Callers hold
// the service lock.
func (st *jobState) broadcast() {
	for id, ch := range st.subs {
		select {
		case ch <- st.job:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st.job:
			default:
			}
		}
		if st.job.Status.Terminal() {
			close(ch)
			delete(st.subs, id)
		}
	}
}

// Cancel records the intent to stop jobID. A queued or running job turns
// failed with CANCELED right away; the worker stops at its next checkpoint.
// Canceling a terminal job is a no-op.
func (s *Service) Cancel(ctx context.Context, jobID string) (domain.Job, error) {
	s.mu.Lock()
	st := s.current
	if st == nil || st.id != jobID {
		s.mu.Unlock()
		return domain.Job{}, domain.ErrNotFound
	}
	if st.job.Status.Terminal() {
		j := st.job
		s.mu.Unlock()
		return j, nil
	}
	st.cancel.Cancel()
	s.mu.Unlock()

	j, ok := s.apply(st, domain.Failed(domain.CodeCanceled, domain.ErrCanceled.Message, s.now()))
	if ok {
		s.recordFailure(ctx, jobID, domain.CodeCanceled, domain.ErrCanceled.Message)
	}
	return j, nil
}

// Get returns the current record of jobID. Only the latest job is kept.
func (s *Service) Get(_ context.Context, jobID string) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.id != jobID {
		return domain.Job{}, domain.ErrNotFound
	}
	return s.current.job, nil
}

// Subscribe streams the job's records, starting with the current one.
func (s *Service) Subscribe(jobID string) (<-chan domain.Job, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.current
	if st == nil || st.id != jobID {
		return nil, nil, domain.ErrNotFound
	}
	ch := make(chan domain.Job, subscriberBuffer)
	ch <- st.job
	if st.job.Status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}
	id := st.nextSub
	st.nextSub++
	st.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := st.subs[id]; ok {
				delete(st.subs, id)
				close(c)
			}
		})
	}
	return ch, unsubscribe, nil
}

// Wait blocks until jobID's worker has exited and returns its final record.
func (s *Service) Wait(ctx context.Context, jobID string) (domain.Job, error) {
	s.mu.Lock()
	st := s.current
	if st == nil || st.id != jobID {
		s.mu.Unlock()
		return domain.Job{}, domain.ErrNotFound
	}
	s.mu.Unlock()
	select {
	case <-st.done:
	case <-ctx.Done():
		return domain.Job{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.job, nil
}

// Close cancels the running job and waits for its worker to exit.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil {
		s.current.cancel.Cancel()
	}
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

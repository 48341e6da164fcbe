package httpadapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainwizard/internal/adapters/memory"
	"domainwizard/internal/domain"
	"domainwizard/internal/logger"
	"domainwizard/internal/ports"
)

type fakeSearch struct {
	jobs    map[string]domain.Job
	started domain.RawInput
	stream  []domain.Job
}

func (f *fakeSearch) Start(_ context.Context, raw domain.RawInput) (domain.Job, error) {
	if raw.Keywords == "" {
		return domain.Job{}, domain.NewError(domain.CodeInvalidInput, "keywords must contain at least 2 characters")
	}
	if raw.Keywords == "busy" {
		return domain.Job{}, domain.ErrAlreadyRunning
	}
	f.started = raw
	return domain.Job{ID: "job-1", Status: domain.StatusQueued, TotalLoops: 5}, nil
}

func (f *fakeSearch) Cancel(_ context.Context, id string) (domain.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	j.Status = domain.StatusFailed
	j.Error = &domain.JobError{Code: domain.CodeCanceled, Message: "job canceled"}
	return j, nil
}

func (f *fakeSearch) Get(_ context.Context, id string) (domain.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return j, nil
}

func (f *fakeSearch) Subscribe(id string) (<-chan domain.Job, func(), error) {
	if _, ok := f.jobs[id]; !ok {
		return nil, nil, domain.ErrNotFound
	}
	ch := make(chan domain.Job, len(f.stream))
	for _, j := range f.stream {
		ch <- j
	}
	close(ch)
	return ch, func() {}, nil
}

type fakeAppraiser struct{ price *float64 }

func (f *fakeAppraiser) Appraise(_ context.Context, name string, price *float64) (domain.ScoredDomain, error) {
	if name == "bad" {
		return domain.ScoredDomain{}, domain.NewError(domain.CodeInvalidInput, `malformed domain "bad"`)
	}
	f.price = price
	return domain.ScoredDomain{Domain: name, OverallScore: 71.5}, nil
}

func newTestServer(t *testing.T, search *fakeSearch, opts Options) *httptest.Server {
	t.Helper()
	srv := New(search, &fakeAppraiser{}, logger.NewNop(), opts)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestPostJob(t *testing.T) {
	search := &fakeSearch{}
	ts := newTestServer(t, search, Options{})

	resp, err := http.Post(ts.URL+"/v1/jobs", "application/json", strings.NewReader(`{"keywords":"coffee shop","tld":"com","loopCount":5}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "/v1/jobs/job-1", resp.Header.Get("Location"))
	var job domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "coffee shop", search.started.Keywords)
	assert.Equal(t, 5, search.started.LoopCount)
}

func TestPostJob_Errors(t *testing.T) {
	ts := newTestServer(t, &fakeSearch{}, Options{})

	cases := []struct {
		body   string
		status int
		code   domain.ErrorCode
	}{
		{`{"keywords":""}`, http.StatusBadRequest, domain.CodeInvalidInput},
		{`{"keywords":"busy"}`, http.StatusConflict, domain.CodeAlreadyRunning},
		{`{"keywords":`, http.StatusBadRequest, domain.CodeInvalidInput},
		{`{"unknown":1}`, http.StatusBadRequest, domain.CodeInvalidInput},
	}
	for _, tc := range cases {
		resp, err := http.Post(ts.URL+"/v1/jobs", "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.body)
		assert.Equal(t, tc.code, decodeError(t, resp).Code, tc.body)
		resp.Body.Close()
	}
}

func TestGetAndCancelJob(t *testing.T) {
	search := &fakeSearch{jobs: map[string]domain.Job{
		"job-1": {ID: "job-1", Status: domain.StatusRunning, Progress: 40},
	}}
	ts := newTestServer(t, search, Options{})

	resp, err := http.Get(ts.URL + "/v1/jobs/job-1")
	require.NoError(t, err)
	var job domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 40, job.Progress)

	resp, err = http.Post(ts.URL+"/v1/jobs/job-1/cancel", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	resp.Body.Close()
	assert.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.CodeCanceled, job.Error.Code)

	resp, err = http.Get(ts.URL + "/v1/jobs/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.CodeNotFound, decodeError(t, resp).Code)
}

func TestStreamJob(t *testing.T) {
	search := &fakeSearch{
		jobs: map[string]domain.Job{"job-1": {ID: "job-1"}},
		stream: []domain.Job{
			{ID: "job-1", Status: domain.StatusRunning, Progress: 5},
			{ID: "job-1", Status: domain.StatusDone, Progress: 100},
		},
	}
	ts := newTestServer(t, search, Options{Heartbeat: time.Hour})

	resp, err := http.Get(ts.URL + "/v1/jobs/job-1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []domain.Job
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var j domain.Job
			require.NoError(t, json.Unmarshal([]byte(data), &j))
			events = append(events, j)
		}
	}
	require.Len(t, events, 2)
	assert.Equal(t, 5, events[0].Progress)
	assert.Equal(t, domain.StatusDone, events[1].Status)
}

func TestStreamJob_UnknownJob(t *testing.T) {
	ts := newTestServer(t, &fakeSearch{}, Options{})

	resp, err := http.Get(ts.URL + "/v1/jobs/nope/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostAppraisal(t *testing.T) {
	appraiser := &fakeAppraiser{}
	srv := New(&fakeSearch{}, appraiser, logger.NewNop(), Options{})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/appraisals", "application/json", strings.NewReader(`{"domain":"brewly.com","price":12.5}`))
	require.NoError(t, err)
	var d domain.ScoredDomain
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	resp.Body.Close()
	assert.Equal(t, "brewly.com", d.Domain)
	require.NotNil(t, appraiser.price)
	assert.InDelta(t, 12.5, *appraiser.price, 1e-9)

	resp, err = http.Post(ts.URL+"/v1/appraisals", "application/json", strings.NewReader(`{"domain":"bad"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, `malformed domain "bad"`, e.Message)
}

func TestListRuns(t *testing.T) {
	runs := memory.NewRunRepository(10)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, runs.Create(ctx, domain.Job{ID: id, Status: domain.StatusQueued, TotalLoops: 3}, domain.SearchInput{Keywords: "coffee", TLD: "com"}))
	}
	ts := newTestServer(t, &fakeSearch{}, Options{Runs: runs})

	resp, err := http.Get(ts.URL + "/v1/runs?limit=2")
	require.NoError(t, err)
	var body runsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Len(t, body.Runs, 2)

	resp, err = http.Get(ts.URL + "/v1/runs?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListRuns_NotConfigured(t *testing.T) {
	ts := newTestServer(t, &fakeSearch{}, Options{})

	resp, err := http.Get(ts.URL + "/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeSearch{}, Options{Checks: map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeSearch{}, Options{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.CodeUpstreamRate))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.CodeInternal))
	assert.Equal(t, http.StatusGone, statusFor(domain.CodeCanceled))
}

var _ ports.Searcher = (*fakeSearch)(nil)

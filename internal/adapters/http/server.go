// Package httpadapter exposes the search engine's control protocol over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domainwizard/internal/domain"
	"domainwizard/internal/logger"
	"domainwizard/internal/ports"
)

const (
	defaultHeartbeat = 15 * time.Second
	maxBodyBytes     = 1 << 20
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	// Runs is optional; /v1/runs answers 404 without it.
	Runs      ports.RunRepository
	Checks    map[string]HealthCheck
	Heartbeat time.Duration
}

type Server struct {
	search    ports.Searcher
	appraiser ports.Appraiser
	runs      ports.RunRepository
	checks    map[string]HealthCheck
	heartbeat time.Duration
	log       logger.Logger
}

func New(search ports.Searcher, appraiser ports.Appraiser, log logger.Logger, opts Options) *Server {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	return &Server{
		search:    search,
		appraiser: appraiser,
		runs:      opts.Runs,
		checks:    opts.Checks,
		heartbeat: opts.Heartbeat,
		log:       log,
	}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", s.postJob)
		r.Get("/jobs/{jobID}", s.getJob)
		r.Post("/jobs/{jobID}/cancel", s.cancelJob)
		r.Get("/jobs/{jobID}/events", s.streamJob)
		r.Post("/appraisals", s.postAppraisal)
		r.Get("/runs", s.listRuns)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) postJob(w http.ResponseWriter, r *http.Request) {
	var raw domain.RawInput
	if err := decodeBody(w, r, &raw); err != nil {
		s.writeError(w, err)
		return
	}
	job, err := s.search.Start(r.Context(), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	job, err := s.search.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	job, err := s.search.Cancel(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// streamJob writes every job notification as a server-sent event until the
// job is terminal or the client goes away.
func (s *Server) streamJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, domain.NewError(domain.CodeInternal, "streaming not supported"))
		return
	}
	updates, unsubscribe, err := s.search.Subscribe(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()
	log := s.log.With(logger.String("job_id", id))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": heartbeat\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case job, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, job); err != nil {
				log.Debug("event stream closed", logger.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	event := "job"
	if job.Status == domain.StatusFailed && job.Error != nil {
		event = "error"
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

type appraisalRequest struct {
	Domain string   `json:"domain"`
	Price  *float64 `json:"price"`
}

func (s *Server) postAppraisal(w http.ResponseWriter, r *http.Request) {
	var req appraisalRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	scored, err := s.appraiser.Appraise(r.Context(), req.Domain, req.Price)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

type runsResponse struct {
	Runs []ports.RunRecord `json:"runs"`
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, domain.NewError(domain.CodeNotFound, "run history is not configured"))
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		s.writeError(w, domain.WrapError(domain.CodeInvalidInput, "invalid limit", err))
		return
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []ports.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func jobID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "jobID", chi.URLParam(r, "jobID"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return "", domain.WrapError(domain.CodeInvalidInput, "invalid job id", err)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.NewError(domain.CodeInvalidInput, "missing body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.WrapError(domain.CodeInvalidInput, "malformed request body", err)
	}
	return nil
}

type errorResponse struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeAlreadyRunning:
		return http.StatusConflict
	case domain.CodeCanceled:
		return http.StatusGone
	case domain.CodeUpstreamAuth, domain.CodeUpstreamRate, domain.CodeUpstreamAPI, domain.CodeNameGenUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", logger.String("code", string(code)), logger.Error(err))
		if code == domain.CodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrTerminalJob is returned when a transition targets a finished job.
var ErrTerminalJob = errors.New("job already terminal")

type TransitionKind int

const (
	TransitionStart TransitionKind = iota + 1
	TransitionAdvance
	TransitionPublish
	TransitionComplete
	TransitionFail
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionStart:
		return "start"
	case TransitionAdvance:
		return "advance"
	case TransitionPublish:
		return "publish"
	case TransitionComplete:
		return "complete"
	case TransitionFail:
		return "fail"
	}
	return fmt.Sprintf("transition(%d)", int(k))
}

// Transition is one state change request for a Job. Only the fields relevant
// to Kind are read.
type Transition struct {
	Kind     TransitionKind
	Phase    Phase
	Progress int
	Loop     int
	Results  *Results
	Err      *JobError
	At       time.Time
}

func Started(at time.Time) Transition {
	return Transition{Kind: TransitionStart, Phase: PhaseGeneration, Progress: 1, At: at}
}

func Advanced(phase Phase, loop, progress int, at time.Time) Transition {
	return Transition{Kind: TransitionAdvance, Phase: phase, Loop: loop, Progress: progress, At: at}
}

func Published(res *Results, at time.Time) Transition {
	return Transition{Kind: TransitionPublish, Results: res, At: at}
}

func Completed(res *Results, at time.Time) Transition {
	return Transition{Kind: TransitionComplete, Results: res, At: at}
}

func Failed(code ErrorCode, msg string, at time.Time) Transition {
	return Transition{Kind: TransitionFail, Err: &JobError{Code: code, Message: msg}, At: at}
}

// NewJob creates a queued job.
func NewJob(id string, totalLoops int, now time.Time) Job {
	return Job{
		ID:         id,
		Status:     StatusQueued,
		TotalLoops: totalLoops,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply returns the job after t. The input job is not modified. Progress never
// decreases and only a completed job reports 100.
func Apply(j Job, t Transition) (Job, error) {
	if j.Status.Terminal() {
		return j, fmt.Errorf("%s on job %s: %w", t.Kind, j.ID, ErrTerminalJob)
	}
	out := j
	if !t.At.IsZero() {
		out.UpdatedAt = t.At
	}
	switch t.Kind {
	case TransitionStart:
		if j.Status != StatusQueued {
			return j, fmt.Errorf("start job %s in status %s", j.ID, j.Status)
		}
		out.Status = StatusRunning
		out.Phase = t.Phase
		at := out.UpdatedAt
		out.StartedAt = &at
		out.Progress = clampProgress(j.Progress, t.Progress)
	case TransitionAdvance:
		if j.Status != StatusRunning {
			return j, fmt.Errorf("advance job %s in status %s", j.ID, j.Status)
		}
		if t.Phase != "" {
			out.Phase = t.Phase
		}
		if t.Loop > out.CurrentLoop {
			out.CurrentLoop = t.Loop
		}
		out.Progress = clampProgress(j.Progress, t.Progress)
	case TransitionPublish:
		if j.Status != StatusRunning {
			return j, fmt.Errorf("publish job %s in status %s", j.ID, j.Status)
		}
		out.Results = t.Results
	case TransitionComplete:
		out.Status = StatusDone
		out.Phase = PhaseFinalize
		out.Progress = 100
		if t.Results != nil {
			out.Results = t.Results
		}
		at := out.UpdatedAt
		out.CompletedAt = &at
	case TransitionFail:
		out.Status = StatusFailed
		if t.Err == nil {
			out.Error = &JobError{Code: CodeInternal, Message: "unknown failure"}
		} else {
			e := *t.Err
			out.Error = &e
		}
		at := out.UpdatedAt
		out.CompletedAt = &at
	default:
		return j, fmt.Errorf("unknown transition %d", int(t.Kind))
	}
	return out, nil
}

func clampProgress(prev, next int) int {
	if next > 99 {
		next = 99
	}
	if next < prev {
		return prev
	}
	return next
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Lifecycle(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j := NewJob("job-1", 3, now)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, 0, j.Progress)

	j, err := Apply(j, Started(now.Add(time.Second)))
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, j.Status)
	require.NotNil(t, j.StartedAt)

	j, err = Apply(j, Advanced(PhaseAvailability, 1, 40, now.Add(2*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, 40, j.Progress)
	assert.Equal(t, 1, j.CurrentLoop)
	assert.Equal(t, PhaseAvailability, j.Phase)

	res := &Results{}
	j, err = Apply(j, Completed(res, now.Add(3*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, StatusDone, j.Status)
	assert.Equal(t, 100, j.Progress)
	assert.Same(t, res, j.Results)
	require.NotNil(t, j.CompletedAt)
}

func TestApply_ProgressNeverDecreases(t *testing.T) {
	j := NewJob("job-1", 2, time.Now())
	j, err := Apply(j, Started(time.Now()))
	require.NoError(t, err)

	j, err = Apply(j, Advanced(PhaseLooping, 1, 60, time.Now()))
	require.NoError(t, err)
	j, err = Apply(j, Advanced(PhaseLooping, 1, 30, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 60, j.Progress)

	j, err = Apply(j, Advanced(PhaseLooping, 2, 150, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 99, j.Progress, "only a completed job reports 100")
}

func TestApply_FailFreezesProgress(t *testing.T) {
	j := NewJob("job-1", 2, time.Now())
	j, _ = Apply(j, Started(time.Now()))
	j, _ = Apply(j, Advanced(PhaseLooping, 1, 42, time.Now()))

	j, err := Apply(j, Failed(CodeCanceled, "canceled by user", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, 42, j.Progress)
	require.NotNil(t, j.Error)
	assert.Equal(t, CodeCanceled, j.Error.Code)
}

func TestApply_TerminalRejectsTransitions(t *testing.T) {
	j := NewJob("job-1", 1, time.Now())
	j, _ = Apply(j, Failed(CodeCanceled, "canceled", time.Now()))

	_, err := Apply(j, Advanced(PhaseLooping, 1, 50, time.Now()))
	assert.ErrorIs(t, err, ErrTerminalJob)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	j := NewJob("job-1", 1, time.Now())
	next, err := Apply(j, Started(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, StatusRunning, next.Status)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeCanceled, CodeOf(ErrCanceled))
	assert.Equal(t, CodeInvalidInput, CodeOf(NewError(CodeInvalidInput, "bad")))
	assert.Equal(t, CodeCanceled, CodeOf(errString("context canceled")))
	assert.Equal(t, CodeInternal, CodeOf(errString("boom")))
	assert.ErrorIs(t, WrapError(CodeCanceled, "stop", nil), ErrCanceled)
}

type errString string

func (e errString) Error() string { return string(e) }

func TestCancelToken(t *testing.T) {
	tok := NewCancelToken()
	assert.False(t, tok.Canceled())
	assert.NoError(t, tok.Check())
	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.Canceled())
	assert.ErrorIs(t, tok.Check(), ErrCanceled)

	var nilTok *CancelToken
	assert.False(t, nilTok.Canceled())
}

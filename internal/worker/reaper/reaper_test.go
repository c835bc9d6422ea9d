package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/internal/usecase/expire_pending"
	"github.com/m04kA/stancastle-booking/internal/usecase/redispatch_paid"
	"github.com/m04kA/stancastle-booking/pkg/logger"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) Execute(ctx context.Context) (*expire_pending.Response, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return &expire_pending.Response{Expired: []uuid.UUID{uuid.New()}}, nil
}

type countingRedispatcher struct {
	calls atomic.Int32
}

func (r *countingRedispatcher) Execute(ctx context.Context) (*redispatch_paid.Response, error) {
	r.calls.Add(1)
	return &redispatch_paid.Response{Notified: []uuid.UUID{uuid.New()}}, nil
}

func TestNew_InvalidInterval(t *testing.T) {
	_, err := New(&countingExpirer{}, 0, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestWorker_RunsImmediatelyAndStops(t *testing.T) {
	expirer := &countingExpirer{}
	w, err := New(expirer, time.Hour, logger.Nop())
	require.NoError(t, err)

	w.Start()
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	// повторная остановка безопасна
	require.NoError(t, w.Stop())
}

func TestWorker_FailedPassKeepsSchedule(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("db down")}
	w, err := New(expirer, 50*time.Millisecond, logger.Nop())
	require.NoError(t, err)

	w.Start()
	defer w.Stop()

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestNew_InvalidRedispatchInterval(t *testing.T) {
	_, err := New(&countingExpirer{}, time.Hour, logger.Nop(), WithRedispatcher(&countingRedispatcher{}, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestWorker_RunsRedispatchAlongsideExpiry(t *testing.T) {
	expirer := &countingExpirer{}
	redispatcher := &countingRedispatcher{}
	w, err := New(expirer, time.Hour, logger.Nop(), WithRedispatcher(redispatcher, 50*time.Millisecond))
	require.NoError(t, err)

	w.Start()
	defer w.Stop()

	assert.Eventually(t, func() bool { return redispatcher.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	// у очистки свой часовой интервал
	assert.Equal(t, int32(1), expirer.calls.Load())
}

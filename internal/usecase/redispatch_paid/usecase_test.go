package redispatch_paid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/service/dispatcher"
	"github.com/m04kA/stancastle-booking/pkg/logger"
)

type fakeRepo struct {
	ids      []uuid.UUID
	err      error
	paidFrom time.Time
	paidTo   time.Time
	limit    uint64
}

func (r *fakeRepo) ListUnnotifiedPaid(_ context.Context, paidFrom, paidTo time.Time, limit uint64) ([]uuid.UUID, error) {
	r.paidFrom, r.paidTo, r.limit = paidFrom, paidTo, limit
	return r.ids, r.err
}

type fakeDispatcher struct {
	reports map[uuid.UUID]*dispatcher.Report
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
}

func (d *fakeDispatcher) Dispatch(_ context.Context, id uuid.UUID) (*dispatcher.Report, error) {
	d.calls = append(d.calls, id)
	if err := d.errs[id]; err != nil {
		return nil, err
	}
	if r, ok := d.reports[id]; ok {
		return r, nil
	}
	return &dispatcher.Report{ConfirmationOut: true, MeetingEmailOut: true, Notified: true}, nil
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

var testOptions = Options{Grace: 10 * time.Minute, MaxAge: 24 * time.Hour}

func TestNewUseCase_InvalidWindow(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "zero grace", opts: Options{MaxAge: time.Hour}},
		{name: "max age below grace", opts: Options{Grace: time.Hour, MaxAge: time.Minute}},
		{name: "equal bounds", opts: Options{Grace: time.Hour, MaxAge: time.Hour}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUseCase(&fakeRepo{}, &fakeDispatcher{}, tt.opts, logger.Nop())
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestExecute_RedispatchesLostSideEffects(t *testing.T) {
	lost, stillFailing, gone := uuid.New(), uuid.New(), uuid.New()
	repo := &fakeRepo{ids: []uuid.UUID{lost, stillFailing, gone}}
	d := &fakeDispatcher{
		reports: map[uuid.UUID]*dispatcher.Report{
			stillFailing: {ConfirmationOut: true, Failed: []dispatcher.Step{dispatcher.StepMeetingEmail}},
		},
		errs: map[uuid.UUID]error{gone: bookingRepo.ErrBookingNotFound},
	}

	uc, err := NewUseCase(repo, d, testOptions, logger.Nop())
	require.NoError(t, err)
	uc.WithTimeProvider(fixedTime{now: testNow})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(-24*time.Hour), repo.paidFrom)
	assert.Equal(t, testNow.Add(-10*time.Minute), repo.paidTo)
	assert.Equal(t, defaultBatchSize, repo.limit)

	assert.Equal(t, []uuid.UUID{lost, stillFailing, gone}, d.calls)
	assert.Equal(t, []uuid.UUID{lost}, resp.Notified)
	assert.Equal(t, []uuid.UUID{stillFailing, gone}, resp.Pending)
}

func TestExecute_NothingToRedispatch(t *testing.T) {
	d := &fakeDispatcher{}
	uc, err := NewUseCase(&fakeRepo{}, d, Options{Grace: time.Minute, MaxAge: time.Hour, BatchSize: 5}, logger.Nop())
	require.NoError(t, err)

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Notified)
	assert.Empty(t, resp.Pending)
	assert.Empty(t, d.calls)
}

func TestExecute_StopsWhenContextDone(t *testing.T) {
	repo := &fakeRepo{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	d := &fakeDispatcher{}
	uc, err := NewUseCase(repo, d, testOptions, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := uc.Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.calls)
	assert.Empty(t, resp.Notified)
}

func TestExecute_StorageError(t *testing.T) {
	uc, err := NewUseCase(&fakeRepo{err: errors.New("connection reset")}, &fakeDispatcher{}, testOptions, logger.Nop())
	require.NoError(t, err)

	_, err = uc.Execute(context.Background())
	assert.ErrorIs(t, err, ErrInternal)
}
